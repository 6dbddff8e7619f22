package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("PROPSTRIP_LOG_LEVEL", func(t *testing.T) {
		t.Setenv("PROPSTRIP_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("PROPSTRIP_WORKSPACE", func(t *testing.T) {
		t.Setenv("PROPSTRIP_WORKSPACE", "/tmp/ws")

		cfg := &Config{Workspace: "/other"}
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/ws", cfg.Workspace)
	})

	t.Run("PROPSTRIP_AUDIT_FILE", func(t *testing.T) {
		t.Setenv("PROPSTRIP_AUDIT_FILE", "audit.jsonl")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "audit.jsonl", cfg.Execution.AuditFile)
	})

	t.Run("PROPSTRIP_MAX_WORKERS valid", func(t *testing.T) {
		t.Setenv("PROPSTRIP_MAX_WORKERS", "8")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 8, cfg.Execution.MaxWorkers)
	})

	t.Run("PROPSTRIP_MAX_WORKERS invalid is ignored", func(t *testing.T) {
		t.Setenv("PROPSTRIP_MAX_WORKERS", "lots")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 4, cfg.Execution.MaxWorkers)
	})
}

func TestLoad_AppliesEnvOverrides(t *testing.T) {
	t.Setenv("PROPSTRIP_LOG_LEVEL", "error")

	cfg, err := Load(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

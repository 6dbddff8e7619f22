package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"propstrip/internal/strip"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "propstrip" {
		t.Errorf("expected Name=propstrip, got %s", cfg.Name)
	}
	if len(cfg.Recipes) != 1 {
		t.Fatalf("expected 1 default recipe, got %d", len(cfg.Recipes))
	}
	r := cfg.Recipes[0]
	if r.MinIndex != 901 {
		t.Errorf("expected MinIndex=901, got %d", r.MinIndex)
	}
	if r.OpenMarker != "<LiveViewer" || r.CloseMarker != "/>" {
		t.Errorf("unexpected markers: %+v", r.Params)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultPath)

	cfg := DefaultConfig()
	cfg.Recipes = append(cfg.Recipes, Recipe{
		Name:          "utf16",
		Path:          "legacy/View.tsx",
		Params:        strip.Params{OpenMarker: "<View", TriggerMarker: "onPress", MinIndex: 3, CloseMarker: ">"},
		Encoding:      "utf-16le",
		AllowTruncate: true,
	})
	cfg.Execution.AuditFile = ".propstrip/audit.jsonl"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded.Recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(loaded.Recipes))
	}
	got, ok := loaded.Recipe("utf16")
	if !ok {
		t.Fatal("recipe utf16 not found")
	}
	if got.TriggerMarker != "onPress" || got.MinIndex != 3 || got.Encoding != "utf-16le" || !got.AllowTruncate {
		t.Errorf("recipe did not round-trip: %+v", got)
	}
	if loaded.Execution.AuditFile != ".propstrip/audit.jsonl" {
		t.Errorf("expected audit file to round-trip, got %q", loaded.Execution.AuditFile)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GetMaxWorkers() != 4 {
		t.Errorf("expected default MaxWorkers=4, got %d", cfg.GetMaxWorkers())
	}
}

func TestLoad_InlineParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	yaml := `recipes:
  - name: lv
    path: src/MatchDashboard.tsx
    open: "<LiveViewer"
    trigger: "setStriker={setStriker}"
    min_index: 901
    close: "/>"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := strip.Params{OpenMarker: "<LiveViewer", TriggerMarker: "setStriker={setStriker}", MinIndex: 901, CloseMarker: "/>"}
	if cfg.Recipes[0].Params != want {
		t.Errorf("got %+v, want %+v", cfg.Recipes[0].Params, want)
	}
	// Sections absent from the file keep their defaults.
	if cfg.GetDebounce() != 500*time.Millisecond {
		t.Errorf("expected default debounce, got %v", cfg.GetDebounce())
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	if err := os.WriteFile(path, []byte("recipes: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"empty trigger", func(c *Config) { c.Recipes[0].TriggerMarker = "" }, strip.ErrEmptyMarker},
		{"negative min index", func(c *Config) { c.Recipes[0].MinIndex = -1 }, nil},
		{"missing path", func(c *Config) { c.Recipes[0].Path = "" }, nil},
		{"bad encoding", func(c *Config) { c.Recipes[0].Encoding = "latin1" }, nil},
		{"duplicate name", func(c *Config) { c.Recipes = append(c.Recipes, c.Recipes[0]) }, nil},
		{"bad timeout", func(c *Config) { c.Execution.Timeout = "soon" }, nil},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "1 sec" }, nil},
		{"negative workers", func(c *Config) { c.Execution.MaxWorkers = -2 }, nil},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recipes = append(cfg.Recipes, Recipe{Name: "second", Path: "b.tsx", Params: cfg.Recipes[0].Params})

	all, err := cfg.Select(nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("Select(nil) = %d recipes, %v", len(all), err)
	}

	picked, err := cfg.Select([]string{"second", "liveviewer-setstriker"})
	if err != nil {
		t.Fatal(err)
	}
	if picked[0].Name != "second" || picked[1].Name != "liveviewer-setstriker" {
		t.Errorf("unexpected order: %s, %s", picked[0].Name, picked[1].Name)
	}

	if _, err := cfg.Select([]string{"nope"}); !errors.Is(err, ErrUnknownRecipe) {
		t.Errorf("expected ErrUnknownRecipe, got %v", err)
	}

	cfg.Recipes = nil
	if _, err := cfg.Select(nil); !errors.Is(err, ErrNoRecipes) {
		t.Errorf("expected ErrNoRecipes, got %v", err)
	}
}

func TestGetters_FallBackOnBadValues(t *testing.T) {
	cfg := &Config{}
	cfg.Execution.Timeout = "garbage"
	cfg.Watch.Debounce = "garbage"

	if cfg.GetTimeout() != 2*time.Minute {
		t.Errorf("expected 2m fallback, got %v", cfg.GetTimeout())
	}
	if cfg.GetDebounce() != 500*time.Millisecond {
		t.Errorf("expected 500ms fallback, got %v", cfg.GetDebounce())
	}
	if cfg.GetMaxWorkers() != 1 {
		t.Errorf("expected at least one worker, got %d", cfg.GetMaxWorkers())
	}
}

func TestResolvePath(t *testing.T) {
	cfg := &Config{Workspace: filepath.FromSlash("/ws")}
	if got := cfg.ResolvePath("src/a.tsx"); got != filepath.Join("/ws", "src", "a.tsx") {
		t.Errorf("unexpected path %s", got)
	}
	abs := filepath.Join(t.TempDir(), "a.tsx")
	if got := cfg.ResolvePath(abs); got != abs {
		t.Errorf("absolute path changed: %s", got)
	}
}

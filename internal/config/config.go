package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"propstrip/internal/document"
	"propstrip/internal/strip"
)

// DefaultPath is the config file looked up in the workspace.
const DefaultPath = ".propstrip.yaml"

var (
	// ErrNoRecipes is returned when an operation needs recipes and none are configured.
	ErrNoRecipes = errors.New("no recipes configured")
	// ErrUnknownRecipe is returned when a recipe name does not exist.
	ErrUnknownRecipe = errors.New("unknown recipe")
)

// Config holds all propstrip configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Workspace is the directory relative recipe paths resolve against.
	Workspace string `yaml:"workspace,omitempty"`

	Recipes   []Recipe        `yaml:"recipes"`
	Execution ExecutionConfig `yaml:"execution"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Recipe binds strip params to one document.
type Recipe struct {
	Name         string `yaml:"name"`
	Path         string `yaml:"path"`
	strip.Params `yaml:",inline"`

	// Encoding forces a source encoding (utf-8, utf-16le, utf-16be).
	// Empty means detect from the BOM.
	Encoding string `yaml:"encoding,omitempty"`

	// AllowTruncate permits writing a result whose span never closed.
	AllowTruncate bool `yaml:"allow_truncate,omitempty"`
}

// Validate checks one recipe in isolation.
func (r Recipe) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("recipe name is required")
	}
	if r.Path == "" {
		return fmt.Errorf("recipe %s: path is required", r.Name)
	}
	if err := r.Params.Validate(); err != nil {
		return fmt.Errorf("recipe %s: %w", r.Name, err)
	}
	if _, err := document.ParseEncoding(r.Encoding); err != nil {
		return fmt.Errorf("recipe %s: %w", r.Name, err)
	}
	return nil
}

// ExecutionConfig configures how recipes are applied.
type ExecutionConfig struct {
	// MaxWorkers bounds how many documents are patched concurrently.
	MaxWorkers int `yaml:"max_workers"`

	// Timeout bounds a whole apply run.
	Timeout string `yaml:"timeout"`

	// AuditFile receives one JSON line per document read/write. Empty disables it.
	AuditFile string `yaml:"audit_file,omitempty"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "propstrip",
		Version: "1.0.0",

		Recipes: []Recipe{
			{
				Name: "liveviewer-setstriker",
				Path: "src/components/MatchDashboard.tsx",
				Params: strip.Params{
					OpenMarker:    "<LiveViewer",
					TriggerMarker: "setStriker={setStriker}",
					MinIndex:      901,
					CloseMarker:   "/>",
				},
			},
		},

		Execution: ExecutionConfig{
			MaxWorkers: 4,
			Timeout:    "2m",
		},

		Watch: WatchConfig{
			Debounce: "500ms",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("PROPSTRIP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if ws := os.Getenv("PROPSTRIP_WORKSPACE"); ws != "" {
		c.Workspace = ws
	}
	if audit := os.Getenv("PROPSTRIP_AUDIT_FILE"); audit != "" {
		c.Execution.AuditFile = audit
	}
	if w := os.Getenv("PROPSTRIP_MAX_WORKERS"); w != "" {
		if n, err := strconv.Atoi(w); err == nil && n > 0 {
			c.Execution.MaxWorkers = n
		}
	}
}

// GetTimeout returns the apply timeout as a duration.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d < 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetMaxWorkers returns the worker bound, never less than one.
func (c *Config) GetMaxWorkers() int {
	if c.Execution.MaxWorkers < 1 {
		return 1
	}
	return c.Execution.MaxWorkers
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Recipes))
	for _, r := range c.Recipes {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("duplicate recipe name: %s", r.Name)
		}
		seen[r.Name] = struct{}{}
	}

	if c.Execution.MaxWorkers < 0 {
		return fmt.Errorf("execution.max_workers must be >= 0, got %d", c.Execution.MaxWorkers)
	}
	if c.Execution.Timeout != "" {
		if _, err := time.ParseDuration(c.Execution.Timeout); err != nil {
			return fmt.Errorf("invalid execution.timeout: %w", err)
		}
	}
	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("invalid watch.debounce: %w", err)
		}
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging.level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	return nil
}

// Select returns the named recipes in the given order, or every recipe when
// names is empty.
func (c *Config) Select(names []string) ([]Recipe, error) {
	if len(c.Recipes) == 0 {
		return nil, ErrNoRecipes
	}
	if len(names) == 0 {
		return append([]Recipe(nil), c.Recipes...), nil
	}

	out := make([]Recipe, 0, len(names))
	for _, name := range names {
		r, ok := c.Recipe(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRecipe, name)
		}
		out = append(out, r)
	}
	return out, nil
}

// Recipe looks up a recipe by name.
func (c *Config) Recipe(name string) (Recipe, bool) {
	for _, r := range c.Recipes {
		if r.Name == name {
			return r, true
		}
	}
	return Recipe{}, false
}

// ResolvePath resolves a recipe path against the workspace.
func (c *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) || c.Workspace == "" {
		return path
	}
	return filepath.Join(c.Workspace, path)
}

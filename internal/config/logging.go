package config

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`                // debug, info, warn, error
	Format     string          `yaml:"format"`               // json, console
	File       string          `yaml:"file,omitempty"`       // empty = stderr
	DebugMode  bool            `yaml:"debug_mode,omitempty"` // false = warnings and errors only
	Categories map[string]bool `yaml:"categories,omitempty"` // Per-category toggles
}

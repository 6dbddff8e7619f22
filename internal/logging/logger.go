// Package logging provides config-driven categorized logging for propstrip.
// Every category is a named zap logger. Until Initialize (or Use) is called all
// loggers are no-ops, so library code can log freely from tests.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config loading
	CategoryStrip    Category = "strip"    // Line-range stripping
	CategoryDocument Category = "document" // Document read/write
	CategoryPatch    Category = "patch"    // Recipe runner
	CategoryWatch    Category = "watch"    // File watcher
	CategoryJSX      Category = "jsx"      // Structural prop de-duplication
	CategoryDiff     Category = "diff"     // Diff preview
	CategoryAudit    Category = "audit"    // Document audit trail
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	File       string          // optional; relative paths resolve against the workspace
	DebugMode  bool            // false = only warnings and errors reach the output
	Categories map[string]bool // per-category toggles; missing = enabled
}

// Logger is a category-bound sugared logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    *zap.Logger
	opts    Options
	loggers = make(map[Category]*Logger)
)

// Initialize builds the base zap logger from opts. The workspace is used to
// resolve a relative log file path.
func Initialize(workspace string, o Options) error {
	level, err := parseLevel(o.Level)
	if err != nil {
		return err
	}
	if !o.DebugMode && level < zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}

	cfg := zap.NewProductionConfig()
	if strings.EqualFold(o.Format, "console") || strings.EqualFold(o.Format, "text") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	if o.File != "" {
		path := o.File
		if !filepath.IsAbs(path) && workspace != "" {
			path = filepath.Join(workspace, path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{path}
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	install(logger, o)
	Get(CategoryBoot).Debug("logging initialized: level=%s format=%s file=%q", level, o.Format, o.File)
	return nil
}

// Use installs an existing zap logger, e.g. the CLI's or zaptest's.
// All categories are enabled.
func Use(logger *zap.Logger) {
	install(logger, Options{DebugMode: true})
}

func install(logger *zap.Logger, o Options) {
	mu.Lock()
	defer mu.Unlock()
	if base != nil {
		_ = base.Sync()
	}
	base = logger
	opts = o
	loggers = make(map[Category]*Logger)
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", s)
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if base == nil {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if logging is not initialized or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{
		category: category,
		sugar:    base.Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Infow logs a message with structured fields.
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Sync flushes the base logger (call at shutdown)
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if base != nil {
		_ = base.Sync()
	}
}

// Reset drops the base logger; everything becomes a no-op again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	base = nil
	opts = Options{}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

func Strip(format string, args ...interface{})      { Get(CategoryStrip).Info(format, args...) }
func StripDebug(format string, args ...interface{}) { Get(CategoryStrip).Debug(format, args...) }

func Document(format string, args ...interface{})      { Get(CategoryDocument).Info(format, args...) }
func DocumentDebug(format string, args ...interface{}) { Get(CategoryDocument).Debug(format, args...) }
func DocumentError(format string, args ...interface{}) { Get(CategoryDocument).Error(format, args...) }

func Patch(format string, args ...interface{})      { Get(CategoryPatch).Info(format, args...) }
func PatchDebug(format string, args ...interface{}) { Get(CategoryPatch).Debug(format, args...) }
func PatchWarn(format string, args ...interface{})  { Get(CategoryPatch).Warn(format, args...) }

func Watch(format string, args ...interface{})      { Get(CategoryWatch).Info(format, args...) }
func WatchDebug(format string, args ...interface{}) { Get(CategoryWatch).Debug(format, args...) }
func WatchError(format string, args ...interface{}) { Get(CategoryWatch).Error(format, args...) }

func DiffDebug(format string, args ...interface{}) { Get(CategoryDiff).Debug(format, args...) }

func JSX(format string, args ...interface{})      { Get(CategoryJSX).Info(format, args...) }
func JSXDebug(format string, args ...interface{}) { Get(CategoryJSX).Debug(format, args...) }

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Elapsed returns the time since the timer started without logging.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}

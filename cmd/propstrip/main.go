package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"propstrip/internal/config"
	"propstrip/internal/document"
	"propstrip/internal/logging"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	timeout    time.Duration

	// Logger
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "propstrip",
	Short: "Remove duplicated JSX prop spans from source files",
	Long: `propstrip removes a bounded span of lines from a document: the span starts
at a trigger line inside a target block (entered on an open marker) at or after
a minimum line index, and ends at the next line holding the close marker, which
is kept.

Recipes in .propstrip.yaml name a document and its markers so a fix can be
re-applied, previewed, or kept applied while the file is being edited.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAudit()
		logging.Sync()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file (relative to the workspace)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Operation timeout (default: execution.timeout from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveWorkspace picks --workspace, then the config's workspace, then the
// current directory.
func resolveWorkspace(cfg *config.Config) string {
	ws := workspace
	if ws == "" && cfg != nil {
		ws = cfg.Workspace
	}
	if ws == "" {
		ws, _ = os.Getwd()
	}
	if abs, err := filepath.Abs(ws); err == nil {
		ws = abs
	}
	return ws
}

// loadConfig loads and validates the config, then initializes categorized
// logging and the audit trail from it.
func loadConfig() (*config.Config, error) {
	path := configFile()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.Workspace = resolveWorkspace(cfg)

	opts := logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		DebugMode:  cfg.Logging.DebugMode || verbose,
		Categories: cfg.Logging.Categories,
	}
	if verbose {
		opts.Level = "debug"
	}
	if err := logging.Initialize(cfg.Workspace, opts); err != nil {
		return nil, err
	}

	if cfg.Execution.AuditFile != "" {
		auditPath := cfg.ResolvePath(cfg.Execution.AuditFile)
		if err := logging.InitAudit(auditPath); err != nil {
			return nil, err
		}
	}

	logging.BootDebug("config loaded from %s: workspace=%s recipes=%d", path, cfg.Workspace, len(cfg.Recipes))
	return cfg, nil
}

// newEditor returns a document editor rooted at the workspace whose audit
// events go to the audit trail.
func newEditor(cfg *config.Config) *document.Editor {
	ed := document.NewEditor()
	ed.SetWorkingDir(cfg.Workspace)
	ed.SetAuditCallback(func(e logging.AuditEvent) {
		logging.Audit().Log(e)
	})
	return ed
}

// opTimeout returns --timeout or the configured execution timeout.
func opTimeout(cfg *config.Config) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return cfg.GetTimeout()
}

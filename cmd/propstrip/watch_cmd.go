package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"propstrip/internal/config"
	"propstrip/internal/patch"
	"propstrip/internal/watch"
)

// watchCmd keeps recipes applied while documents are edited.
var watchCmd = &cobra.Command{
	Use:   "watch [recipe...]",
	Short: "Re-apply recipes whenever their documents change",
	Long: `Applies the selected recipes once, then watches their documents and
re-applies every recipe of a document after its writes settle for
watch.debounce. Stops on SIGINT or SIGTERM.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	recipes, err := cfg.Select(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return watchRecipes(ctx, cmd, cfg, recipes)
}

// watchRecipes blocks until ctx is done.
func watchRecipes(ctx context.Context, cmd *cobra.Command, cfg *config.Config, recipes []config.Recipe) error {
	w := cmd.OutOrStdout()
	editor := newEditor(cfg)
	runner := patch.NewRunner(editor, patch.Options{MaxWorkers: cfg.GetMaxWorkers()})

	byPath := make(map[string][]config.Recipe)
	var paths []string
	for _, r := range recipes {
		// Keys must match the cleaned absolute paths the watcher reports.
		abs, err := filepath.Abs(editor.ResolvePath(r.Path))
		if err != nil {
			return fmt.Errorf("resolve %s: %w", r.Path, err)
		}
		if _, ok := byPath[abs]; !ok {
			paths = append(paths, abs)
		}
		byPath[abs] = append(byPath[abs], r)
	}

	report := func(outcomes []*patch.Outcome, err error) {
		for _, out := range outcomes {
			if out != nil && (out.Written || out.Unterminated) {
				fmt.Fprintf(w, "[%s] ", out.Recipe)
				printOutcome(w, out, false, false)
			}
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	}

	// Initial pass; a missing document is reported and watched anyway.
	report(runner.ApplyAll(ctx, recipes))

	watcher, err := watch.New(paths, cfg.GetDebounce(), func(hctx context.Context, path string) error {
		outcomes, err := runner.ApplyAll(hctx, byPath[path])
		report(outcomes, err)
		if errors.Is(err, patch.ErrUnterminatedSpan) {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	fmt.Fprintf(w, "Watching %d document(s); press Ctrl+C to stop\n", len(paths))
	logger.Info("watching", zap.Strings("paths", paths), zap.Duration("debounce", cfg.GetDebounce()))

	<-ctx.Done()

	stats := watcher.Stats()
	logger.Info("watch stopped",
		zap.Int("events", stats.Events),
		zap.Int("handled", stats.Handled),
		zap.Int("errors", stats.Errors))
	return nil
}

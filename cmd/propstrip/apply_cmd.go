package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"propstrip/internal/patch"
)

var (
	applyDryRun   bool
	applyShowDiff bool
	applyWorkers  int
)

// applyCmd runs configured recipes.
var applyCmd = &cobra.Command{
	Use:   "apply [recipe...]",
	Short: "Apply recipes from the config (all recipes when none are named)",
	Long: `Applies recipes from .propstrip.yaml. Recipes that target the same document
run one after another in declaration order; different documents are patched
concurrently, bounded by execution.max_workers.

Examples:
  propstrip apply
  propstrip apply liveviewer-setstriker --dry-run --diff`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Report what would change without writing")
	applyCmd.Flags().BoolVar(&applyShowDiff, "diff", false, "Print a unified diff for each change")
	applyCmd.Flags().IntVar(&applyWorkers, "workers", 0, "Documents patched concurrently (0=config)")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	recipes, err := cfg.Select(args)
	if err != nil {
		return err
	}

	workers := applyWorkers
	if workers <= 0 {
		workers = cfg.GetMaxWorkers()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout(cfg))
	defer cancel()

	runner := patch.NewRunner(newEditor(cfg), patch.Options{
		DryRun:     applyDryRun,
		WithDiff:   applyShowDiff,
		MaxWorkers: workers,
	})
	outcomes, err := runner.ApplyAll(ctx, recipes)

	w := cmd.OutOrStdout()
	changed := 0
	for _, out := range outcomes {
		if out == nil {
			continue
		}
		fmt.Fprintf(w, "[%s] ", out.Recipe)
		printOutcome(w, out, applyDryRun, applyShowDiff)
		if out.Changed {
			changed++
		}
	}

	if err != nil {
		if errors.Is(err, patch.ErrUnterminatedSpan) {
			return fmt.Errorf("%w (set allow_truncate on the recipe to write anyway)", err)
		}
		return err
	}

	logger.Info("apply complete",
		zap.Int("recipes", len(recipes)),
		zap.Int("changed", changed),
		zap.Bool("dry_run", applyDryRun))
	return nil
}

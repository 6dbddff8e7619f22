package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"propstrip/internal/config"
	"propstrip/internal/patch"
	"propstrip/internal/strip"
)

var (
	stripFile          string
	stripOpen          string
	stripTrigger       string
	stripMinIndex      int
	stripClose         string
	stripEncoding      string
	stripDryRun        bool
	stripShowDiff      bool
	stripAllowTruncate bool
)

var stripCmd = &cobra.Command{
	Use:   "strip",
	Short: "Strip one span from a document using markers given as flags",
	Long: `Reads --file, enters the target block at the first line containing --open,
and removes every line from the first line at index >= --min-index containing
--trigger up to (not including) the next line containing --close.

Examples:
  propstrip strip --file src/components/MatchDashboard.tsx \
    --open '<LiveViewer' --trigger 'setStriker={setStriker}' --min-index 901 --close '/>'
  propstrip strip --file a.tsx --open '<A' --trigger 'x=' --close '/>' --dry-run --diff`,
	Args: cobra.NoArgs,
	RunE: runStrip,
}

func init() {
	stripCmd.Flags().StringVarP(&stripFile, "file", "f", "", "Document to patch")
	stripCmd.Flags().StringVar(&stripOpen, "open", "", "Marker that enters the target block")
	stripCmd.Flags().StringVar(&stripTrigger, "trigger", "", "Marker that starts the removed span")
	stripCmd.Flags().IntVar(&stripMinIndex, "min-index", 0, "Lowest 0-based line index a trigger may match at")
	stripCmd.Flags().StringVar(&stripClose, "close", "", "Marker that ends the removed span (kept)")
	stripCmd.Flags().StringVar(&stripEncoding, "encoding", "", "Force the source encoding (utf-8, utf-16le, utf-16be)")
	stripCmd.Flags().BoolVar(&stripDryRun, "dry-run", false, "Report what would change without writing")
	stripCmd.Flags().BoolVar(&stripShowDiff, "diff", false, "Print a unified diff of the change")
	stripCmd.Flags().BoolVar(&stripAllowTruncate, "allow-truncate", false, "Write even when the span never closes")
	_ = stripCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(stripCmd)
}

func runStrip(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	recipe := config.Recipe{
		Name: "cli",
		Path: stripFile,
		Params: strip.Params{
			OpenMarker:    stripOpen,
			TriggerMarker: stripTrigger,
			MinIndex:      stripMinIndex,
			CloseMarker:   stripClose,
		},
		Encoding:      stripEncoding,
		AllowTruncate: stripAllowTruncate,
	}
	if err := recipe.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout(cfg))
	defer cancel()

	runner := patch.NewRunner(newEditor(cfg), patch.Options{
		DryRun:   stripDryRun,
		WithDiff: stripShowDiff,
	})
	out, err := runner.Apply(ctx, recipe)
	if out != nil {
		printOutcome(cmd.OutOrStdout(), out, stripDryRun, stripShowDiff)
	}
	if err != nil {
		if errors.Is(err, patch.ErrUnterminatedSpan) {
			return fmt.Errorf("%w (pass --allow-truncate to write anyway)", err)
		}
		return err
	}

	logger.Debug("strip complete",
		zap.String("file", out.Path),
		zap.Int("removed", out.RemovedLines),
		zap.Bool("written", out.Written))
	return nil
}

// printOutcome renders one recipe outcome for humans.
func printOutcome(w io.Writer, out *patch.Outcome, dryRun, showDiff bool) {
	st := newOutputStyles(w)
	switch {
	case out.Refused:
		fmt.Fprintln(w, st.Warning.Render(fmt.Sprintf("Span at line %d in %s never closes", out.Spans[len(out.Spans)-1].Start+1, out.Path)))
	case !out.Changed:
		fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf("No matching span in %s", out.Path)))
	case dryRun:
		fmt.Fprintln(w, st.Warning.Render(fmt.Sprintf("Would remove %d line(s) from %s", out.RemovedLines, out.Path)))
	default:
		fmt.Fprintln(w, st.Success.Render(fmt.Sprintf("Removed %d line(s) from %s", out.RemovedLines, out.Path)))
	}
	if showDiff {
		st.renderDiff(w, out.Diff)
	}
}

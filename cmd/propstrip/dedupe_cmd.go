package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"propstrip/internal/jsx"
)

var (
	dedupeFile      string
	dedupeComponent string
	dedupeDryRun    bool
)

// dedupeCmd removes repeated props structurally, without line markers.
var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove repeated props on a JSX component (first occurrence wins)",
	Long: `Parses a TSX document and removes every prop that repeats an earlier prop on
the same element of the given component.

Example:
  propstrip dedupe --file src/components/MatchDashboard.tsx --component LiveViewer`,
	Args: cobra.NoArgs,
	RunE: runDedupe,
}

func init() {
	dedupeCmd.Flags().StringVarP(&dedupeFile, "file", "f", "", "TSX document to patch")
	dedupeCmd.Flags().StringVar(&dedupeComponent, "component", "", "Component whose props are de-duplicated")
	dedupeCmd.Flags().BoolVar(&dedupeDryRun, "dry-run", false, "List duplicates without writing")
	_ = dedupeCmd.MarkFlagRequired("file")
	_ = dedupeCmd.MarkFlagRequired("component")

	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dedupeComponent == "" {
		return fmt.Errorf("--component is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout(cfg))
	defer cancel()

	ed := newEditor(cfg).ForRecipe("dedupe:" + dedupeComponent)
	doc, err := ed.Read(dedupeFile, "")
	if err != nil {
		return err
	}

	out, dups, err := jsx.NewDeduper().Remove(ctx, []byte(doc.Text()), dedupeComponent)
	if err != nil {
		return fmt.Errorf("%s: %w", dedupeFile, err)
	}

	w := cmd.OutOrStdout()
	for _, d := range dups {
		fmt.Fprintf(w, "%s:%d: <%s> repeats %s (first on line %d)\n",
			dedupeFile, d.Repeat.Line, d.Element, d.Repeat.Name, d.First.Line)
	}
	if len(dups) == 0 {
		ed.Skip(doc)
		fmt.Fprintf(w, "No duplicate props on <%s> in %s\n", dedupeComponent, dedupeFile)
		return nil
	}
	if dedupeDryRun {
		fmt.Fprintf(w, "Would remove %d prop(s) from %s\n", len(dups), dedupeFile)
		return nil
	}

	if _, err := ed.Write(doc.WithText(string(out))); err != nil {
		return err
	}
	fmt.Fprintf(w, "Removed %d prop(s) from %s\n", len(dups), dedupeFile)
	return nil
}


// Package patch applies configured strip recipes to documents.
package patch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"propstrip/internal/config"
	"propstrip/internal/diff"
	"propstrip/internal/document"
	"propstrip/internal/logging"
	"propstrip/internal/strip"
)

// ErrUnterminatedSpan is returned when a span opened but the document ended
// before the close marker; writing the result would truncate the document.
var ErrUnterminatedSpan = errors.New("span never closed; refusing to truncate document")

// slowRecipe is the duration above which a recipe run is logged as a warning.
const slowRecipe = 2 * time.Second

// Options controls a Runner.
type Options struct {
	DryRun     bool // never write
	WithDiff   bool // attach a diff to every changed outcome
	MaxWorkers int  // documents patched concurrently by ApplyAll
}

// Outcome describes what one recipe did to its document.
type Outcome struct {
	Recipe       string
	Path         string
	Changed      bool
	Written      bool
	RemovedLines int
	Spans        []strip.Span
	Unterminated bool
	Refused      bool // unterminated and the recipe does not allow truncation
	Diff         *diff.FileDiff
	OldHash      string
	NewHash      string
}

// Runner reads, strips and writes documents.
type Runner struct {
	editor *document.Editor
	diffs  *diff.Engine
	opts   Options
}

// NewRunner creates a Runner writing through editor.
func NewRunner(editor *document.Editor, opts Options) *Runner {
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	return &Runner{
		editor: editor,
		diffs:  diff.DefaultEngine,
		opts:   opts,
	}
}

// Apply runs a single recipe. When the span is unterminated and the recipe
// does not allow truncation, the outcome is returned together with
// ErrUnterminatedSpan and nothing is written.
func (r *Runner) Apply(ctx context.Context, recipe config.Recipe) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := recipe.Validate(); err != nil {
		return nil, err
	}

	timer := logging.StartTimer(logging.CategoryPatch, "Recipe "+recipe.Name)
	defer timer.StopWithThreshold(slowRecipe)

	enc, err := document.ParseEncoding(recipe.Encoding)
	if err != nil {
		return nil, err
	}

	ed := r.editor.ForRecipe(recipe.Name)
	doc, err := ed.Read(recipe.Path, enc)
	if err != nil {
		return nil, err
	}

	res := strip.Strip(doc.Lines, recipe.Params)
	out := &Outcome{
		Recipe:       recipe.Name,
		Path:         recipe.Path,
		Changed:      res.Changed(),
		RemovedLines: res.RemovedCount(len(doc.Lines)),
		Spans:        res.Spans,
		Unterminated: res.Unterminated,
		OldHash:      doc.Hash,
		NewHash:      doc.Hash,
	}
	logging.StripDebug("recipe %s: %d span(s), %d line(s) removed, unterminated=%v",
		recipe.Name, len(res.Spans), out.RemovedLines, res.Unterminated)

	if out.Changed && (r.opts.WithDiff || r.opts.DryRun) {
		out.Diff = r.diffs.ComputeLines(recipe.Path, doc.Lines, res.Lines)
	}

	if res.Unterminated && !recipe.AllowTruncate {
		out.Refused = true
		logging.PatchWarn("recipe %s: span starting at line %d never closed in %s",
			recipe.Name, res.Spans[len(res.Spans)-1].Start+1, recipe.Path)
		return out, fmt.Errorf("recipe %s: %s: %w", recipe.Name, recipe.Path, ErrUnterminatedSpan)
	}

	if !out.Changed {
		ed.Skip(doc)
		logging.Patch("recipe %s: no matching span in %s", recipe.Name, recipe.Path)
		return out, nil
	}

	if r.opts.DryRun {
		logging.Patch("recipe %s: dry run, %d line(s) would be removed from %s", recipe.Name, out.RemovedLines, recipe.Path)
		return out, nil
	}

	wr, err := ed.Write(doc.WithLines(res.Lines))
	if err != nil {
		return out, err
	}
	out.Written = true
	out.NewHash = wr.NewHash
	logging.Patch("recipe %s: removed %d line(s) from %s", recipe.Name, out.RemovedLines, recipe.Path)
	return out, nil
}

// ApplyAll runs recipes grouped by document. Groups run concurrently, bounded
// by MaxWorkers; recipes sharing a document run in declaration order. The
// first error cancels the remaining work. Outcomes are indexed like recipes;
// entries for recipes that did not run are nil.
func (r *Runner) ApplyAll(ctx context.Context, recipes []config.Recipe) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(recipes))

	order := make([]string, 0, len(recipes))
	groups := make(map[string][]int)
	for i, rec := range recipes {
		key := r.editor.ResolvePath(rec.Path)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	logging.PatchDebug("applying %d recipe(s) across %d document(s), workers=%d",
		len(recipes), len(order), r.opts.MaxWorkers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxWorkers)

	for _, key := range order {
		idxs := groups[key]
		g.Go(func() error {
			for _, i := range idxs {
				out, err := r.Apply(gctx, recipes[i])
				outcomes[i] = out
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	return outcomes, err
}

// Package strip removes a bounded span of lines from a document.
//
// The span starts at a trigger line found inside a target block (a block is
// entered on any line containing the open marker) at or after a minimum line
// index, and ends at the first following line containing the close marker.
// The close line itself is kept. Matching is plain substring containment.
package strip

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyMarker is returned by Params.Validate when a marker is empty.
var ErrEmptyMarker = errors.New("marker must not be empty")

// Params configures one strip pass.
type Params struct {
	OpenMarker    string `yaml:"open" json:"open"`
	TriggerMarker string `yaml:"trigger" json:"trigger"`
	MinIndex      int    `yaml:"min_index" json:"min_index"` // zero-based, inclusive
	CloseMarker   string `yaml:"close" json:"close"`
}

// Validate reports params that would match every line or no index at all.
func (p Params) Validate() error {
	switch {
	case p.OpenMarker == "":
		return fmt.Errorf("open: %w", ErrEmptyMarker)
	case p.TriggerMarker == "":
		return fmt.Errorf("trigger: %w", ErrEmptyMarker)
	case p.CloseMarker == "":
		return fmt.Errorf("close: %w", ErrEmptyMarker)
	case p.MinIndex < 0:
		return fmt.Errorf("min index must be >= 0, got %d", p.MinIndex)
	}
	return nil
}

// Span is one removed run of lines. Start is the trigger line, End is the
// close line (kept in the output) or -1 when the document ended first.
type Span struct {
	Start int
	End   int
}

// Removed returns the number of dropped lines given the document length.
func (s Span) Removed(total int) int {
	if s.End < 0 {
		return total - s.Start
	}
	return s.End - s.Start
}

// Result is the output of Strip plus what happened along the way.
type Result struct {
	Lines []string
	Spans []Span

	// Unterminated is set when a span was opened but no close line followed.
	// Every line after the trigger has been dropped from Lines in that case.
	Unterminated bool
}

// Changed reports whether any line was removed.
func (r Result) Changed() bool {
	return len(r.Spans) > 0
}

// RemovedCount is the total number of dropped lines.
func (r Result) RemovedCount(total int) int {
	n := 0
	for _, s := range r.Spans {
		n += s.Removed(total)
	}
	return n
}

// Strip runs a single forward pass over lines. It never fails and never
// mutates its input.
func Strip(lines []string, p Params) Result {
	out := make([]string, 0, len(lines))
	var spans []Span

	insideBlock := false
	skipping := false

	for i, line := range lines {
		if strings.Contains(line, p.OpenMarker) {
			insideBlock = true
		}

		if insideBlock && !skipping && strings.Contains(line, p.TriggerMarker) && i >= p.MinIndex {
			skipping = true
			spans = append(spans, Span{Start: i, End: -1})
			continue
		}

		if skipping {
			if strings.Contains(line, p.CloseMarker) {
				out = append(out, line)
				skipping = false
				insideBlock = false
				spans[len(spans)-1].End = i
			}
			continue
		}

		out = append(out, line)
	}

	return Result{
		Lines:        out,
		Spans:        spans,
		Unterminated: skipping,
	}
}

// Lines is Strip without the report.
func Lines(lines []string, p Params) []string {
	return Strip(lines, p).Lines
}

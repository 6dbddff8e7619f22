package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"propstrip/internal/diff"
)

// Palette
var (
	successColor = lipgloss.Color("#22c55e")
	warningColor = lipgloss.Color("#f59e0b")
	removedColor = lipgloss.Color("#ef4444")
	infoColor    = lipgloss.Color("#3b82f6")
	mutedColor   = lipgloss.Color("#6b7280")
)

// outputStyles colors command output. Styles render as plain text when the
// writer is not a terminal.
type outputStyles struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Hunk    lipgloss.Style
	Added   lipgloss.Style
	Removed lipgloss.Style
	Context lipgloss.Style
}

func newOutputStyles(w io.Writer) outputStyles {
	r := lipgloss.NewRenderer(w)
	line := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return outputStyles{
		Success: r.NewStyle().Foreground(successColor).Bold(true),
		Warning: r.NewStyle().Foreground(warningColor).Bold(true),
		Muted:   r.NewStyle().Foreground(mutedColor),
		Hunk:    r.NewStyle().Foreground(infoColor),
		Added:   line.Foreground(successColor),
		Removed: line.Foreground(removedColor),
		Context: line,
	}
}

// renderDiff writes d in unified format, one styled line at a time.
func (s outputStyles) renderDiff(w io.Writer, d *diff.FileDiff) {
	if d == nil || d.Empty() {
		return
	}
	fmt.Fprint(w, d.Format(func(sec diff.Section, line string) string {
		switch sec {
		case diff.SectionFile:
			return s.Muted.Render(line)
		case diff.SectionHunk:
			return s.Hunk.Render(line)
		case diff.SectionAdded:
			return s.Added.Render(line)
		case diff.SectionRemoved:
			return s.Removed.Render(line)
		}
		return s.Context.Render(line)
	}))
}

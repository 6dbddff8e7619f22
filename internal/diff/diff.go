// Package diff renders line diffs of a transform using the sergi/go-diff
// library, for dry runs and --diff previews.
package diff

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"

	"propstrip/internal/logging"
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

// LineType represents the type of diff line
type LineType int

const (
	LineContext LineType = iota // Unchanged context line
	LineAdded                   // Added line
	LineRemoved                 // Removed line
)

// Line represents a single line in the diff
type Line struct {
	LineNum int // 1-based; old numbering for context/removed, new for added
	Content string
	Type    LineType
}

// Hunk represents a group of changes
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff represents changes to a single file
type FileDiff struct {
	OldPath string
	NewPath string
	Hunks   []Hunk
}

// Engine provides diff computation with caching
type Engine struct {
	dmp     *diffmatchpatch.DiffMatchPatch
	context int
	cache   sync.Map // Cache for identical input pairs
}

// cacheKey is used for caching diff results
type cacheKey struct {
	oldHash uint64
	newHash uint64
}

// NewEngine creates a new diff engine showing contextLines around changes.
func NewEngine(contextLines int) *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // Disable timeout for accuracy
	if contextLines < 0 {
		contextLines = 0
	}
	return &Engine{
		dmp:     dmp,
		context: contextLines,
	}
}

// DefaultEngine is a shared engine with DefaultContext.
var DefaultEngine = NewEngine(DefaultContext)

// ComputeDiff creates a FileDiff from old and new content strings.
func (e *Engine) ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	key := cacheKey{hash(oldContent), hash(newContent)}
	if cached, ok := e.cache.Load(key); ok {
		if hunks, ok := cached.([]Hunk); ok {
			return &FileDiff{OldPath: oldPath, NewPath: newPath, Hunks: hunks}
		}
	}

	// Line-level reduction avoids newline boundary artifacts.
	a, b, lineArray := e.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	hunks := groupIntoHunks(diffsToOperations(diffs), e.context)
	e.cache.Store(key, hunks)
	logging.DiffDebug("computed %d hunk(s) for %s", len(hunks), newPath)

	return &FileDiff{OldPath: oldPath, NewPath: newPath, Hunks: hunks}
}

// ComputeLines diffs two line slices. Every line is terminated on both sides,
// so a line that ends one side still equals the same line mid-way through the
// other.
func (e *Engine) ComputeLines(path string, oldLines, newLines []string) *FileDiff {
	return e.ComputeDiff(path, path, joinTerminated(oldLines), joinTerminated(newLines))
}

func joinTerminated(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// operation represents a single line operation
type operation struct {
	typ     LineType
	oldLine int // 0-based, -1 when absent
	newLine int
	content string
}

// diffsToOperations converts diffmatchpatch diffs to line-based operations
func diffsToOperations(diffs []diffmatchpatch.Diff) []operation {
	var ops []operation
	oldLine, newLine := 0, 0

	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		lines := strings.Split(d.Text, "\n")
		// A chunk ending in "\n" leaves an empty tail that is not a line.
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}

		for _, line := range lines {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, operation{LineContext, oldLine, newLine, line})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, operation{LineRemoved, oldLine, -1, line})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, operation{LineAdded, -1, newLine, line})
				newLine++
			}
		}
	}
	return ops
}

// groupIntoHunks merges changes closer than 2*contextLines into one hunk.
func groupIntoHunks(ops []operation, contextLines int) []Hunk {
	var hunks []Hunk

	i := 0
	for i < len(ops) {
		if ops[i].typ == LineContext {
			i++
			continue
		}

		start := i - contextLines
		if start < 0 {
			start = 0
		}

		// Extend while the next change is within reach.
		end := i
		for j := i; j < len(ops); j++ {
			if ops[j].typ != LineContext {
				end = j
				continue
			}
			if j-end > 2*contextLines {
				break
			}
		}
		stop := end + contextLines + 1
		if stop > len(ops) {
			stop = len(ops)
		}

		hunks = append(hunks, buildHunk(ops, start, stop))
		i = stop
	}
	return hunks
}

func buildHunk(ops []operation, start, stop int) Hunk {
	h := Hunk{Lines: make([]Line, 0, stop-start)}

	// Lines of each side preceding the hunk.
	oldBefore, newBefore := 0, 0
	for _, op := range ops[:start] {
		if op.typ != LineAdded {
			oldBefore++
		}
		if op.typ != LineRemoved {
			newBefore++
		}
	}

	for _, op := range ops[start:stop] {
		num := op.oldLine + 1
		if op.typ == LineAdded {
			num = op.newLine + 1
		}
		h.Lines = append(h.Lines, Line{LineNum: num, Content: op.content, Type: op.typ})
		if op.typ != LineAdded {
			h.OldCount++
		}
		if op.typ != LineRemoved {
			h.NewCount++
		}
	}

	h.OldStart = oldBefore + 1
	if h.OldCount == 0 {
		h.OldStart = oldBefore
	}
	h.NewStart = newBefore + 1
	if h.NewCount == 0 {
		h.NewStart = newBefore
	}
	return h
}

// Stats returns the number of added and removed lines.
func (d *FileDiff) Stats() (added, removed int) {
	for _, h := range d.Hunks {
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				added++
			case LineRemoved:
				removed++
			}
		}
	}
	return added, removed
}

// Empty reports whether the two sides are identical.
func (d *FileDiff) Empty() bool {
	return len(d.Hunks) == 0
}

// Section identifies a piece of unified output.
type Section int

const (
	SectionFile    Section = iota // --- / +++ header
	SectionHunk                   // @@ header
	SectionContext                // unchanged line
	SectionAdded                  // added line
	SectionRemoved                // removed line
)

// Format renders the diff in unified format, passing every output line
// (without its newline) through style. A nil style leaves lines as they are.
func (d *FileDiff) Format(style func(Section, string) string) string {
	if d.Empty() {
		return ""
	}
	if style == nil {
		style = func(_ Section, s string) string { return s }
	}
	var b strings.Builder
	line := func(sec Section, s string) {
		b.WriteString(style(sec, s))
		b.WriteByte('\n')
	}
	line(SectionFile, "--- a/"+d.OldPath)
	line(SectionFile, "+++ b/"+d.NewPath)
	for _, h := range d.Hunks {
		line(SectionHunk, fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount))
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				line(SectionAdded, "+"+l.Content)
			case LineRemoved:
				line(SectionRemoved, "-"+l.Content)
			default:
				line(SectionContext, " "+l.Content)
			}
		}
	}
	return b.String()
}

// hash computes a simple hash for caching (FNV-1a algorithm)
func hash(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

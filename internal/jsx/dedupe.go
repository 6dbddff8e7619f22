// Package jsx finds and removes repeated props on JSX elements.
//
// Unlike the line-range stripper, matching here is structural: TSX sources
// are parsed with tree-sitter and only attributes of elements whose tag name
// equals the requested component are considered. The first occurrence of a
// prop wins; later occurrences are reported as duplicates.
package jsx

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"propstrip/internal/logging"
)

// ErrParse is returned when the source does not parse as TSX.
var ErrParse = errors.New("source does not parse as TSX")

// Attribute is one prop assignment on an element.
type Attribute struct {
	Name      string
	StartByte int
	EndByte   int
	Line      int // 1-based
}

// Duplicate is a prop that repeats an earlier prop of the same element.
type Duplicate struct {
	Element string
	Line    int // line of the element's tag name, 1-based
	First   Attribute
	Repeat  Attribute
}

// Deduper parses TSX and de-duplicates props. A Deduper is safe for
// concurrent use; parses are serialized.
type Deduper struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewDeduper creates a Deduper with the TSX grammar loaded.
func NewDeduper() *Deduper {
	parser := sitter.NewParser()
	parser.SetLanguage(tsx.GetLanguage())
	return &Deduper{parser: parser}
}

// Find reports every duplicate prop on elements named component, in source order.
func (d *Deduper) Find(ctx context.Context, content []byte, component string) ([]Duplicate, error) {
	d.mu.Lock()
	tree, err := d.parser.ParseCtx(ctx, nil, content)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, ErrParse
	}

	var dups []Duplicate
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "jsx_self_closing_element", "jsx_opening_element":
			if name := n.ChildByFieldName("name"); name != nil && name.Content(content) == component {
				line := int(name.StartPoint().Row) + 1
				dups = append(dups, elementDuplicates(n, component, line, content)...)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)

	logging.JSXDebug("found %d duplicate prop(s) on <%s>", len(dups), component)
	return dups, nil
}

// elementDuplicates scans one element's attributes. line is the line of the
// tag name; the element node itself can start earlier.
func elementDuplicates(el *sitter.Node, component string, line int, content []byte) []Duplicate {
	var dups []Duplicate
	seen := make(map[string]Attribute)

	for i := 0; i < int(el.NamedChildCount()); i++ {
		child := el.NamedChild(i)
		if child.Type() != "jsx_attribute" || child.NamedChildCount() == 0 {
			continue
		}
		attr := Attribute{
			Name:      child.NamedChild(0).Content(content),
			StartByte: int(child.StartByte()),
			EndByte:   int(child.EndByte()),
			Line:      int(child.StartPoint().Row) + 1,
		}
		if first, ok := seen[attr.Name]; ok {
			dups = append(dups, Duplicate{Element: component, Line: line, First: first, Repeat: attr})
			continue
		}
		seen[attr.Name] = attr
	}
	return dups
}

// Remove deletes every duplicate prop on elements named component. A prop
// alone on its line takes the whole line with it. The result is idempotent.
func (d *Deduper) Remove(ctx context.Context, content []byte, component string) ([]byte, []Duplicate, error) {
	dups, err := d.Find(ctx, content, component)
	if err != nil || len(dups) == 0 {
		return content, dups, err
	}

	ranges := make([][2]int, 0, len(dups))
	for _, dup := range dups {
		s, e := removalRange(content, dup.Repeat.StartByte, dup.Repeat.EndByte)
		ranges = append(ranges, [2]int{s, e})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })

	out := make([]byte, 0, len(content))
	pos := 0
	for _, r := range ranges {
		if r[0] < pos {
			r[0] = pos
		}
		if r[1] <= pos {
			continue
		}
		out = append(out, content[pos:r[0]]...)
		pos = r[1]
	}
	out = append(out, content[pos:]...)

	logging.JSX("removed %d duplicate prop(s) from <%s>", len(dups), component)
	return out, dups, nil
}

// removalRange widens an attribute's byte range to the text that should go
// with it.
func removalRange(content []byte, start, end int) (int, int) {
	ls := start
	for ls > 0 && content[ls-1] != '\n' {
		ls--
	}
	le := end
	for le < len(content) && content[le] != '\n' {
		le++
	}

	if blank(content[ls:start]) && blank(content[end:le]) {
		switch {
		case le < len(content):
			return ls, le + 1
		case ls > 0:
			return ls - 1, le
		default:
			return ls, le
		}
	}

	s := start
	for s > ls && (content[s-1] == ' ' || content[s-1] == '\t') {
		s--
	}
	return s, end
}

func blank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}
	return true
}

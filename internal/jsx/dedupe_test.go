package jsx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const source = `export function App() {
  return (
    <div>
      <LiveViewer
        score={score}
        setStriker={setStriker}
        striker={striker}
        setStriker={setStriker}
      />
      <Other setStriker={a} setStriker={b} />
      <LiveViewer a={1} b={2} a={3}>child</LiveViewer>
    </div>
  );
}
`

const cleaned = `export function App() {
  return (
    <div>
      <LiveViewer
        score={score}
        setStriker={setStriker}
        striker={striker}
      />
      <Other setStriker={a} setStriker={b} />
      <LiveViewer a={1} b={2}>child</LiveViewer>
    </div>
  );
}
`

func TestFind(t *testing.T) {
	d := NewDeduper()

	dups, err := d.Find(context.Background(), []byte(source), "LiveViewer")
	require.NoError(t, err)
	require.Len(t, dups, 2)

	assert.Equal(t, "setStriker", dups[0].Repeat.Name)
	assert.Equal(t, 6, dups[0].First.Line)
	assert.Equal(t, 8, dups[0].Repeat.Line)
	assert.Equal(t, 4, dups[0].Line)

	assert.Equal(t, "a", dups[1].Repeat.Name)
	assert.Equal(t, 11, dups[1].Repeat.Line)
	assert.Equal(t, 11, dups[1].Line)
}

func TestFind_TopLevelElementLine(t *testing.T) {
	d := NewDeduper()

	src := "const x = (\n  <LiveViewer\n    a={1}\n    a={2}\n  />\n);\n"
	dups, err := d.Find(context.Background(), []byte(src), "LiveViewer")
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, 2, dups[0].Line)
}

func TestRemove(t *testing.T) {
	d := NewDeduper()

	out, dups, err := d.Remove(context.Background(), []byte(source), "LiveViewer")
	require.NoError(t, err)
	assert.Len(t, dups, 2)
	assert.Equal(t, cleaned, string(out))

	again, dups, err := d.Remove(context.Background(), out, "LiveViewer")
	require.NoError(t, err)
	assert.Empty(t, dups)
	assert.Equal(t, cleaned, string(again))
}

func TestRemove_OtherComponentUntouched(t *testing.T) {
	d := NewDeduper()

	out, dups, err := d.Remove(context.Background(), []byte(source), "Missing")
	require.NoError(t, err)
	assert.Empty(t, dups)
	assert.Equal(t, source, string(out))
}

func TestFind_ParseError(t *testing.T) {
	d := NewDeduper()

	_, err := d.Find(context.Background(), []byte("const x = <LiveViewer a={1} ;;; {{{"), "LiveViewer")
	assert.True(t, errors.Is(err, ErrParse))
}

func TestRemovalRange(t *testing.T) {
	content := []byte("<A\n  x={1}\n  x={2}\n/>")
	s, e := removalRange(content, 13, 18) // "x={2}"
	assert.Equal(t, "  x={2}\n", string(content[s:e]))

	inline := []byte("<A x={1} x={2} />")
	s, e = removalRange(inline, 9, 14)
	assert.Equal(t, " x={2}", string(inline[s:e]))

	last := []byte("<A\n  x={2}")
	s, e = removalRange(last, 5, 10)
	assert.Equal(t, "\n  x={2}", string(last[s:e]))
}

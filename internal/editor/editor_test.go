package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditor_LineHeights(t *testing.T) {
	e := New("short\nthis line wraps\n\nend", 5, 3)

	assert.Equal(t, []int{1, 3, 1, 1}, e.LineHeights())
	assert.Equal(t, 6, e.TotalRows())
	assert.Equal(t, 4, e.LineCount())
}

func TestEditor_Content(t *testing.T) {
	e := New("a\r\nb", 10, 3)
	assert.Equal(t, "a\nb", e.Content())
}

func TestEditor_ScrollClampsAndNotifies(t *testing.T) {
	e := New("1\n2\n3\n4\n5", 10, 2)
	var got []int
	e.OnScroll(func(top int) { got = append(got, top) })

	e.ScrollTo(10)
	e.ScrollBy(-1)
	e.ScrollBy(0)
	e.ScrollTo(-3)

	assert.Equal(t, []int{3, 2, 0}, got)
	assert.Equal(t, 3, e.MaxScroll())
}

func TestEditor_Visible(t *testing.T) {
	e := New("ab\ncdefg\nh", 3, 3)
	e.ScrollTo(2)

	rows := e.Visible()
	require.Len(t, rows, 2)
	assert.Equal(t, Row{Line: 1, First: false, Text: "fg"}, rows[0])
	assert.Equal(t, Row{Line: 2, First: true, Text: "h"}, rows[1])
}

func TestEditor_VisibleStopsAtHeight(t *testing.T) {
	e := New("a\nb\nc\nd", 10, 2)

	rows := e.Visible()
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[1].Text)
}

func TestEditor_SetText(t *testing.T) {
	e := New("1\n2\n3\n4\n5\n6", 10, 2)
	e.ScrollTo(4)
	changes := 0
	e.OnChange(func() { changes++ })

	e.SetText("1\n2\n3\n4\n5\n6")
	assert.Zero(t, changes)

	e.SetText("1\n2\n3")
	assert.Equal(t, 1, changes)
	assert.Equal(t, 1, e.ScrollTop(), "scroll clamps to the shorter text")
}

func TestEditor_SetSizeRemeasures(t *testing.T) {
	e := New("abcdef", 6, 5)
	assert.Equal(t, []int{1}, e.LineHeights())

	e.SetSize(2, 5)
	assert.Equal(t, []int{3}, e.LineHeights())
}

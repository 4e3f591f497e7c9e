// Package editor is the source pane: a scrollable view of the markdown
// text with soft-wrapped lines. Vertical offsets are measured in terminal
// rows, so a line's height is the number of rows it wraps to.
package editor

import (
	"strings"

	"github.com/dshills/mdview/internal/eventloop"
	"github.com/dshills/mdview/internal/layout"
	"github.com/dshills/mdview/internal/preview"
)

// Row is one visible row of the source pane.
type Row struct {
	Line  int  // zero-based source line
	First bool // first row of the line
	Text  string
}

// Editor holds the source text and its scroll position. It must only be
// used from the event loop.
type Editor struct {
	lines   []string
	heights []int
	total   int

	width  int
	height int
	top    int

	scrollFns eventloop.Listeners[func(int)]
	changeFns eventloop.Listeners[func()]
}

// New creates an editor showing text in a width by height pane.
func New(text string, width, height int) *Editor {
	e := &Editor{width: width, height: height}
	e.setLines(text)
	return e
}

func (e *Editor) setLines(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	e.lines = strings.Split(text, "\n")
	e.measure()
}

func (e *Editor) measure() {
	e.heights = make([]int, len(e.lines))
	e.total = 0
	for i, line := range e.lines {
		h := layout.RowCount(layout.ExpandTabs(line), e.width)
		e.heights[i] = h
		e.total += h
	}
	e.top = min(e.top, e.MaxScroll())
}

// Content returns the source text.
func (e *Editor) Content() string {
	return strings.Join(e.lines, "\n")
}

// SetText replaces the source text, keeping the scroll position where
// possible. Change listeners run if the text differs.
func (e *Editor) SetText(text string) {
	if text == e.Content() {
		return
	}
	e.setLines(text)
	e.changeFns.Each(func(fn func()) { fn() })
}

// LineCount returns the number of source lines.
func (e *Editor) LineCount() int {
	return len(e.lines)
}

// LineHeights returns the number of rows every source line occupies.
func (e *Editor) LineHeights() []int {
	return append([]int(nil), e.heights...)
}

// TotalRows returns the sum of all line heights.
func (e *Editor) TotalRows() int {
	return e.total
}

// Size returns the pane size.
func (e *Editor) Size() (width, height int) {
	return e.width, e.height
}

// SetSize changes the pane size and re-measures wrapped lines.
func (e *Editor) SetSize(width, height int) {
	if width == e.width && height == e.height {
		return
	}
	e.width, e.height = width, height
	e.measure()
}

// MaxScroll returns the largest valid scroll offset.
func (e *Editor) MaxScroll() int {
	return max(e.total-e.height, 0)
}

// ScrollTop returns the first visible row.
func (e *Editor) ScrollTop() int {
	return e.top
}

// ScrollTo scrolls so row offset is at the top, clamped to the scrollable
// range. Scroll listeners run if the position changed.
func (e *Editor) ScrollTo(offset int) {
	offset = max(0, min(offset, e.MaxScroll()))
	if offset == e.top {
		return
	}
	e.top = offset
	e.scrollFns.Each(func(fn func(int)) { fn(offset) })
}

// ScrollBy scrolls by delta rows.
func (e *Editor) ScrollBy(delta int) {
	e.ScrollTo(e.top + delta)
}

// OnScroll registers fn to run after every scroll.
func (e *Editor) OnScroll(fn func(top int)) func() {
	return e.scrollFns.Add(fn)
}

// OnChange registers fn to run after the text changes.
func (e *Editor) OnChange(fn func()) func() {
	return e.changeFns.Add(fn)
}

// Visible returns the rows inside the pane.
func (e *Editor) Visible() []Row {
	rows := make([]Row, 0, e.height)
	skip := e.top
	for i, line := range e.lines {
		if skip >= e.heights[i] {
			skip -= e.heights[i]
			continue
		}
		for j, text := range layout.HardWrap(layout.ExpandTabs(line), e.width) {
			if skip > 0 {
				skip--
				continue
			}
			if len(rows) == e.height {
				return rows
			}
			rows = append(rows, Row{Line: i, First: j == 0, Text: text})
		}
	}
	return rows
}

var _ preview.Editor = (*Editor)(nil)

// Package previewtest provides in-memory collaborators for testing the
// preview pipeline without a real editor or layout host.
package previewtest

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/dshills/mdview/internal/preview"
)

var surfaceSeq atomic.Uint64

// Surface is a scriptable preview.Surface.
type Surface struct {
	id        string
	mode      preview.LayoutMode
	Elements  []preview.TaggedElement
	Content   string
	MaxScroll int // zero means unbounded

	top       int
	scrolls   []int
	scrollFns map[int]func(int)
	resizeFns map[int]func()
	nextID    int
	probes    int
}

// NewSurface creates a surface with the given tagged elements.
func NewSurface(elements ...preview.TaggedElement) *Surface {
	return &Surface{
		id:        fmt.Sprintf("surface-%d", surfaceSeq.Add(1)),
		Elements:  elements,
		scrollFns: make(map[int]func(int)),
		resizeFns: make(map[int]func()),
	}
}

// WithMode sets the surface layout mode and returns s.
func (s *Surface) WithMode(mode preview.LayoutMode) *Surface {
	s.mode = mode
	return s
}

func (s *Surface) ID() string               { return s.id }
func (s *Surface) Mode() preview.LayoutMode { return s.mode }
func (s *Surface) ScrollTop() int           { return s.top }

// TaggedElements returns a copy of Elements and counts the probe.
func (s *Surface) TaggedElements() []preview.TaggedElement {
	s.probes++
	return append([]preview.TaggedElement(nil), s.Elements...)
}

// ScrollTo records the request, clamps it and notifies scroll listeners
// synchronously when the position changes.
func (s *Surface) ScrollTo(offset int) {
	s.scrolls = append(s.scrolls, offset)
	offset = max(offset, 0)
	if s.MaxScroll > 0 {
		offset = min(offset, s.MaxScroll)
	}
	if offset == s.top {
		return
	}
	s.top = offset
	for _, fn := range s.snapshotScroll() {
		fn(offset)
	}
}

// UserScroll simulates the user scrolling the preview to offset.
func (s *Surface) UserScroll(offset int) {
	s.top = offset
	for _, fn := range s.snapshotScroll() {
		fn(offset)
	}
}

// Resize simulates a viewport size change.
func (s *Surface) Resize() {
	for _, fn := range s.resizeFns {
		fn()
	}
}

func (s *Surface) snapshotScroll() []func(int) {
	fns := make([]func(int), 0, len(s.scrollFns))
	for _, fn := range s.scrollFns {
		fns = append(fns, fn)
	}
	return fns
}

func (s *Surface) OnScroll(fn func(int)) func() {
	id := s.nextID
	s.nextID++
	s.scrollFns[id] = fn
	return func() { delete(s.scrollFns, id) }
}

func (s *Surface) OnResize(fn func()) func() {
	id := s.nextID
	s.nextID++
	s.resizeFns[id] = fn
	return func() { delete(s.resizeFns, id) }
}

func (s *Surface) Print(w io.Writer) error {
	_, err := io.WriteString(w, s.Content)
	return err
}

// Scrolls returns every offset passed to ScrollTo.
func (s *Surface) Scrolls() []int { return append([]int(nil), s.scrolls...) }

// Probes returns how many times TaggedElements was called.
func (s *Surface) Probes() int { return s.probes }

// Listeners returns the number of registered scroll and resize listeners.
func (s *Surface) Listeners() (scroll, resize int) {
	return len(s.scrollFns), len(s.resizeFns)
}

// Editor is a scriptable preview.Editor.
type Editor struct {
	Text      string
	Heights   []int
	MaxScroll int // zero means unbounded

	top      int
	scrolls  []int
	onScroll func(int)
}

// NewEditor creates an editor whose lines have the given heights.
func NewEditor(heights ...int) *Editor {
	return &Editor{Heights: heights}
}

func (e *Editor) Content() string    { return e.Text }
func (e *Editor) LineHeights() []int { return append([]int(nil), e.Heights...) }
func (e *Editor) ScrollTop() int     { return e.top }

// ScrollTo records the request, clamps it and fires the scroll callback
// synchronously when the position changes.
func (e *Editor) ScrollTo(offset int) {
	e.scrolls = append(e.scrolls, offset)
	offset = max(offset, 0)
	if e.MaxScroll > 0 {
		offset = min(offset, e.MaxScroll)
	}
	if offset == e.top {
		return
	}
	e.top = offset
	if e.onScroll != nil {
		e.onScroll(offset)
	}
}

// OnScroll sets the callback fired after every scroll.
func (e *Editor) OnScroll(fn func(int)) { e.onScroll = fn }

// UserScroll simulates the user scrolling the source to offset.
func (e *Editor) UserScroll(offset int) {
	e.top = offset
	if e.onScroll != nil {
		e.onScroll(offset)
	}
}

// Scrolls returns every offset passed to ScrollTo.
func (e *Editor) Scrolls() []int { return append([]int(nil), e.scrolls...) }

// Uniform returns n line heights of h each.
func Uniform(n, h int) []int {
	heights := make([]int, n)
	for i := range heights {
		heights[i] = h
	}
	return heights
}

var _ preview.Surface = (*Surface)(nil)
var _ preview.Editor = (*Editor)(nil)

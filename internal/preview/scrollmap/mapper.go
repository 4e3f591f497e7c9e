// Package scrollmap correlates vertical offsets in the source view with
// vertical offsets in the rendered preview.
//
// A Mapper builds a dense forward map (source offset to render offset) by
// linear interpolation between anchors taken from the tagged elements of
// the current surface, plus a sparse reverse map supporting "largest key
// not above" lookups. Both are built lazily and cached for one surface.
package scrollmap

import (
	"github.com/emirpasic/gods/maps/treemap"

	"github.com/dshills/mdview/internal/logging"
	"github.com/dshills/mdview/internal/preview"
)

// Mapper builds and caches the scroll maps for one preview surface.
// It is not safe for concurrent use; callers use it from the event loop.
type Mapper struct {
	log          *logging.Logger
	editorOffset int

	built      bool
	surfaceID  string
	anchors    []Anchor
	forward    []int
	reverse    *treemap.Map
	degenerate bool
	rebuilds   int
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Mapper) {
		m.log = l
	}
}

// WithEditorOffset sets the source view's top padding, subtracted from
// every element anchor.
func WithEditorOffset(px int) Option {
	return func(m *Mapper) {
		m.editorOffset = px
	}
}

// New creates an empty mapper.
func New(opts ...Option) *Mapper {
	m := &Mapper{}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logging.OrNop(m.log).WithComponent("scrollmap")
	return m
}

// EnsureMap builds the maps for s unless they are already cached for it.
// It returns preview.ErrNoSurface when s is nil and
// preview.ErrDegenerateMap when s has no usable tagged elements; in the
// latter case the forward map holds only the origin and the reverse map
// is empty.
func (m *Mapper) EnsureMap(heights []int, s preview.Surface) error {
	if s == nil {
		return preview.ErrNoSurface
	}
	if !m.built || m.surfaceID != s.ID() {
		m.build(heights, s)
	}
	if m.degenerate {
		return preview.ErrDegenerateMap
	}
	return nil
}

func (m *Mapper) build(heights []int, s preview.Surface) {
	offsets := LineOffsets(heights)
	elements := s.TaggedElements()

	m.anchors = BuildAnchors(offsets, elements, m.editorOffset)
	m.degenerate = !hasUsable(elements)
	if m.degenerate {
		m.forward = []int{0}
		m.reverse = treemap.NewWithIntComparator()
	} else {
		m.forward = Interpolate(m.anchors)
		m.reverse = treemap.NewWithIntComparator()
		for i, r := range m.forward {
			// Later source offsets overwrite earlier ones that round to
			// the same render offset.
			m.reverse.Put(r, i)
		}
	}

	m.built = true
	m.surfaceID = s.ID()
	m.rebuilds++
	m.log.Debug("built scroll map: surface=%s anchors=%d total=%d", s.ID(), len(m.anchors), offsets[len(offsets)-1])
}

func hasUsable(elements []preview.TaggedElement) bool {
	for _, el := range elements {
		if el.SourceLine >= 0 {
			return true
		}
	}
	return false
}

// Invalidate discards the cached maps. The next EnsureMap rebuilds them.
func (m *Mapper) Invalidate() {
	m.built = false
	m.surfaceID = ""
	m.anchors = nil
	m.forward = nil
	m.reverse = nil
	m.degenerate = false
}

// Built reports whether maps are cached.
func (m *Mapper) Built() bool {
	return m.built
}

// Degenerate reports whether the cached map has only the origin anchor.
func (m *Mapper) Degenerate() bool {
	return m.built && m.degenerate
}

// Rebuilds returns how many times the maps have been built.
func (m *Mapper) Rebuilds() int {
	return m.rebuilds
}

// Anchors returns a copy of the cached anchor set.
func (m *Mapper) Anchors() []Anchor {
	return append([]Anchor(nil), m.anchors...)
}

// Len returns the number of entries in the forward map.
func (m *Mapper) Len() int {
	return len(m.forward)
}

// Forward returns the render offset for a source offset. Offsets outside
// the map clamp to its bounds. The result is false when no map is built.
func (m *Mapper) Forward(source int) (int, bool) {
	if !m.built || len(m.forward) == 0 {
		return 0, false
	}
	source = max(0, min(source, len(m.forward)-1))
	return m.forward[source], true
}

// Reverse returns the source offset recorded for the largest render offset
// not above render, searching no lower than zero. The result is false when
// no such entry exists.
func (m *Mapper) Reverse(render int) (int, bool) {
	if !m.built || m.reverse == nil || render < 0 {
		return 0, false
	}
	k, v := m.reverse.Floor(render)
	if k == nil || k.(int) < 0 {
		return 0, false
	}
	return v.(int), true
}

// ReverseAt returns the source offset recorded for exactly render.
func (m *Mapper) ReverseAt(render int) (int, bool) {
	if !m.built || m.reverse == nil {
		return 0, false
	}
	v, ok := m.reverse.Get(render)
	if !ok {
		return 0, false
	}
	return v.(int), true
}

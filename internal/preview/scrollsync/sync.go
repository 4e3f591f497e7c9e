// Package scrollsync keeps the source and preview views scrolled to
// corresponding positions.
package scrollsync

import (
	"errors"
	"time"

	"github.com/dshills/mdview/internal/eventloop"
	"github.com/dshills/mdview/internal/logging"
	"github.com/dshills/mdview/internal/preview"
	"github.com/dshills/mdview/internal/preview/scrollmap"
)

// DefaultInterval is the minimum spacing between two syncs in the same
// direction.
const DefaultInterval = 30 * time.Millisecond

// Stats counts synchronizer activity.
type Stats struct {
	ToPreview  int // preview scrolls issued
	ToSource   int // source scrolls issued
	Suppressed int // scroll events recognized as our own
}

// expectation remembers the position a programmatic scroll left a view at,
// so the event it produces can be told apart from a user scroll.
type expectation struct {
	set bool
	top int
}

func (e *expectation) arm(top int) {
	e.set, e.top = true, top
}

// consume clears the expectation and reports whether top matches it.
func (e *expectation) consume(top int) bool {
	if !e.set {
		return false
	}
	e.set = false
	return e.top == top
}

// Synchronizer translates scroll positions between the source editor and
// the current preview surface. All methods must be called from the event
// loop.
type Synchronizer struct {
	mapper  *scrollmap.Mapper
	editor  preview.Editor
	surface preview.Surface
	log     *logging.Logger

	clock    eventloop.Clock
	interval time.Duration

	toPreview *Throttle[int]
	toSource  *Throttle[int]

	// syncing is set while we scroll a view ourselves; scroll events the
	// view delivers synchronously during that window are dropped.
	syncing   bool
	delivered bool

	expectPreview expectation
	expectSource  expectation

	stats Stats
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock sets the clock driving the throttles. The clock must run its
// tasks on the event loop. Without a clock syncs are not throttled.
func WithClock(c eventloop.Clock) Option {
	return func(s *Synchronizer) {
		s.clock = c
	}
}

// WithInterval sets the throttle interval. Zero disables throttling.
func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		s.interval = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Synchronizer) {
		s.log = l
	}
}

// New creates a synchronizer for editor using mapper.
func New(mapper *scrollmap.Mapper, editor preview.Editor, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		mapper:   mapper,
		editor:   editor,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		// Without a loop clock trailing calls would run off the loop.
		s.interval = 0
	}
	s.log = logging.OrNop(s.log).WithComponent("scrollsync")
	s.toPreview = NewThrottle(s.clock, s.interval, s.scrollPreview)
	s.toSource = NewThrottle(s.clock, s.interval, s.scrollSource)
	return s
}

// SetSurface switches to a newly installed surface. Pending syncs are kept
// and will target the new surface.
func (s *Synchronizer) SetSurface(surface preview.Surface) {
	s.surface = surface
	s.expectPreview = expectation{}
}

// Surface returns the surface currently synchronized.
func (s *Synchronizer) Surface() preview.Surface {
	return s.surface
}

// SyncPreviewToSource handles a scroll of the source view to sourceTop by
// scrolling the preview to the matching position.
func (s *Synchronizer) SyncPreviewToSource(sourceTop int) {
	if s.syncing {
		s.delivered = true
		return
	}
	if s.expectSource.consume(sourceTop) {
		s.stats.Suppressed++
		return
	}
	s.toPreview.Call(sourceTop)
}

// SyncSourceToPreview handles a scroll of the preview to previewTop by
// scrolling the source view to the matching position.
func (s *Synchronizer) SyncSourceToPreview(previewTop int) {
	if s.syncing {
		s.delivered = true
		return
	}
	if s.expectPreview.consume(previewTop) {
		s.stats.Suppressed++
		return
	}
	s.toSource.Call(previewTop)
}

// Resize drops the current maps. They are rebuilt on the next sync.
func (s *Synchronizer) Resize() {
	s.mapper.Invalidate()
}

// Close drops any pending throttled syncs.
func (s *Synchronizer) Close() {
	s.toPreview.Cancel()
	s.toSource.Cancel()
}

// Stats returns activity counters.
func (s *Synchronizer) Stats() Stats {
	return s.stats
}

func (s *Synchronizer) ensureMap() bool {
	if s.surface == nil {
		return false
	}
	err := s.mapper.EnsureMap(s.editor.LineHeights(), s.surface)
	switch {
	case err == nil, errors.Is(err, preview.ErrDegenerateMap):
		return true
	default:
		s.log.Debug("map unavailable: %v", err)
		return false
	}
}

func (s *Synchronizer) scrollPreview(sourceTop int) {
	if !s.ensureMap() {
		return
	}
	target, ok := s.mapper.Forward(sourceTop)
	if !ok {
		return
	}
	surface := s.surface
	if s.programmatic(surface.ScrollTop, func() { surface.ScrollTo(target) }, &s.expectPreview) {
		s.stats.ToPreview++
	}
}

func (s *Synchronizer) scrollSource(previewTop int) {
	if !s.ensureMap() {
		return
	}
	target, ok := s.mapper.Reverse(previewTop)
	if !ok {
		return
	}
	if s.programmatic(s.editor.ScrollTop, func() { s.editor.ScrollTo(target) }, &s.expectSource) {
		s.stats.ToSource++
	}
}

// programmatic runs scroll under the reentrancy guard. If the view moved
// but did not report it synchronously, the next event from that view is
// expected to be ours and exp is armed with the new position.
func (s *Synchronizer) programmatic(top func() int, scroll func(), exp *expectation) bool {
	before := top()
	s.syncing, s.delivered = true, false
	scroll()
	s.syncing = false

	after := top()
	if after == before {
		return false
	}
	if !s.delivered {
		exp.arm(after)
	}
	return true
}

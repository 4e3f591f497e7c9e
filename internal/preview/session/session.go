// Package session wires the render scheduler, position mapper and scroll
// synchronizer for one open document.
package session

import (
	"io"
	"time"

	"github.com/dshills/mdview/internal/eventloop"
	"github.com/dshills/mdview/internal/logging"
	"github.com/dshills/mdview/internal/preview"
	"github.com/dshills/mdview/internal/preview/scheduler"
	"github.com/dshills/mdview/internal/preview/scrollmap"
	"github.com/dshills/mdview/internal/preview/scrollsync"
)

// Session keeps a rendered preview in step with an editor.
// All methods must be called from the event loop.
type Session struct {
	editor preview.Editor
	log    *logging.Logger

	sched  *scheduler.Scheduler
	mapper *scrollmap.Mapper
	sync   *scrollsync.Synchronizer

	mode    preview.LayoutMode
	surface preview.Surface
	release []func()
	closed  bool

	onInstall func(preview.Surface)
	onError   func(error)

	// construction-only settings
	clock        eventloop.Clock
	interval     time.Duration
	editorOffset int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger shared by every component of the session.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// WithClock sets the clock used to throttle scroll syncs.
func WithClock(c eventloop.Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithThrottle sets the scroll sync interval.
func WithThrottle(d time.Duration) Option {
	return func(s *Session) {
		s.interval = d
	}
}

// WithEditorOffset sets the source view's top padding in pixels.
func WithEditorOffset(px int) Option {
	return func(s *Session) {
		s.editorOffset = px
	}
}

// WithMode sets the initial layout mode.
func WithMode(mode preview.LayoutMode) Option {
	return func(s *Session) {
		s.mode = mode
	}
}

// WithInstallHook registers fn to run after each new surface is installed.
func WithInstallHook(fn func(preview.Surface)) Option {
	return func(s *Session) {
		s.onInstall = fn
	}
}

// WithErrorHandler registers fn to receive render failures.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Session) {
		s.onError = fn
	}
}

// New creates a session for editor. Renders are started with render and
// complete on loop.
func New(loop eventloop.Poster, editor preview.Editor, render scheduler.RenderFunc, opts ...Option) *Session {
	s := &Session{
		editor:   editor,
		interval: scrollsync.DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrNop(s.log)

	s.mapper = scrollmap.New(
		scrollmap.WithLogger(s.log),
		scrollmap.WithEditorOffset(s.editorOffset),
	)
	s.sync = scrollsync.New(s.mapper, editor,
		scrollsync.WithClock(s.clock),
		scrollsync.WithInterval(s.interval),
		scrollsync.WithLogger(s.log),
	)
	s.sched = scheduler.New(loop, render, s.install,
		scheduler.WithLogger(s.log),
		scheduler.WithErrorHandler(s.renderFailed),
	)
	return s
}

// ContentChanged schedules a render of the editor's current content.
func (s *Session) ContentChanged() {
	s.RequestRender(s.editor.Content(), s.mode)
}

// RequestRender schedules a render of content in mode.
func (s *Session) RequestRender(content string, mode preview.LayoutMode) {
	if s.closed {
		return
	}
	s.sched.RequestRender(content, mode)
}

// SetLayoutMode switches the layout mode and re-renders if it changed.
func (s *Session) SetLayoutMode(mode preview.LayoutMode) {
	if mode == s.mode {
		return
	}
	s.mode = mode
	s.ContentChanged()
}

// Mode returns the layout mode used for new renders.
func (s *Session) Mode() preview.LayoutMode {
	return s.mode
}

// SourceScrolled reports that the source view scrolled to top.
func (s *Session) SourceScrolled(top int) {
	if s.closed {
		return
	}
	s.sync.SyncPreviewToSource(top)
}

// PreviewScrolled reports that the preview scrolled to top.
func (s *Session) PreviewScrolled(top int) {
	if s.closed {
		return
	}
	s.sync.SyncSourceToPreview(top)
}

// Resize reports that the preview viewport changed size.
func (s *Session) Resize() {
	s.sync.Resize()
}

// Surface returns the installed surface, or nil before the first
// successful render.
func (s *Session) Surface() preview.Surface {
	return s.surface
}

// Print writes the installed surface to w. It does nothing when no
// surface has been installed yet.
func (s *Session) Print(w io.Writer) error {
	if s.surface == nil {
		return nil
	}
	return s.surface.Print(w)
}

// Scheduler returns the session's render scheduler.
func (s *Session) Scheduler() *scheduler.Scheduler {
	return s.sched
}

// Mapper returns the session's position mapper.
func (s *Session) Mapper() *scrollmap.Mapper {
	return s.mapper
}

// SyncStats returns scroll synchronizer counters.
func (s *Session) SyncStats() scrollsync.Stats {
	return s.sync.Stats()
}

// Close detaches from the installed surface and drops pending syncs.
// Renders still in flight complete but are not installed.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.unwatch()
	s.sync.Close()
}

func (s *Session) install(surface preview.Surface, req preview.RenderRequest) {
	if s.closed {
		return
	}
	s.unwatch()

	s.surface = surface
	s.mapper.Invalidate()
	s.sync.SetSurface(surface)
	s.release = append(s.release,
		surface.OnScroll(s.PreviewScrolled),
		surface.OnResize(s.Resize),
	)
	s.log.Debug("installed surface %s (%s)", surface.ID(), req.Mode)

	if s.onInstall != nil {
		s.onInstall(surface)
	}
}

func (s *Session) unwatch() {
	for _, fn := range s.release {
		if fn != nil {
			fn()
		}
	}
	s.release = s.release[:0]
}

func (s *Session) renderFailed(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

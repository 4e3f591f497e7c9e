// Package scheduler coalesces content-change notifications into a
// well-ordered sequence of renders with at most one in flight.
//
// The scheduler is a three-state machine:
//
//	Idle                 --request-->   Rendering (start)
//	Rendering            --request-->   RenderingWithPending (store)
//	RenderingWithPending --request-->   RenderingWithPending (overwrite)
//	Rendering            --complete-->  Idle
//	RenderingWithPending --complete-->  Rendering (start pending)
//
// Completion, successful or not, always advances the machine, so a failed
// render never strands later edits.
package scheduler

import (
	"sync"

	"github.com/dshills/mdview/internal/eventloop"
	"github.com/dshills/mdview/internal/logging"
	"github.com/dshills/mdview/internal/preview"
)

// State is the scheduler's render state.
type State int

const (
	// Idle means no render is in flight.
	Idle State = iota
	// Rendering means one render is in flight and nothing is pending.
	Rendering
	// RenderingWithPending means one render is in flight and a newer
	// request is waiting for it to finish.
	RenderingWithPending
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	case RenderingWithPending:
		return "rendering-with-pending"
	default:
		return "unknown"
	}
}

// DoneFunc reports the outcome of a render. It may be called from any
// goroutine; calls after the first are ignored.
type DoneFunc func(s preview.Surface, err error)

// RenderFunc starts rendering req and returns without waiting.
// It must eventually call done exactly once.
type RenderFunc func(req preview.RenderRequest, done DoneFunc)

// InstallFunc receives each successfully rendered surface, on the loop.
type InstallFunc func(s preview.Surface, req preview.RenderRequest)

// Scheduler guarantees single-flight rendering with last-write-wins
// coalescing of requests that arrive while a render is in flight.
// RequestRender must be called from the event loop that loop posts to.
type Scheduler struct {
	loop    eventloop.Poster
	render  RenderFunc
	install InstallFunc
	onError func(error)
	log     *logging.Logger

	state   State
	pending preview.RenderRequest
	seq     uint64 // sequence of the in-flight render
	renders uint64
	failed  uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) {
		s.log = l
	}
}

// WithErrorHandler sets a hook that receives every render failure as a
// *preview.RenderError.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// New creates an idle scheduler. Completions are posted to loop.
func New(loop eventloop.Poster, render RenderFunc, install InstallFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		loop:    loop,
		render:  render,
		install: install,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrNop(s.log).WithComponent("scheduler")
	return s
}

// RequestRender asks for content to be rendered in mode. It never blocks.
func (s *Scheduler) RequestRender(content string, mode preview.LayoutMode) {
	req := preview.RenderRequest{Content: content, Mode: mode}
	switch s.state {
	case Idle:
		s.start(req)
	default:
		s.pending = req
		s.state = RenderingWithPending
	}
}

func (s *Scheduler) start(req preview.RenderRequest) {
	s.state = Rendering
	s.renders++
	s.seq++
	seq := s.seq
	s.log.Debug("render #%d started: mode=%s bytes=%d", seq, req.Mode, len(req.Content))

	var once sync.Once
	s.render(req, func(surf preview.Surface, err error) {
		once.Do(func() {
			s.loop.Post(func() {
				s.complete(seq, req, surf, err)
			})
		})
	})
}

func (s *Scheduler) complete(seq uint64, req preview.RenderRequest, surf preview.Surface, err error) {
	if seq != s.seq || s.state == Idle {
		return
	}

	switch {
	case err != nil:
		s.fail(seq, req, err)
	case surf == nil:
		s.fail(seq, req, preview.ErrNoSurface)
	default:
		s.log.Debug("render #%d complete: surface=%s", seq, surf.ID())
		if s.install != nil {
			s.install(surf, req)
		}
	}

	if s.state == RenderingWithPending {
		next := s.pending
		s.pending = preview.RenderRequest{}
		s.start(next)
		return
	}
	s.state = Idle
}

func (s *Scheduler) fail(seq uint64, req preview.RenderRequest, err error) {
	s.failed++
	rerr := &preview.RenderError{Seq: seq, Mode: req.Mode, Err: err}
	s.log.Warn("renderer crashed: %v", rerr)
	if s.onError != nil {
		s.onError(rerr)
	}
}

// State returns the current state.
func (s *Scheduler) State() State {
	return s.state
}

// InFlight reports whether a render is in flight.
func (s *Scheduler) InFlight() bool {
	return s.state != Idle
}

// Pending returns the request waiting behind the in-flight render.
func (s *Scheduler) Pending() (preview.RenderRequest, bool) {
	if s.state != RenderingWithPending {
		return preview.RenderRequest{}, false
	}
	return s.pending, true
}

// Renders returns how many renders have been started.
func (s *Scheduler) Renders() uint64 {
	return s.renders
}

// Failures returns how many renders have failed.
func (s *Scheduler) Failures() uint64 {
	return s.failed
}

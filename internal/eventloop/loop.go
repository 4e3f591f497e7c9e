// Package eventloop provides a single-threaded cooperative event loop.
//
// Every task posted to a Loop runs on the goroutine that called Run, one at
// a time and in the order posted. Work that may block (rendering, file I/O)
// runs elsewhere and posts its result back to the loop, so state owned by
// loop tasks never needs locking.
package eventloop

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/mdview/internal/logging"
)

// Poster schedules a function to run on an event loop.
type Poster interface {
	// Post queues fn. It returns false if the loop no longer accepts tasks.
	Post(fn func()) bool
}

// PosterFunc adapts a function to the Poster interface.
type PosterFunc func(fn func()) bool

// Post calls f(fn).
func (f PosterFunc) Post(fn func()) bool {
	return f(fn)
}

// Inline is a Poster that runs every task immediately on the caller's
// goroutine.
var Inline Poster = PosterFunc(func(fn func()) bool {
	fn()
	return true
})

// Timer is a pending delayed task.
type Timer interface {
	// Stop prevents the task from running. It returns false if the task
	// already ran or was stopped.
	Stop() bool
}

// Clock provides the current time and delayed tasks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop is a single-threaded task queue. Post and Stop are safe to call
// from any goroutine; tasks run on the goroutine running Run.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	processed atomic.Uint64
	panics    atomic.Uint64

	log *logging.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used to report task panics.
func WithLogger(l *logging.Logger) Option {
	return func(lp *Loop) {
		lp.log = l
	}
}

// New creates a stopped loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = logging.OrNop(l.log).WithComponent("eventloop")
	return l
}

// Post queues fn to run on the loop.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
	}

	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run processes tasks until Stop is called or ctx is done.
// It returns ErrAlreadyRunning if another Run is active.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	for {
		l.RunPending()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// RunPending runs every queued task, including tasks queued by those
// tasks, without blocking. It returns the number of tasks run.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			l.runTask(fn)
			n++
		}
	}
}

func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.log.Error("task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
	l.processed.Add(1)
}

// Stop stops the loop. Queued tasks that have not run are discarded.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Now returns the current time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// AfterFunc runs fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() {
		l.Post(fn)
	})
}

// Stats reports how many tasks completed and how many panicked.
func (l *Loop) Stats() (processed, panics uint64) {
	return l.processed.Load(), l.panics.Load()
}

var (
	_ Poster = (*Loop)(nil)
	_ Clock  = (*Loop)(nil)
)

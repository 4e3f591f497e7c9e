package scrollsync

import (
	"time"

	"github.com/dshills/mdview/internal/eventloop"
)

// Throttle limits calls to fn to at most one per interval.
//
// A call arriving when the gate is open runs immediately. Calls arriving
// while it is closed are coalesced: only the latest argument is kept and it
// runs once the interval has elapsed. Delayed calls run through the clock,
// so with a loop clock they run on the loop.
type Throttle[T any] struct {
	clock    eventloop.Clock
	interval time.Duration
	fn       func(T)

	last    time.Time
	called  bool
	timer   eventloop.Timer
	pending bool
	arg     T
}

// NewThrottle creates a throttle around fn. A non-positive interval
// disables throttling.
func NewThrottle[T any](clock eventloop.Clock, interval time.Duration, fn func(T)) *Throttle[T] {
	return &Throttle[T]{clock: clock, interval: interval, fn: fn}
}

// Call invokes fn now or schedules it for the end of the current interval.
func (t *Throttle[T]) Call(v T) {
	if t.interval <= 0 {
		t.fn(v)
		return
	}

	now := t.clock.Now()
	if t.timer == nil && (!t.called || now.Sub(t.last) >= t.interval) {
		t.invoke(now, v)
		return
	}

	t.arg = v
	t.pending = true
	if t.timer == nil {
		wait := max(t.interval-now.Sub(t.last), 0)
		t.timer = t.clock.AfterFunc(wait, t.trailing)
	}
}

func (t *Throttle[T]) trailing() {
	t.timer = nil
	if !t.pending {
		return
	}
	t.pending = false
	t.invoke(t.clock.Now(), t.arg)
}

func (t *Throttle[T]) invoke(now time.Time, v T) {
	t.last = now
	t.called = true
	t.fn(v)
}

// Pending reports whether a coalesced call is waiting.
func (t *Throttle[T]) Pending() bool {
	return t.pending
}

// Cancel drops any waiting call.
func (t *Throttle[T]) Cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pending = false
	var zero T
	t.arg = zero
}

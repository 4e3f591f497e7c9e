package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks application performance metrics.
// Render timings are recorded from render goroutines; everything else
// from the event loop.
type Metrics struct {
	// Frame timing
	frameCount   atomic.Uint64
	frameTotalNs atomic.Int64
	frameMaxNs   atomic.Int64
	lastFrameNs  atomic.Int64

	// Input handling
	inputCount atomic.Uint64

	// Render timing
	renderCount    atomic.Uint64
	renderFailures atomic.Uint64
	renderTotalNs  atomic.Int64
	lastRenderNs   atomic.Int64

	// Document reloads
	reloads atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordFrame records the time taken to draw one frame.
func (m *Metrics) RecordFrame(duration time.Duration) {
	ns := duration.Nanoseconds()

	m.frameCount.Add(1)
	m.frameTotalNs.Add(ns)
	m.lastFrameNs.Store(ns)

	for {
		old := m.frameMaxNs.Load()
		if ns <= old || m.frameMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordInput records one handled input event.
func (m *Metrics) RecordInput() {
	m.inputCount.Add(1)
}

// RecordRender records render timing.
func (m *Metrics) RecordRender(duration time.Duration, err error) {
	m.renderCount.Add(1)
	m.renderTotalNs.Add(duration.Nanoseconds())
	m.lastRenderNs.Store(duration.Nanoseconds())
	if err != nil {
		m.renderFailures.Add(1)
	}
}

// RecordReload records a document reload.
func (m *Metrics) RecordReload() {
	m.reloads.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	frameCount := m.frameCount.Load()
	renderCount := m.renderCount.Load()

	var avgFrameNs int64
	if frameCount > 0 {
		avgFrameNs = m.frameTotalNs.Load() / int64(frameCount)
	}

	var avgRenderNs int64
	if renderCount > 0 {
		avgRenderNs = m.renderTotalNs.Load() / int64(renderCount)
	}

	return MetricsSnapshot{
		Uptime:         time.Since(m.startTime),
		FrameCount:     frameCount,
		AvgFrameTimeNs: avgFrameNs,
		MaxFrameTimeNs: m.frameMaxNs.Load(),
		LastFrameNs:    m.lastFrameNs.Load(),
		InputCount:     m.inputCount.Load(),
		RenderCount:    renderCount,
		RenderFailures: m.renderFailures.Load(),
		AvgRenderNs:    avgRenderNs,
		LastRenderNs:   m.lastRenderNs.Load(),
		Reloads:        m.reloads.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime         time.Duration
	FrameCount     uint64
	AvgFrameTimeNs int64
	MaxFrameTimeNs int64
	LastFrameNs    int64
	InputCount     uint64
	RenderCount    uint64
	RenderFailures uint64
	AvgRenderNs    int64
	LastRenderNs   int64
	Reloads        uint64
}

// LastRender returns the duration of the most recent render.
func (s MetricsSnapshot) LastRender() time.Duration {
	return time.Duration(s.LastRenderNs)
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunPendingPreservesOrder(t *testing.T) {
	l := New()
	var got []int
	for i := 0; i < 5; i++ {
		require.True(t, l.Post(func() { got = append(got, i) }))
	}

	assert.Equal(t, 5, l.RunPending())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Equal(t, 0, l.RunPending())
}

func TestLoop_TasksPostedByTasksRunInSameDrain(t *testing.T) {
	l := New()
	var got []string
	l.Post(func() {
		got = append(got, "outer")
		l.Post(func() { got = append(got, "inner") })
	})

	assert.Equal(t, 2, l.RunPending())
	assert.Equal(t, []string{"outer", "inner"}, got)
}

func TestLoop_RunAndStop(t *testing.T) {
	l := New()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background()) }()

	var wg sync.WaitGroup
	var mu sync.Mutex
	count := 0
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				l.Post(func() {
					mu.Lock()
					count++
					mu.Unlock()
				})
			}
		}()
	}
	wg.Wait()

	ran := make(chan struct{})
	l.Post(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not drain")
	}

	l.Stop()
	require.NoError(t, <-errCh)
	assert.Equal(t, 100, count)
	assert.False(t, l.Post(func() {}))
	assert.True(t, l.Stopped())
}

func TestLoop_RunHonorsContext(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
}

func TestLoop_RecoversPanics(t *testing.T) {
	l := New()
	ran := false
	l.Post(func() { panic("boom") })
	l.Post(func() { ran = true })

	assert.Equal(t, 2, l.RunPending())
	assert.True(t, ran)
	processed, panics := l.Stats()
	assert.Equal(t, uint64(1), processed)
	assert.Equal(t, uint64(1), panics)
}

func TestLoop_AfterFuncRunsOnLoop(t *testing.T) {
	l := New()
	fired := make(chan struct{})
	go func() { _ = l.Run(context.Background()) }()
	defer l.Stop()

	l.AfterFunc(5*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLoop_AfterFuncStop(t *testing.T) {
	l := New()
	tm := l.AfterFunc(time.Hour, func() {})
	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
}

func TestInline(t *testing.T) {
	ran := false
	assert.True(t, Inline.Post(func() { ran = true }))
	assert.True(t, ran)
}

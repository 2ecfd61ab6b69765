package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsPostedWorkInOrder(t *testing.T) {
	loop := NewLoop(nil)
	loop.Start()
	defer loop.Close()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		i := i
		loop.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 49 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("posted work did not run")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoopCallbacksNeverOverlap(t *testing.T) {
	loop := NewLoop(nil)
	loop.Start()
	defer loop.Close()

	var inFlight, maxInFlight atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		loop.AfterFunc(time.Millisecond, func() {
			defer wg.Done()
			n := inFlight.Add(1)
			if n > maxInFlight.Load() {
				maxInFlight.Store(n)
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		})
	}

	wg.Wait()
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestLoopTimerStoppedOnLoopNeverFires(t *testing.T) {
	loop := NewLoop(nil)
	loop.Start()
	defer loop.Close()

	var fired atomic.Bool
	done := make(chan struct{})

	loop.Post(func() {
		timer := loop.AfterFunc(time.Millisecond, func() { fired.Store(true) })
		// Hold the loop past the deadline so the fire is queued behind us,
		// then cancel it from the loop.
		time.Sleep(20 * time.Millisecond)
		assert.True(t, timer.Stop())
	})
	loop.AfterFunc(60*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sentinel timer did not fire")
	}
	assert.False(t, fired.Load())
}

func TestLoopCloseDropsLaterPosts(t *testing.T) {
	loop := NewLoop(nil)
	loop.Start()
	loop.Close()

	var ran atomic.Bool
	loop.Post(func() { ran.Store(true) })
	time.Sleep(10 * time.Millisecond)
	assert.False(t, ran.Load())

	select {
	case <-loop.Done():
	default:
		t.Fatal("Done must be closed after Close")
	}
}

func TestLoopCloseWithoutStart(t *testing.T) {
	loop := NewLoop(nil)
	loop.Close()
	loop.Start()

	select {
	case <-loop.Done():
	case <-time.After(time.Second):
		t.Fatal("Done must be closed after Close")
	}
}

func TestLoopRunStopsOnContext(t *testing.T) {
	loop := NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())

	exited := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(exited)
	}()

	cancel()
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoopRecoversFromPanickingCallback(t *testing.T) {
	loop := NewLoop(nil)
	loop.Start()
	defer loop.Close()

	done := make(chan struct{})
	loop.Post(func() { panic("boom") })
	loop.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop died after a panicking callback")
	}
}

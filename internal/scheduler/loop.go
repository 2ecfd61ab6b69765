package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Loop is a Scheduler backed by a single goroutine. Real timers post their
// fires onto the loop, so timer callbacks and posted work never overlap.
type Loop struct {
	logger *zap.Logger

	mu      sync.Mutex
	pending []func()
	closed  bool

	wake     chan struct{}
	stopChan chan struct{}
	doneChan chan struct{}
	running  atomic.Bool
	stopOnce sync.Once
}

// NewLoop creates a loop. It does nothing until Start or Run is called.
func NewLoop(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		logger:   logger,
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Now returns the wall clock time
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post queues fn to run on the loop goroutine. Posts after Close are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc schedules fn to run on the loop after d
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			// The stop flag is checked on the loop itself, which closes the
			// window between a fire being queued and Stop being called.
			if lt.stopped.Swap(true) {
				return
			}
			fn()
		})
	})
	return lt
}

// Start runs the loop on its own goroutine
func (l *Loop) Start() {
	if l.running.CompareAndSwap(false, true) {
		go l.run(context.Background())
	}
}

// Run runs the loop on the calling goroutine until ctx is cancelled or Close
// is called
func (l *Loop) Run(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	l.run(ctx)
}

// Close stops the loop and waits for the callback in progress to finish.
// Queued work that has not started is discarded. Close must not be called
// from a loop callback.
func (l *Loop) Close() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.pending = nil
		l.mu.Unlock()

		close(l.stopChan)
		if l.running.CompareAndSwap(false, true) {
			// Never started; claim it so a later Start is a no-op.
			close(l.doneChan)
			return
		}
		<-l.doneChan
	})
}

// Done is closed once the loop goroutine has exited
func (l *Loop) Done() <-chan struct{} {
	return l.doneChan
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.doneChan)

	for {
		select {
		case <-ctx.Done():
			l.markClosed()
			return
		case <-l.stopChan:
			return
		case <-l.wake:
		}

		for {
			batch := l.drain()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				select {
				case <-l.stopChan:
					return
				default:
				}
				l.invoke(fn)
			}
		}
	}
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.pending
	l.pending = nil
	return batch
}

func (l *Loop) markClosed() {
	l.mu.Lock()
	l.closed = true
	l.pending = nil
	l.mu.Unlock()
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("scheduler callback panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	wasPending := !t.stopped.Swap(true)
	t.timer.Stop()
	return wasPending
}

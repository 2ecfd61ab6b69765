package scheduler

import (
	"container/heap"
	"time"
)

// Manual is a Scheduler driven by a virtual clock. Nothing happens until
// Advance or Flush is called, which makes timer-heavy code deterministic in
// tests and replays. It is meant for a single goroutine.
type Manual struct {
	now    time.Time
	seq    uint64
	timers timerHeap
	posted []func()
}

// NewManual creates a virtual clock starting at start
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time
func (m *Manual) Now() time.Time {
	return m.now
}

// AfterFunc arms fn to fire once the virtual clock reaches now+d
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, fn: fn}
	heap.Push(&m.timers, t)
	return t
}

// Post queues fn for the next Flush or Advance
func (m *Manual) Post(fn func()) {
	m.posted = append(m.posted, fn)
}

// Flush runs posted work, including work posted while flushing
func (m *Manual) Flush() {
	for len(m.posted) > 0 {
		fn := m.posted[0]
		m.posted = m.posted[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// Timers armed at the same deadline fire in the order they were armed. The
// clock reads each timer's deadline while its callback runs.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	m.Flush()

	for len(m.timers) > 0 {
		next := m.timers[0]
		if next.at.After(target) {
			break
		}
		heap.Pop(&m.timers)
		if next.stopped {
			continue
		}
		if next.at.After(m.now) {
			m.now = next.at
		}
		next.stopped = true
		next.fn()
		m.Flush()
	}

	if target.After(m.now) {
		m.now = target
	}
}

// Pending returns the number of armed timers that have not fired or been stopped
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type manualTimer struct {
	at      time.Time
	seq     uint64
	fn      func()
	stopped bool
	index   int
}

func (t *manualTimer) Stop() bool {
	wasPending := !t.stopped
	t.stopped = true
	return wasPending
}

type timerHeap []*manualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*manualTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

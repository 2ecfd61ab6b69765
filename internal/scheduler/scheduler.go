// Package scheduler provides the single cooperative execution context the
// reward engine runs on. Every callback handed to a Scheduler runs to
// completion before the next one starts, so code driven by it needs no locks.
package scheduler

import "time"

// Scheduler dispatches timer fires and posted work one callback at a time
type Scheduler interface {
	// Now returns the scheduler's notion of the current time
	Now() time.Time
	// AfterFunc runs fn on the scheduler once d has elapsed
	AfterFunc(d time.Duration, fn func()) Timer
	// Post queues fn to run on the scheduler. Safe to call from any goroutine
	// for schedulers that say so.
	Post(fn func())
}

// Timer is a pending AfterFunc callback
type Timer interface {
	// Stop cancels the timer. Once Stop returns on the scheduler's own
	// context, the callback is guaranteed not to run, even if its fire was
	// already queued. Reports whether the timer was still pending.
	Stop() bool
}

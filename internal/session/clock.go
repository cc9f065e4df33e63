package session

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock time and timer creation so the debounce
// window and drain pacing can be driven by a manual clock in tests
// instead of real waits.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is a cancellable, resettable timer. Semantics mirror [time.Timer]:
// Reset on an expired-and-drained timer re-arms it.
type Timer interface {
	// C returns the channel the timer fires on.
	C() <-chan time.Time

	// Stop prevents the timer from firing. It reports whether the timer
	// was still armed.
	Stop() bool

	// Reset re-arms the timer to fire after d. It reports whether the
	// timer was still armed when Reset was called.
	Reset(d time.Duration) bool
}

// realClock implements [Clock] over the time package.
type realClock struct{}

// RealClock returns the wall-clock [Clock] used in production.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) Timer {
	return &realTimer{t: time.NewTimer(d)}
}

type realTimer struct{ t *time.Timer }

func (rt *realTimer) C() <-chan time.Time        { return rt.t.C }
func (rt *realTimer) Stop() bool                 { return rt.t.Stop() }
func (rt *realTimer) Reset(d time.Duration) bool { return rt.t.Reset(d) }

// ManualClock is a deterministic [Clock] advanced explicitly by the test.
// Timers fire synchronously inside [ManualClock.Advance] once their
// deadline is reached. Intended for testing.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

// NewManualClock creates a manual clock starting at now.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTimer creates a timer firing d after the clock's current time.
func (c *ManualClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{
		clock:    c,
		deadline: c.now.Add(d),
		armed:    true,
		ch:       make(chan time.Time, 1),
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d and fires every armed timer whose
// deadline has been reached, in registration order.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due []*manualTimer
	for _, t := range c.timers {
		if t.armed && !t.deadline.After(now) {
			t.armed = false
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		select {
		case t.ch <- now:
		default:
		}
	}
}

type manualTimer struct {
	clock    *ManualClock
	deadline time.Time
	armed    bool
	ch       chan time.Time
}

func (t *manualTimer) C() <-chan time.Time { return t.ch }

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.armed
	t.armed = false
	return was
}

func (t *manualTimer) Reset(d time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.armed
	t.deadline = t.clock.now.Add(d)
	t.armed = true
	// Drain a pending fire so a Reset after expiry behaves like a fresh timer.
	select {
	case <-t.ch:
	default:
	}
	return was
}

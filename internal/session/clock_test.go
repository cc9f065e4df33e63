package session

import (
	"testing"
	"time"
)

func TestManualClock_AdvanceFiresDueTimers(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	timer := c.NewTimer(time.Second)

	c.Advance(500 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("timer fired before its deadline")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case <-timer.C():
	default:
		t.Fatal("timer did not fire at its deadline")
	}
}

func TestManualClock_StopPreventsFire(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	timer := c.NewTimer(time.Second)

	if !timer.Stop() {
		t.Error("Stop on armed timer should report true")
	}
	c.Advance(2 * time.Second)
	select {
	case <-timer.C():
		t.Error("stopped timer fired")
	default:
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
}

func TestManualClock_ResetExtendsDeadline(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	timer := c.NewTimer(time.Second)

	c.Advance(900 * time.Millisecond)
	timer.Reset(time.Second)

	c.Advance(900 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("reset timer fired on the old deadline")
	default:
	}

	c.Advance(100 * time.Millisecond)
	select {
	case <-timer.C():
	default:
		t.Fatal("reset timer did not fire on the new deadline")
	}
}

func TestManualClock_ResetAfterExpiryDrainsPendingFire(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	timer := c.NewTimer(time.Second)
	c.Advance(time.Second)

	// The fire is pending but unread; Reset must clear it so the timer
	// behaves like a fresh one.
	timer.Reset(time.Second)
	select {
	case <-timer.C():
		t.Fatal("stale fire survived Reset")
	default:
	}

	c.Advance(time.Second)
	select {
	case <-timer.C():
	default:
		t.Fatal("re-armed timer did not fire")
	}
}

func TestManualClock_Now(t *testing.T) {
	start := time.Unix(100, 0)
	c := NewManualClock(start)
	c.Advance(time.Minute)
	if got := c.Now(); !got.Equal(start.Add(time.Minute)) {
		t.Errorf("Now = %v, want %v", got, start.Add(time.Minute))
	}
}

func TestRealClock_TimerFires(t *testing.T) {
	timer := RealClock().NewTimer(5 * time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}

package resilience

import (
	"testing"
	"time"
)

func TestDeadlineClock_RemainingDecreases(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewDeadlineClockAt(5*time.Second, func() time.Time { return now })

	if got := clock.Remaining(); got != 5*time.Second {
		t.Fatalf("expected 5s remaining, got %v", got)
	}

	now = now.Add(2 * time.Second)
	if got := clock.Elapsed(); got != 2*time.Second {
		t.Errorf("expected 2s elapsed, got %v", got)
	}
	if got := clock.Remaining(); got != 3*time.Second {
		t.Errorf("expected 3s remaining, got %v", got)
	}
	if clock.Expired() {
		t.Error("clock should not be expired yet")
	}
}

func TestDeadlineClock_NeverNegative(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewDeadlineClockAt(time.Second, func() time.Time { return now })

	now = now.Add(10 * time.Second)
	if got := clock.Remaining(); got != 0 {
		t.Errorf("expected 0 remaining, got %v", got)
	}
	if !clock.Expired() {
		t.Error("clock should be expired")
	}
}

func TestDeadlineClock_Clamp(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewDeadlineClockAt(4*time.Second, func() time.Time { return now })

	if got := clock.Clamp(10 * time.Second); got != 4*time.Second {
		t.Errorf("expected clamp to 4s, got %v", got)
	}
	if got := clock.Clamp(time.Second); got != time.Second {
		t.Errorf("expected 1s unchanged, got %v", got)
	}
}

func TestDeadlineClock_ZeroBudgetExpiredImmediately(t *testing.T) {
	clock := NewDeadlineClock(0)
	if !clock.Expired() {
		t.Error("zero budget should be expired on creation")
	}
	if clock.MaxWait() != 0 {
		t.Errorf("expected MaxWait 0, got %v", clock.MaxWait())
	}
}

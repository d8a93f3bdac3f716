package resilience

import "time"

// DeadlineClock tracks the wall-clock budget of one logical operation. It is
// created at the start of an invocation and must not be shared between
// invocations.
type DeadlineClock struct {
	start   time.Time
	maxWait time.Duration

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewDeadlineClock starts a clock with the given budget.
func NewDeadlineClock(maxWait time.Duration) *DeadlineClock {
	return newDeadlineClock(maxWait, time.Now)
}

func newDeadlineClock(maxWait time.Duration, now func() time.Time) *DeadlineClock {
	if now == nil {
		now = time.Now
	}
	if maxWait < 0 {
		maxWait = 0
	}
	return &DeadlineClock{
		start:   now(),
		maxWait: maxWait,
		nowFunc: now,
	}
}

// NewDeadlineClockAt starts a clock that reads time from now. Used by callers
// that drive time themselves (tests, simulations).
func NewDeadlineClockAt(maxWait time.Duration, now func() time.Time) *DeadlineClock {
	return newDeadlineClock(maxWait, now)
}

// MaxWait returns the configured budget.
func (c *DeadlineClock) MaxWait() time.Duration { return c.maxWait }

// Elapsed returns the time since the clock started.
func (c *DeadlineClock) Elapsed() time.Duration {
	return c.nowFunc().Sub(c.start)
}

// Remaining returns max(0, maxWait - Elapsed()).
func (c *DeadlineClock) Remaining() time.Duration {
	rem := c.maxWait - c.Elapsed()
	if rem < 0 {
		return 0
	}
	return rem
}

// Expired reports whether the budget is used up.
func (c *DeadlineClock) Expired() bool {
	return c.Remaining() == 0
}

// Clamp returns d capped at Remaining().
func (c *DeadlineClock) Clamp(d time.Duration) time.Duration {
	return min(d, c.Remaining())
}

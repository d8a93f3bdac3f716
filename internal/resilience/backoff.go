package resilience

import (
	"context"
	"time"
)

// LinearBackoff maps an attempt number to min(Base*attempt, Max).
type LinearBackoff struct {
	// Base is the delay after the first failed attempt. Default: 3s.
	Base time.Duration

	// Max caps the delay. Default: 20s.
	Max time.Duration
}

// DefaultLinearBackoff returns the schedule used against Overpass.
func DefaultLinearBackoff() LinearBackoff {
	return LinearBackoff{
		Base: 3 * time.Second,
		Max:  20 * time.Second,
	}
}

// DelayFor returns the wait before retrying after the given attempt. Attempts
// start at 1; smaller values are treated as 1. The result is non-decreasing
// in attempt and never exceeds Max.
func (b LinearBackoff) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if b.Base <= 0 || b.Max <= 0 {
		return 0
	}
	// Saturate before multiplying so large attempt counts cannot overflow.
	if time.Duration(attempt) >= b.Max/b.Base+1 {
		return b.Max
	}
	return min(b.Base*time.Duration(attempt), b.Max)
}

// Sleep waits for d or until ctx is done, whichever comes first. It returns
// ctx.Err() if the wait was interrupted.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

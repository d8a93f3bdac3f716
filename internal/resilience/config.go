package resilience

import (
	"time"
)

// FromBackoffConfig converts millisecond config values to a LinearBackoff.
// Non-positive values keep the defaults.
func FromBackoffConfig(baseDelayMs, maxDelayMs int) LinearBackoff {
	b := DefaultLinearBackoff()
	if baseDelayMs > 0 {
		b.Base = time.Duration(baseDelayMs) * time.Millisecond
	}
	if maxDelayMs > 0 {
		b.Max = time.Duration(maxDelayMs) * time.Millisecond
	}
	if b.Max < b.Base {
		b.Max = b.Base
	}
	return b
}

// FromBusyConfig converts config values to a BusyClassifier.
func FromBusyConfig(statusCodes []int, hints []string) BusyClassifier {
	return NewBusyClassifier(statusCodes, hints)
}

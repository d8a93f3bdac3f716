package resilience

import (
	"slices"
	"strings"
)

// DefaultBusyStatusCodes are the HTTP statuses that always mean the server is
// overloaded, whatever the body says.
var DefaultBusyStatusCodes = []int{429, 502, 503, 504}

// DefaultBusyHints are body fragments known to appear in Overpass overload
// responses, including ones served with HTTP 200.
var DefaultBusyHints = []string{"Dispatcher_Client", "too busy", "timeout", "rate limit"}

// BusyClassifier decides whether a response that could not be parsed signals
// transient overload rather than a hard failure.
type BusyClassifier struct {
	StatusCodes []int
	Hints       []string
}

// DefaultBusyClassifier returns a classifier using DefaultBusyStatusCodes and
// DefaultBusyHints.
func DefaultBusyClassifier() BusyClassifier {
	return NewBusyClassifier(nil, nil)
}

// NewBusyClassifier builds a classifier. Empty arguments fall back to the
// defaults; blank hints are dropped.
func NewBusyClassifier(statusCodes []int, hints []string) BusyClassifier {
	if len(statusCodes) == 0 {
		statusCodes = DefaultBusyStatusCodes
	}
	if len(hints) == 0 {
		hints = DefaultBusyHints
	}
	lowered := make([]string, 0, len(hints))
	for _, h := range hints {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			lowered = append(lowered, h)
		}
	}
	return BusyClassifier{
		StatusCodes: slices.Clone(statusCodes),
		Hints:       lowered,
	}
}

// Classify reports whether status and body describe an overloaded server.
// Overload statuses win unconditionally; otherwise the body is searched,
// case-insensitively, for any configured hint.
func (c BusyClassifier) Classify(status int, body string) bool {
	if slices.Contains(c.StatusCodes, status) {
		return true
	}
	if body == "" {
		return false
	}
	lower := strings.ToLower(body)
	for _, hint := range c.Hints {
		if hint != "" && strings.Contains(lower, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}

package overpass

import "fmt"

// OutcomeKind classifies the result of a single attempt.
type OutcomeKind int

const (
	// OutcomeSuccess means the body parsed as an Overpass document.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeTransportFailure means no complete response was received.
	OutcomeTransportFailure
	// OutcomeOverloaded means the body did not parse and looked like overload.
	OutcomeOverloaded
	// OutcomeHardError means the body did not parse and did not look like overload.
	OutcomeHardError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransportFailure:
		return "transport_failure"
	case OutcomeOverloaded:
		return "overloaded"
	case OutcomeHardError:
		return "hard_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// AttemptOutcome is the classified result of one attempt. Exactly one is
// produced per attempt.
type AttemptOutcome struct {
	Kind OutcomeKind

	// Response is set for OutcomeSuccess.
	Response *Response

	// Status is the HTTP status, 0 for transport failures.
	Status int

	// Snippet is a prefix of the raw body for OutcomeOverloaded.
	Snippet string

	// Message is the cleaned server text for OutcomeHardError.
	Message string

	// Err is the transport error for OutcomeTransportFailure and a
	// *resilience.TransientError for OutcomeOverloaded.
	Err error
}

// Retryable reports whether the outcome leads to a backoff and another attempt.
func (o AttemptOutcome) Retryable() bool {
	return o.Kind == OutcomeTransportFailure || o.Kind == OutcomeOverloaded
}

// State is a step of the query state machine.
type State int

const (
	StateAttempting State = iota
	StateAwaitingBackoff
	StateSucceeded
	StateFailedTimeout
	StateFailedHard
	StateFailedCanceled
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateAwaitingBackoff:
		return "awaiting_backoff"
	case StateSucceeded:
		return "succeeded"
	case StateFailedTimeout:
		return "failed_timeout"
	case StateFailedHard:
		return "failed_hard"
	case StateFailedCanceled:
		return "failed_canceled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s >= StateSucceeded
}

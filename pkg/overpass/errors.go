package overpass

import (
	"context"
	"fmt"

	"github.com/sells-group/geoquery/internal/messages"
)

// queryError is the type behind the package's sentinel failures. Each one
// knows its user-facing message.
type queryError struct {
	msg   string
	key   messages.Key
	cause error
}

func (e *queryError) Error() string { return e.msg }

func (e *queryError) Unwrap() error { return e.cause }

// Is matches any queryError with the same message key, so a failure carrying
// its own cause still matches the sentinel.
func (e *queryError) Is(target error) bool {
	t, ok := target.(*queryError)
	return ok && t.key == e.key
}

// Localize implements messages.Localizer.
func (e *queryError) Localize(p *messages.Printer) string { return p.Text(e.key) }

var (
	// ErrTimeoutExceeded is returned when the overall wait budget is used up
	// before a usable response arrived.
	ErrTimeoutExceeded error = &queryError{msg: "overpass: maximum wait exceeded", key: messages.Timeout}

	// ErrCanceled matches failures where the caller's context ended the
	// invocation. The returned error wraps ctx.Err(), so context.Canceled and
	// context.DeadlineExceeded stay distinguishable.
	ErrCanceled error = &queryError{msg: "overpass: query canceled", key: messages.Canceled, cause: context.Canceled}

	// ErrEmptyQuery is returned for a blank query without contacting the server.
	ErrEmptyQuery error = &queryError{msg: "overpass: empty query", key: messages.EmptyQuery}
)

// HardError is a non-retryable server failure: the response could not be
// parsed and did not look like overload. Message is the response body with
// markup removed, trimmed and cut to at most 200 characters.
type HardError struct {
	Status  int
	Message string
}

func (e *HardError) Error() string {
	return fmt.Sprintf("overpass: server error (status %d): %s", e.Status, e.Message)
}

// Localize implements messages.Localizer.
func (e *HardError) Localize(p *messages.Printer) string {
	return p.Text(messages.ServerError, e.Message)
}

// canceledError reports an invocation ended by its caller's context.
func canceledError(cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	return &queryError{
		msg:   "overpass: query canceled: " + cause.Error(),
		key:   messages.Canceled,
		cause: cause,
	}
}

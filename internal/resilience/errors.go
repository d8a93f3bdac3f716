package resilience

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// TransientError wraps an error that is safe to retry (dropped connection,
// per-attempt timeout, overload response).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it looks like a network-level failure: timeouts,
// connection resets, refused dials, DNS failures or a connection dropped
// mid-response.
func IsTransient(err error) bool {
	return TransportReason(err) != ""
}

// TransportReason returns a short, low-cardinality label describing why a
// request failed at the transport level, or "" if err is not a transport
// failure. The label is used as a structured log field.
func TransportReason(err error) string {
	if err == nil {
		return ""
	}

	var te *TransientError
	if errors.As(err, &te) {
		return "transient"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNABORTED):
		return "reset"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "refused"
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return "dropped"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}

	// Wrapped errors from net/http often only survive as text.
	msg := strings.ToLower(err.Error())
	patterns := []struct {
		substr string
		reason string
	}{
		{"connection reset by peer", "reset"},
		{"broken pipe", "reset"},
		{"server closed idle connection", "dropped"},
		{"transport connection broken", "dropped"},
		{"unexpected eof", "dropped"},
		{"temporary failure in name resolution", "dns"},
		{"no such host", "dns"},
		{"tls handshake timeout", "timeout"},
		{"i/o timeout", "timeout"},
	}
	for _, p := range patterns {
		if strings.Contains(msg, p.substr) {
			return p.reason
		}
	}

	return ""
}

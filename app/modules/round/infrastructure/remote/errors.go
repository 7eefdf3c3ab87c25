package roundremote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

// Kind classifies a remote failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoConnection
	KindTimeout
	KindServer
	KindDomain
)

func (k Kind) String() string {
	switch k {
	case KindNoConnection:
		return "no_connection"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server_error"
	case KindDomain:
		return "domain_error"
	default:
		return "unknown"
	}
}

// Error is returned by every Gateway operation that did not succeed.
type Error struct {
	Kind       Kind
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("remote %s: %s", e.Operation, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err, or KindUnknown when err is not a remote error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// classifyTransport maps an error from the HTTP round trip onto a Kind.
func classifyTransport(op string, err error) *Error {
	kind := KindUnknown

	var netErr net.Error
	var urlErr *url.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.As(err, &dnsErr),
		errors.As(err, &opErr):
		kind = KindNoConnection
	case errors.As(err, &urlErr):
		kind = KindNoConnection
	}
	return &Error{Kind: kind, Operation: op, Err: err}
}

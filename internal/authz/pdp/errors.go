package pdp

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// FailureKind classifies why a PDP call produced no decision.
type FailureKind string

const (
	KindTimeout     FailureKind = "timeout"
	KindUnavailable FailureKind = "unavailable"
	KindProtocol    FailureKind = "protocol"
	KindCanceled    FailureKind = "canceled"
	KindInternal    FailureKind = "internal"
	KindCircuitOpen FailureKind = "circuit_open"
)

var (
	// ErrUnavailable wraps connection-level failures.
	ErrUnavailable = errors.New("pdp unavailable")
	// ErrProtocol wraps non-2xx statuses and undecodable or incomplete responses.
	ErrProtocol = errors.New("pdp protocol error")
	// ErrInternal wraps panics and other unexpected failures inside a transport.
	ErrInternal = errors.New("pdp internal error")
)

// Classify maps a transport error to a FailureKind. Unknown errors are internal.
func Classify(err error) FailureKind {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	switch {
	case errors.Is(err, ErrProtocol):
		return KindProtocol
	case errors.Is(err, ErrInternal):
		return KindInternal
	case errors.Is(err, ErrUnavailable), errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return KindUnavailable
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return KindUnavailable
	}
	return KindInternal
}

package broker

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

// Class buckets brokerage errors by how the caller should react.
type Class int

const (
	// ClassNone means no error.
	ClassNone Class = iota
	// ClassTransient errors (rate limits, 5xx, connection failures) are safe
	// to retry with the same order intent.
	ClassTransient
	// ClassAmbiguous errors (timeouts after the request left the process) may
	// have been accepted by the brokerage. The order must be reconciled by
	// client order ID before any retry.
	ClassAmbiguous
	// ClassFatal errors (rejected orders, account restrictions, bad symbols)
	// must never be retried.
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassAmbiguous:
		return "ambiguous"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify maps a brokerage error to its class.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassAmbiguous
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassAmbiguous
		}
		return ClassTransient
	}

	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode >= http.StatusInternalServerError:
			return ClassTransient
		default:
			return ClassFatal
		}
	}

	// Unrecognized errors are treated as transient connection trouble.
	return ClassTransient
}

// IsNotFound reports whether the error is a brokerage 404.
func IsNotFound(err error) bool {
	var apiErr *alpaca.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

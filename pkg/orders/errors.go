package orders

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrRateLimited rejects a create request before any store access.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidSignature rejects a payment confirmation whose HMAC does
	// not match. No state is mutated on this path.
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrNotFound signals a missing order, service or product reference.
	ErrNotFound = errors.New("not found")

	// ErrSlotTaken rejects a confirmation whose booked slot was
	// concurrently taken by another order.
	ErrSlotTaken = errors.New("slot no longer available")
)

// ValidationError carries every violated field of a request, never just the
// first one.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// GatewayError wraps a failed payment-gateway call. The order stays pending
// and gateway-id-less; it can be retried or left as a harmless orphan.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return "gateway error: " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks transport-level failures: connection refused,
	// DNS, timeout. Retryable on the next sync trigger.
	ErrUnavailable = errors.New("server unavailable")
)

// StatusError is a non-2xx response with its body text.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

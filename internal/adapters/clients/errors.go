// Package clients provides HTTP client adapters for downstream services.
package clients

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client errors are infrastructure failures. The acl package translates
// them to domain errors.
var (
	// ErrCircuitOpen is returned without calling the downstream while the
	// circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last attempt's error once every
	// attempt has failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrRetryableStatus matches any *StatusError.
	ErrRetryableStatus = errors.New("retryable status")
)

// StatusError is a 5xx or 429 answer that the client retried.
type StatusError struct {
	StatusCode int

	// RetryAfter is the server's requested delay, zero when it sent none.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrRetryableStatus, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Is(target error) bool {
	return target == ErrRetryableStatus
}

// RateLimited reports whether the downstream answered 429.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

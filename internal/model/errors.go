package model

import (
	"fmt"
	"time"
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// SendError marks a digest delivery failure. The run must not record sent
// identities or advance the day state while one of these is in play.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("digest send failed: %v", e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

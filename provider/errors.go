package provider

import (
	"fmt"
	"time"
)

// AuthenticationError reports rejected credentials. Not retryable.
type AuthenticationError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AuthenticationError) Unwrap() error { return e.Err }

// RateLimitError reports request throttling. RetryAfter carries the
// server's hint when available, zero otherwise.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RateLimitError) Unwrap() error { return e.Err }

// ServerError reports a 5xx-class failure on the provider side.
type ServerError struct {
	Provider   string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server error (status %d): %v", e.Provider, e.StatusCode, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ServerError) Unwrap() error { return e.Err }

// NetworkError reports a transport-level failure before a response was
// received.
type NetworkError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying cause.
func (e *NetworkError) Unwrap() error { return e.Err }

// BadRequestError reports malformed input rejected by the provider. Not
// retryable; usually a bug in tool schemas or message construction.
type BadRequestError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *BadRequestError) Error() string {
	return fmt.Sprintf("%s: bad request: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BadRequestError) Unwrap() error { return e.Err }

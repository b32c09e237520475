// Package errors defines the typed error taxonomy surfaced by the bird
// session layer. Every failure mode crossing the transport boundary has a
// distinct type so callers can branch on the class of failure instead of
// matching message strings.
package errors

import (
	"fmt"
	"time"
)

// ConfigError indicates a problem with the client configuration.
type ConfigError struct {
	// Field contains the name of the configuration field that caused the error
	Field string
	// Message contains the detailed error message
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// StateError indicates an operation was attempted when the client is not ready.
type StateError struct {
	// Operation is the name of the operation that was attempted
	Operation string
	// Message contains the detailed error message
	Message string
}

func (e *StateError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("state error during %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("state error: %s", e.Message)
}

// NetworkError indicates a connection or DNS level failure. It is always
// surfaced to the caller and never retried by the transport.
type NetworkError struct {
	// Operation is the name of the operation that failed
	Operation string
	// URL is the URL that was being accessed
	URL string
	// Err contains the underlying error
	Err error
}

func (e *NetworkError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("network error during %s to %s: %v", e.Operation, e.URL, e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates the caller-supplied deadline expired before the
// request completed. Any pending jitter or rate delay is abandoned.
type TimeoutError struct {
	// Operation is the name of the operation that timed out
	Operation string
	// Err contains the underlying context or transport error
	Err error
}

func (e *TimeoutError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("timeout during %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("timeout: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// RateLimitError indicates the remote service explicitly rejected a request
// despite the governor's local estimate. Remaining budget and reset
// information from the rejecting response are attached when available.
type RateLimitError struct {
	// Remaining is the remote's reported remaining budget, -1 if unknown
	Remaining float64
	// ResetAfter is the remote's reported time until budget reset, 0 if unknown
	ResetAfter time.Duration
	// RetryAfter is the Retry-After value from the rejecting response, 0 if absent
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.ResetAfter > 0 {
		return fmt.Sprintf("rate limited: remaining %.1f, resets in %s", e.Remaining, e.ResetAfter)
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// AuthExpiredError indicates the session credential is invalid or expired.
// The session layer cannot refresh the credential itself, so this is never
// retried; the user must supply a fresh cookie.
type AuthExpiredError struct {
	// StatusCode is the HTTP status code that triggered the error
	StatusCode int
	// Message contains additional detail
	Message string
}

func (e *AuthExpiredError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth expired (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("auth expired (status %d): session cookie is invalid or expired", e.StatusCode)
}

// CSRFRejectedError indicates a mutating request was rejected for a stale
// anti-forgery token twice in a row. The transport refreshes the token and
// retries exactly once before surfacing this error.
type CSRFRejectedError struct {
	// StatusCode is the HTTP status code of the second rejection
	StatusCode int
	// Body contains the raw rejecting response body for diagnostics
	Body string
}

func (e *CSRFRejectedError) Error() string {
	return fmt.Sprintf("csrf token rejected after refresh (status %d)", e.StatusCode)
}

// MalformedError indicates a response body or header could not be parsed.
// The raw payload is preserved for diagnostics.
type MalformedError struct {
	// Operation is the name of the operation whose response was unparseable
	Operation string
	// Body contains the raw payload
	Body string
	// Err contains the parse error
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response during %s: %v", e.Operation, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusError indicates a non-2xx response that matches no other
// category.
type UnexpectedStatusError struct {
	// StatusCode is the HTTP status code
	StatusCode int
	// Body contains the raw response body
	Body string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// APIError indicates the remote accepted the request but reported
// domain-level errors in the response envelope (the json.errors array).
type APIError struct {
	// Errors holds the raw error tuples reported by the remote
	Errors [][]string
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return "api error"
	}
	first := e.Errors[0]
	if len(first) >= 2 {
		return fmt.Sprintf("api error %s: %s", first[0], first[1])
	}
	return fmt.Sprintf("api error: %v", first)
}

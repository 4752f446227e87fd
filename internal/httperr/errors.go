// Package httperr provides the error taxonomy for the hybrid router.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrNotFound.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., Error, RateLimitError). Each type
//     implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common sentinel errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrBadRequest       = errors.New("bad request")
	ErrForbidden        = errors.New("forbidden")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrRateLimited      = errors.New("rate limit exceeded")
)

// Error is a structured HTTP error. It carries everything the pipeline
// needs to render a JSON error response: status code, a stable
// application error code, optional response headers, an arbitrary data
// payload, and context fields for logging.
type Error struct {
	Status     int
	Code       string
	Message    string
	Headers    map[string]string
	Data       interface{}
	LogContext map[string]interface{}
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrMethodNotAllowed:
		return e.Status == http.StatusMethodNotAllowed
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	_, ok := target.(*Error)
	return ok || errors.Is(e.Cause, target)
}

// StatusText returns the standard status text for the error status.
func (e *Error) StatusText() string {
	return http.StatusText(e.Status)
}

// WithHeader attaches a response header to the error.
func (e *Error) WithHeader(key, value string) *Error {
	if e.Headers == nil {
		e.Headers = make(map[string]string)
	}
	e.Headers[key] = value
	return e
}

// WithData attaches an arbitrary data payload to the error.
func (e *Error) WithData(data interface{}) *Error {
	e.Data = data
	return e
}

// WithLogContext attaches a logging context field to the error.
func (e *Error) WithLogContext(key string, value interface{}) *Error {
	if e.LogContext == nil {
		e.LogContext = make(map[string]interface{})
	}
	e.LogContext[key] = value
	return e
}

// New creates a structured error with the given status, code and message.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Wrap wraps an existing error into a structured error.
func Wrap(err error, status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message, Cause: err}
}

// NotFound creates a 404 error.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, "NOT_FOUND", message)
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, "BAD_REQUEST", message)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, "FORBIDDEN", message)
}

// MethodNotAllowed creates a 405 error.
func MethodNotAllowed(message string) *Error {
	return New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", message)
}

// Internal creates a 500 error wrapping the given cause.
func Internal(message string, cause error) *Error {
	return Wrap(cause, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// RateLimitError represents a rate limit rejection. It carries the limit
// and the retry-after duration used for the Retry-After header.
type RateLimitError struct {
	Limit      int
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (limit: %d, retry after: %v)", e.Limit, e.RetryAfter)
}

// Is checks if the error matches the target.
func (e *RateLimitError) Is(target error) bool {
	if target == ErrRateLimited {
		return true
	}
	_, ok := target.(*RateLimitError)
	return ok
}

// HTTPError converts the rate limit rejection to a structured error with
// the Retry-After header set.
func (e *RateLimitError) HTTPError() *Error {
	retryAfter := int(e.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	return New(http.StatusTooManyRequests, "RATE_LIMITED", e.Error()).
		WithHeader("Retry-After", fmt.Sprintf("%d", retryAfter)).
		WithData(map[string]interface{}{"limit": e.Limit, "retry_after_seconds": retryAfter})
}

// NewRateLimitError creates a new RateLimitError.
func NewRateLimitError(limit int, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Limit: limit, RetryAfter: retryAfter}
}

// AsError extracts a structured *Error from err. Unstructured errors are
// wrapped as internal errors so every failure renders the same envelope.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}

	var rateLimited *RateLimitError
	if errors.As(err, &rateLimited) {
		return rateLimited.HTTPError()
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return Wrap(err, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrForbidden):
		return Wrap(err, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrMethodNotAllowed):
		return Wrap(err, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", err.Error())
	case errors.Is(err, ErrBadRequest):
		return Wrap(err, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	}

	return Internal("internal server error: "+err.Error(), err)
}

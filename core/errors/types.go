// ABOUTME: Custom error types for the core business logic
// ABOUTME: Provides structured errors with stable machine codes for API responses

package errors

import (
	"errors"
	"fmt"
	"time"
)

// Stable machine-readable error codes surfaced to API clients.
const (
	CodeInvalidURL     = "INVALID_URL"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "PAGE_NOT_FOUND"
	CodeTimeout        = "TIMEOUT"
	CodeFetchFailed    = "FETCH_FAILED"
	CodeCircuitOpen    = "CIRCUIT_OPEN"
)

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// Code returns the machine-readable error code.
func (e *NotFoundError) Code() string { return CodeNotFound }

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Code returns the machine-readable error code.
func (e *ValidationError) Code() string {
	if e.Field == "url" {
		return CodeInvalidURL
	}
	return CodeInvalidRequest
}

// TimeoutError represents a fetch that exceeded its deadline.
type TimeoutError struct {
	URL string
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out fetching %s", e.URL)
}

// Code returns the machine-readable error code.
func (e *TimeoutError) Code() string { return CodeTimeout }

// FetchFailedError represents a page fetch that failed for reasons other
// than not-found or timeout.
type FetchFailedError struct {
	URL     string
	Message string
}

// Error implements the error interface
func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %s", e.URL, e.Message)
}

// Code returns the machine-readable error code.
func (e *FetchFailedError) Code() string { return CodeFetchFailed }

// CircuitOpenError represents a request rejected because the circuit
// breaker guarding the dependency is open. NextAttempt lets callers
// compute a retry-after.
type CircuitOpenError struct {
	Dependency  string
	NextAttempt time.Time
}

// Error implements the error interface
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for %s until %s",
		e.Dependency, e.NextAttempt.Format(time.RFC3339))
}

// Code returns the machine-readable error code.
func (e *CircuitOpenError) Code() string { return CodeCircuitOpen }

// RetryAfter returns the remaining cooldown, never negative.
func (e *CircuitOpenError) RetryAfter(now time.Time) time.Duration {
	if d := e.NextAttempt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsTimeout checks if an error is a TimeoutError
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// IsFetchFailed checks if an error is a FetchFailedError
func IsFetchFailed(err error) bool {
	var fetchErr *FetchFailedError
	return errors.As(err, &fetchErr)
}

// IsCircuitOpen checks if an error is a CircuitOpenError
func IsCircuitOpen(err error) bool {
	var openErr *CircuitOpenError
	return errors.As(err, &openErr)
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

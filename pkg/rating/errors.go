package rating

import (
	"errors"
	"fmt"
)

// RatingError represents an error from a rating component.
type RatingError struct {
	Component string
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *RatingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Component, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Component, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RatingError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for RatingError.
func (e *RatingError) Is(target error) bool {
	t, ok := target.(*RatingError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewRatingError creates a new RatingError.
func NewRatingError(component, code, message string) *RatingError {
	return &RatingError{
		Component: component,
		Code:      code,
		Message:   message,
	}
}

// WithCause adds a cause to the error.
func (e *RatingError) WithCause(err error) *RatingError {
	e.Cause = err
	return e
}

// WithRetryable marks the error as retryable.
func (e *RatingError) WithRetryable(retryable bool) *RatingError {
	e.Retryable = retryable
	return e
}

// Sentinel errors for rating scenarios.
var (
	// ErrNoActiveSites indicates a dropship warehouse has no active sites.
	ErrNoActiveSites = errors.New("no active dropship sites")

	// ErrRateUnavailable indicates no site produced a rate, including the
	// fallback site. This is the one checkout-blocking error.
	ErrRateUnavailable = errors.New("rate unavailable")

	// ErrSourceUnavailable indicates the rate source is unreachable or its
	// circuit breaker is open.
	ErrSourceUnavailable = errors.New("rate source unavailable")

	// ErrMalformedResponse indicates the rate source returned an
	// unparseable payload. Treated the same as total failure.
	ErrMalformedResponse = errors.New("malformed rate source response")

	// ErrInvalidRecord indicates an admin-time record failed validation.
	ErrInvalidRecord = errors.New("invalid record")
)

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var ratingErr *RatingError
	if errors.As(err, &ratingErr) {
		return ratingErr.Retryable
	}
	return errors.Is(err, ErrSourceUnavailable)
}

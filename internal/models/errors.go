package models

import (
	"errors"
	"fmt"
)

// Resolution outcomes surfaced to callers.
var (
	// ErrQueryFailure means the oracle could not satisfy a request after its own retry policy.
	ErrQueryFailure = errors.New("query failure")
	// ErrCancelled means the caller withdrew the request before completion.
	ErrCancelled = errors.New("resolution cancelled")
	// ErrMisconfiguredEdgeSets means an edge class was classified as both equivalency and directional.
	ErrMisconfiguredEdgeSets = errors.New("misconfigured edge sets")
)

// Sentinel errors for request validation.
var (
	ErrMissingName  = errors.New("name is required")
	ErrInvalidDepth = errors.New("depth must be between 0 and the configured maximum")
	ErrEmptySeedSet = errors.New("seed set is empty")
)

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf("exceeds maximum length of %d", maxLen)}
}

// IsValidationError reports whether err was produced by request or configuration validation.
func IsValidationError(err error) bool {
	var fieldErr *FieldError

	return errors.Is(err, ErrMissingName) ||
		errors.Is(err, ErrInvalidDepth) ||
		errors.As(err, &fieldErr)
}

// FieldError reports an invalid request field.
type FieldError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

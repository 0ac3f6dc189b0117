package services

import (
	"errors"
	"strings"

	"github.com/Satish-Das/food-donate-application/internal/store"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = store.ErrNotFound

	// ErrPermissionDenied is returned when the caller may not perform the
	// requested operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthenticated is returned when an operation needs an identity
	// or the presented credentials are wrong.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrConflict is returned when a write collides with an existing record.
	ErrConflict = errors.New("conflict")

	// ErrNotConfigured is returned when an optional backend is disabled.
	ErrNotConfigured = errors.New("not configured")
)

// ValidationError collects every problem found in caller input.
type ValidationError struct {
	Problems []string
}

func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// Error is a classified failure with a message fit for the caller.
// errors.Is matches it against its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

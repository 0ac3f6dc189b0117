package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned when an identifier is not well formed for
	// the backing store.
	ErrInvalidID = errors.New("invalid id")

	// ErrDuplicateKey is returned when a write violates a uniqueness
	// constraint.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotPending is returned when a write limited to pending donations
	// finds the donation in another status.
	ErrNotPending = errors.New("donation is not pending")
)

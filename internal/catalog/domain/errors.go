package domain

import "errors"

var (
	// ErrNotFound is returned when no row matches a lookup
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique slug is already taken
	ErrConflict = errors.New("conflict")

	// ErrInvalidReference is returned when a write points at a missing row
	ErrInvalidReference = errors.New("invalid reference")

	// ErrValidation wraps payload validation failures
	ErrValidation = errors.New("validation failed")
)

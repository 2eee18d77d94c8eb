package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput marks caller mistakes (bad ids, unknown enum values).
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden marks operations the caller's role may not perform.
	ErrForbidden = errors.New("forbidden")
	// ErrProviderDisabled is returned by placeholder providers that have no API key configured.
	ErrProviderDisabled = errors.New("provider disabled")
)

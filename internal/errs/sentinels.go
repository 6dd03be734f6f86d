// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or missing input. Nothing was written.
	ErrValidation = errors.New("validation")

	// ErrDuplicateSession indicates an attendance session with the same date and label already exists.
	ErrDuplicateSession = errors.New("duplicate session")

	// ErrPersistence indicates the store failed to apply a write; the transaction was rolled back.
	ErrPersistence = errors.New("persistence")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller is authenticated but not allowed to act on the target.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrDuplicateDocument indicates the cadet already has an approved document of that type.
	ErrDuplicateDocument = errors.New("duplicate document")
)

// Package apperr defines the error taxonomy surfaced to API callers.
// Services wrap these sentinels; the HTTP layer maps them to status codes
// with errors.Is and never leaks store internals.
package apperr

import "errors"

var (
	// ErrUnauthorized: no or invalid session identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden: identity present but the gate denies the action.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound: referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation: missing or malformed fields.
	ErrValidation = errors.New("validation failed")
	// ErrConflict: uniqueness violation on create.
	ErrConflict = errors.New("conflict")
)

// Package errs defines the domain error taxonomy. Services return these
// sentinels (usually wrapped with context via fmt.Errorf and %w); handlers
// match them with errors.Is and map them to HTTP status codes.
package errs

import "errors"

var (
	// ErrValidation — malformed input; the caller can correct and retry.
	ErrValidation = errors.New("validation error")

	// ErrForbidden — the acting role lacks permission for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrForbiddenCategory — the executor holds no grant for the case's category.
	ErrForbiddenCategory = errors.New("no access to case category")

	// ErrInvalidTransition — the requested status change is not reachable from
	// the case's current status for the acting role. Callers should re-fetch.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyTaken — the case was claimed by another executor first.
	ErrAlreadyTaken = errors.New("case already taken")

	// ErrNotFound — case, user, category or channel missing or inactive.
	ErrNotFound = errors.New("not found")
)

// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"strings"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the principal lacks rights on the target center.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates the principal exceeded its request budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email registered, membership present).
	ErrAlreadyExists = errors.New("already exists")

	// ErrPayloadTooLarge indicates the request body exceeded the size cap.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrMalformed indicates the request body is not a JSON object.
	ErrMalformed = errors.New("malformed request")
)

// ValidationError carries every problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Problems, "; ") }

// Invalid builds a ValidationError, or nil when there are no problems.
func Invalid(problems ...string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// ConflictError is a 409 whose message is safe to show the caller.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Unwrap lets errors.Is(err, ErrAlreadyExists) match.
func (e *ConflictError) Unwrap() error { return ErrAlreadyExists }

// Conflict returns a ConflictError with the given message.
func Conflict(msg string) error { return &ConflictError{Message: msg} }

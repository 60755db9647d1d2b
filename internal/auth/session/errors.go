package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike; callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrConflict is returned when a live session already exists for the
	// email and the caller did not force. It is a decision point for the
	// user, not a failure: the existing session is left untouched.
	ErrConflict = errors.New("session already active")

	// ErrNotAuthenticated is returned when an operation requires a live
	// session and none is present.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")
)

// ConflictError carries the human-readable conflict message surfaced to the
// caller so they can choose to force or cancel.
type ConflictError struct {
	Email string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%v: %s", ErrConflict, e.Email)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// Message is the fixed user-facing text for the 409 response.
func (e ConflictError) Message() string {
	return "This email is already associated with an active session."
}

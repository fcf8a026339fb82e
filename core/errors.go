package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// AuthenticationError is returned on bad login credentials. The message comes
// from the backend and is surfaced to the caller unchanged.
type AuthenticationError struct {
	Message string
}

func (err AuthenticationError) Error() string {
	return err.Message
}

func IsAuthenticationError(err error) bool {
	_, ok := errors.Cause(err).(*AuthenticationError)
	return ok
}

// ErrSessionExpired signals that the stored credential is no longer accepted;
// it is handled internally by the session manager and reduced to a nil
// identity emission, never shown to callers as a transport error.
var ErrSessionExpired = errors.New("session expired")

// TransientError wraps a network or 5xx failure. Pollers log it and keep the
// previous snapshot; the next scheduled tick is the retry.
type TransientError struct {
	Err error
}

func (err TransientError) Error() string {
	if err.Err == nil {
		return "transient failure"
	}
	return err.Err.Error()
}

func IsTransient(err error) bool {
	_, ok := errors.Cause(err).(*TransientError)
	return ok
}

// ConflictError carries a user-facing message from the backend verbatim
// (e.g. "task already has submissions"); it is never retried.
type ConflictError struct {
	Message string
}

func NewConflictError(msg string) error {
	return &ConflictError{Message: msg}
}

func (err ConflictError) Error() string {
	return err.Message
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

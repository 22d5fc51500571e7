package social

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies engine failures for the transport envelope. Validation
// and authorization kinds are never retried; STORAGE is retry-eligible but the
// engine itself never retries, that policy belongs to the caller.
type ErrorKind string

const (
	KindSelfReference ErrorKind = "SELF_REFERENCE"
	KindConflict      ErrorKind = "CONFLICT"
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindAuthorization ErrorKind = "AUTHORIZATION"
	KindInvalidState  ErrorKind = "INVALID_STATE"
	KindStorage       ErrorKind = "STORAGE"
)

// Error is the typed error returned by every engine operation.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func NewSelfReferenceError(message string) *Error {
	return &Error{Kind: KindSelfReference, Message: message}
}

func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewAuthorizationError(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func NewInvalidStateError(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

// NewStorageError wraps a collaborator failure. Callers treat these as
// transient.
func NewStorageError(cause error, message string) *Error {
	return &Error{Kind: KindStorage, Message: message, cause: errors.WithStack(cause)}
}

// KindOf extracts the kind from any error returned by the engine. Unknown
// errors are reported as storage failures since those are the only untyped
// errors that can escape.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// Retryable returns true iff retrying the operation could possibly succeed.
func Retryable(err error) bool {
	return KindOf(err) == KindStorage
}

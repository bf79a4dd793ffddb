package errors

import (
	"errors"
	"fmt"
)

// Kinds of service failure. Every typed error produced by this package
// matches exactly one of them with errors.Is.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrPrecondition     = errors.New("precondition not met")
	ErrConflict         = errors.New("conflict")
)

// Error is a service error carrying a user-facing message and, optionally,
// the underlying cause.
type Error struct {
	kind error
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Message is the user-facing part of the error, without the cause.
func (e *Error) Message() string { return e.msg }

func (e *Error) Is(target error) bool { return target == e.kind }

func (e *Error) Unwrap() error { return e.err }

func newError(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Unauthenticated(format string, args ...any) error {
	return newError(ErrUnauthenticated, format, args...)
}

func PermissionDenied(format string, args ...any) error {
	return newError(ErrPermissionDenied, format, args...)
}

// InvalidInput reports a validation failure. The message is shown to users
// as-is, e.g. "must be 18+".
func InvalidInput(format string, args ...any) error {
	return newError(ErrInvalidInput, format, args...)
}

// Precondition reports an operation whose referenced state does not exist or
// is not in the required shape, e.g. confirming a slot with no proposal.
func Precondition(format string, args ...any) error {
	return newError(ErrPrecondition, format, args...)
}

func Conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

// Wrap attaches a cause to a typed error of the given kind.
func Wrap(kind error, err error, format string, args ...any) error {
	e := newError(kind, format, args...)
	e.err = err
	return e
}

// Message returns the user-facing message of a typed error, or fallback for
// anything else.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return fallback
}

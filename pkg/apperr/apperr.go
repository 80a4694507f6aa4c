// ABOUTME: Error kinds shared by the aggregation and scheduling packages
// ABOUTME: Classifies failures as auth, remote, extraction, or validation errors

package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by where it must be handled.
type Kind string

const (
	// AuthMissing means no session token is available; every remote call is blocked.
	AuthMissing Kind = "auth_missing"
	// RemoteCallFailure is a network or service error on list/insert/delete.
	RemoteCallFailure Kind = "remote_call_failure"
	// ExtractionServiceFailure is a non-success response from the extraction endpoint.
	ExtractionServiceFailure Kind = "extraction_service_failure"
	// ValidationFailure is resolved locally and never reaches a remote call.
	ValidationFailure Kind = "validation_failure"
)

// Error carries a Kind alongside the failing operation and its cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap attaches a kind to an underlying error. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation is shorthand for a ValidationFailure with a formatted message.
func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: ValidationFailure, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in the chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Package apperr defines the failure taxonomy surfaced to the operator.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// KindLoad covers a missing or unreadable source, or a missing column.
	KindLoad Kind = "load"

	// KindValidation covers missing form fields and bad amounts.
	KindValidation Kind = "validation"

	// KindLookup means an identifier is not present in the dataset.
	KindLookup Kind = "lookup"

	// KindGuardianRequired means a minor has no resolvable holder.
	KindGuardianRequired Kind = "guardian_required"

	// KindRender covers a missing template or a failed substitution.
	KindRender Kind = "render"
)

// Error is a categorized failure.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap supports errors.Is / errors.As on the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func Load(op, message string, err error) *Error {
	return New(KindLoad, op, message, err)
}

func Validation(message string) *Error {
	return New(KindValidation, "", message, nil)
}

func Lookup(op, id string) *Error {
	return New(KindLookup, op, fmt.Sprintf("no record with identifier %q", id), nil)
}

func GuardianRequired(message string) *Error {
	return New(KindGuardianRequired, "", message, nil)
}

func Render(op, message string, err error) *Error {
	return New(KindRender, op, message, err)
}

// Is reports whether any error in err's chain is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Package errs defines the coordination engine's error taxonomy (spec
// §7): a small concrete type carrying a coarse Kind plus whatever error
// caused it, in the idiom of the teacher's model.ProviderError.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a coordination-engine error into one of the categories
// spec §7 names.
type Kind string

const (
	NotFound            Kind = "not_found"
	InvalidTransition   Kind = "invalid_transition"
	ProviderUnavailable Kind = "provider_unavailable"
	ProviderError       Kind = "provider_error"
	BoundExceeded       Kind = "bound_exceeded"
	ValidationFailed    Kind = "validation_failed"
	StorageError        Kind = "storage_error"
	Timeout             Kind = "timeout"
)

// Error wraps a coordination-engine failure with its Kind, an operation
// name for context, and the underlying cause.
type Error struct {
	kind      Kind
	operation string
	cause     error
}

// New constructs an Error. kind is required; cause may be nil.
func New(kind Kind, operation string, cause error) *Error {
	return &Error{kind: kind, operation: operation, cause: cause}
}

// Kind returns the error's coarse classification.
func (e *Error) Kind() Kind { return e.kind }

// Operation returns the name of the operation that failed, when known.
func (e *Error) Operation() string { return e.operation }

func (e *Error) Error() string {
	op := e.operation
	if op == "" {
		op = "operation"
	}
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", op, e.kind)
	}
	return fmt.Sprintf("%s: %s: %s", op, e.kind, e.cause)
}

// Unwrap returns the underlying cause to preserve the error chain.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, errs.New(errs.NotFound, "", nil)) or, more
// commonly, use IsKind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.kind == other.kind
}

// IsKind reports whether err's chain contains an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.kind == k
}

package sql

import (
	"errors"
	"fmt"
)

// CapabilityError reports that a node (or a node configuration) is not
// renderable for the chosen dialect. It is always recoverable by the
// caller: pick a different backend or a different construct. It is
// never silently downgraded; the builder will not fall back to
// different SQL.
type CapabilityError struct {
	Kind    Kind
	Op      Op // set when the offending construct is an operator
	Dialect string
	Config  string // short summary of the offending configuration
	Reason  string
}

// Error returns the error string.
func (e *CapabilityError) Error() string {
	construct := e.Kind.String()
	if e.Op != OpInvalid {
		construct = fmt.Sprintf("operator %s", e.Op)
	}
	if e.Config != "" {
		construct += " (" + e.Config + ")"
	}
	return fmt.Sprintf("sql: %s is not supported on %s: %s", construct, e.Dialect, e.Reason)
}

// IsCapabilityError returns true if the error is a CapabilityError.
func IsCapabilityError(err error) bool {
	if err == nil {
		return false
	}
	var e *CapabilityError
	return errors.As(err, &e)
}

// TypeMismatchError reports that a combinator was given a child node
// whose declared result type violates the combinator's contract, e.g.
// a non-boolean WHERE argument. It is caught at assembly time, before
// capability validation runs.
type TypeMismatchError struct {
	Clause string // the combinator whose contract was violated
	Want   Type
	Got    Type
}

// Error returns the error string.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("sql: %s requires a %s expression, got %s", e.Clause, e.Want, e.Got)
}

// IsTypeMismatch returns true if the error is a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	if err == nil {
		return false
	}
	var e *TypeMismatchError
	return errors.As(err, &e)
}

// InternalRenderError reports that the renderer reached a node or
// operator the capability registry marked supported but has no syntax
// rule for. It signals a registry/renderer table mismatch and is a
// programming defect, not a user input error.
type InternalRenderError struct {
	Kind    Kind
	Op      Op
	Dialect string
}

// Error returns the error string.
func (e *InternalRenderError) Error() string {
	construct := e.Kind.String()
	if e.Op != OpInvalid {
		construct = fmt.Sprintf("operator %s", e.Op)
	}
	return fmt.Sprintf("sql: internal: no syntax rule for %s on %s (registry/renderer mismatch)", construct, e.Dialect)
}

// IsInternalRenderError returns true if the error is an InternalRenderError.
func IsInternalRenderError(err error) bool {
	if err == nil {
		return false
	}
	var e *InternalRenderError
	return errors.As(err, &e)
}

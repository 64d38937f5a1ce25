package where

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedOperand is the kind of errors raised when an operator
	// receives an operand of the wrong shape, or the expression itself is not
	// a valid filter.
	ErrMalformedOperand = errors.New("malformed operand")

	// ErrUnknownOperator is the kind of errors raised for $-prefixed keys
	// outside the recognized operator set.
	ErrUnknownOperator = errors.New("unknown operator")
)

// Error describes a filter expression that cannot be compiled.
type Error struct {
	Kind   error
	Path   string
	Marker string
	Reason string
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Marker != "" {
		msg += fmt.Sprintf(" %s", e.Marker)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" at %q", e.Path)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap lets errors.Is match the error kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

func malformed(path, marker, reason string) *Error {
	return &Error{Kind: ErrMalformedOperand, Path: path, Marker: marker, Reason: reason}
}

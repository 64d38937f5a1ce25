package store

import (
	"fmt"
	"strings"

	"github.com/johnwards/repoquery/internal/order"
)

// ErrNotFound is returned when a requested entity or row does not exist.
var ErrNotFound = fmt.Errorf("not found")

// ErrConflict is returned when a write would violate a uniqueness constraint.
var ErrConflict = fmt.Errorf("conflict")

// ValidationError represents a query or input validation error.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FieldError reports a filter or input field that does not resolve against
// entity metadata. Segment is the part of Path that failed to resolve.
type FieldError struct {
	Entity  string
	Path    string
	Segment string
	Reason  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q on %s: %s", e.Path, e.Entity, e.Reason)
}

// Unwrap classifies the error as an unknown field.
func (e *FieldError) Unwrap() error {
	return order.ErrUnknownField
}

// classifyWrite maps SQLite constraint failures on insert or update to store
// errors. Other errors are wrapped with op.
func classifyWrite(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %s: %w", op, msg, ErrConflict)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &ValidationError{Message: op + ": a related row does not exist"}
	}
	return fmt.Errorf("%s: %w", op, err)
}

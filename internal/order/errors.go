package order

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnknownField      = errors.New("unknown field")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrUnknownSortOption = errors.New("unknown sort option")
	ErrInvalidSortValue  = errors.New("invalid sort value")
	ErrMalformedSpec     = errors.New("malformed order")
)

// FieldError locates one problem in an order specification.
type FieldError struct {
	Kind    error
	Field   string
	Option  string
	Value   any
	Allowed []string
}

func (e *FieldError) Error() string {
	switch e.Kind {
	case ErrUnknownField:
		return fmt.Sprintf("order key %q is not a field of the entity", e.Field)
	case ErrInvalidDirection:
		return fmt.Sprintf("order %q: direction %v must be %s", e.Field, formatValue(e.Value), strings.Join(e.Allowed, " or "))
	case ErrUnknownSortOption:
		return fmt.Sprintf("order %q: option %q must be %s", e.Field, e.Option, strings.Join(e.Allowed, " or "))
	case ErrInvalidSortValue:
		return fmt.Sprintf("order %q: %s %v must be %s", e.Field, e.Option, formatValue(e.Value), strings.Join(e.Allowed, " or "))
	}
	return fmt.Sprintf("order %q: %v", e.Field, e.Kind)
}

// Unwrap lets errors.Is match the error kind.
func (e *FieldError) Unwrap() error {
	return e.Kind
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

// Errors is every problem found in one order specification.
type Errors []*FieldError

func (es Errors) Error() string {
	switch len(es) {
	case 0:
		return "no errors"
	case 1:
		return es[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", es[0].Error(), len(es)-1)
}

// Unwrap exposes each problem to errors.Is and errors.As.
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

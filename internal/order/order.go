// Package order validates ordering requests against an entity's fields and
// normalizes them into sort terms.
//
// An order specification maps field names to a direction token or to a
// {"direction", "nulls"} object:
//
//	{"name": "ASC", "rating": {"direction": "DESC", "nulls": "LAST"}, "id": -1}
package order

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/johnwards/repoquery/internal/jsonv"
)

// Direction is the sort direction of a term.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// MarshalText encodes d as ASC or DESC.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Nulls is the placement of null values within a term.
type Nulls int

const (
	NullsDefault Nulls = iota
	NullsFirst
	NullsLast
)

func (n Nulls) String() string {
	switch n {
	case NullsFirst:
		return "FIRST"
	case NullsLast:
		return "LAST"
	}
	return ""
}

// MarshalText encodes n as FIRST, LAST or the empty string.
func (n Nulls) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// Term is one normalized ordering key.
type Term struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
	Nulls     Nulls     `json:"nulls,omitempty"`
}

// FieldSet is the set of field names an entity can be ordered by.
type FieldSet map[string]struct{}

// NewFieldSet returns a set holding names.
func NewFieldSet(names ...string) FieldSet {
	s := make(FieldSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the set's members in lexical order.
func (s FieldSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

const (
	optionDirection = "direction"
	optionNulls     = "nulls"
)

var (
	directionTokens  = []string{"ASC", "DESC", "asc", "desc", "1", "-1"}
	directionOptions = []string{"ASC", "DESC", "asc", "desc"}
	nullsOptions     = []string{"first", "last", "FIRST", "LAST"}
	sortOptions      = []string{optionDirection, optionNulls}
)

func parseDirection(token string) (Direction, bool) {
	switch token {
	case "ASC", "asc", "1":
		return Asc, true
	case "DESC", "desc", "-1":
		return Desc, true
	}
	return Asc, false
}

func oneOf(token string, allowed []string) bool {
	for _, a := range allowed {
		if token == a {
			return true
		}
	}
	return false
}

func parseNulls(token string) (Nulls, bool) {
	switch token {
	case "first", "FIRST":
		return NullsFirst, true
	case "last", "LAST":
		return NullsLast, true
	}
	return NullsDefault, false
}

// Validate checks spec against known and returns its terms in request order.
// A null spec yields no terms. Every problem found is reported; the returned
// error is then of type Errors.
func Validate(spec jsonv.Value, known FieldSet) ([]Term, error) {
	switch spec.Kind() {
	case jsonv.Null:
		return nil, nil
	case jsonv.Object:
	default:
		return nil, errors.Wrapf(ErrMalformedSpec, "order must be an object, got %s", spec.Kind())
	}

	var (
		terms []Term
		errs  Errors
		index = make(map[string]int, spec.Len())
	)
	for _, m := range spec.Members() {
		if !known.Has(m.Key) {
			errs = append(errs, &FieldError{Kind: ErrUnknownField, Field: m.Key, Allowed: known.Names()})
			continue
		}

		term, termErrs := validateTerm(m.Key, m.Value)
		if len(termErrs) > 0 {
			errs = append(errs, termErrs...)
			continue
		}

		// A repeated key keeps its first position and its last value.
		if i, ok := index[m.Key]; ok {
			terms[i] = term
			continue
		}
		index[m.Key] = len(terms)
		terms = append(terms, term)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return terms, nil
}

// ValidateJSON decodes and validates an order document.
func ValidateJSON(data []byte, known FieldSet) ([]Term, error) {
	spec, err := jsonv.Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	return Validate(spec, known)
}

func validateTerm(field string, v jsonv.Value) (Term, Errors) {
	term := Term{Field: field}

	switch v.Kind() {
	case jsonv.String, jsonv.Number:
		dir, ok := parseDirection(v.Text())
		if !ok {
			return term, Errors{{Kind: ErrInvalidDirection, Field: field, Value: v.Scalar(), Allowed: directionTokens}}
		}
		term.Direction = dir
		return term, nil

	case jsonv.Object:
		var errs Errors
		for _, opt := range v.Members() {
			switch opt.Key {
			case optionDirection:
				dir, ok := parseDirection(opt.Value.Text())
				if opt.Value.Kind() != jsonv.String || !ok || !oneOf(opt.Value.Text(), directionOptions) {
					errs = append(errs, &FieldError{Kind: ErrInvalidSortValue, Field: field, Option: opt.Key, Value: opt.Value.Interface(), Allowed: directionOptions})
					continue
				}
				term.Direction = dir
			case optionNulls:
				nulls, ok := parseNulls(opt.Value.Text())
				if opt.Value.Kind() != jsonv.String || !ok {
					errs = append(errs, &FieldError{Kind: ErrInvalidSortValue, Field: field, Option: opt.Key, Value: opt.Value.Interface(), Allowed: nullsOptions})
					continue
				}
				term.Nulls = nulls
			default:
				errs = append(errs, &FieldError{Kind: ErrUnknownSortOption, Field: field, Option: opt.Key, Allowed: sortOptions})
			}
		}
		return term, errs
	}

	return term, Errors{{Kind: ErrInvalidDirection, Field: field, Value: v.Interface(), Allowed: directionTokens}}
}

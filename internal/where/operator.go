package where

import (
	"fmt"
	"strings"

	"github.com/johnwards/repoquery/internal/jsonv"
)

// Operator is the comparison applied by a Condition.
type Operator int

const (
	OpEq Operator = iota
	OpNe
	OpLt
	OpLte
	OpGt
	OpGte
	OpIn
	OpNotIn
	OpContains
	OpNotContains
	OpIContains
	OpNotIContains
	OpNull
	OpNotNull
	OpBetween
)

// markerPrefix starts every operator key in a filter expression.
const markerPrefix = "$"

var markers = map[string]Operator{
	"$ne":         OpNe,
	"$lt":         OpLt,
	"$lte":        OpLte,
	"$gt":         OpGt,
	"$gte":        OpGte,
	"$in":         OpIn,
	"$nIn":        OpNotIn,
	"$contains":   OpContains,
	"$nContains":  OpNotContains,
	"$iContains":  OpIContains,
	"$nIContains": OpNotIContains,
	"$null":       OpNull,
	"$nNull":      OpNotNull,
	"$between":    OpBetween,
}

// ParseMarker returns the operator for a marker key such as "$gte".
func ParseMarker(key string) (Operator, bool) {
	op, ok := markers[key]
	return op, ok
}

func isMarker(key string) bool {
	return strings.HasPrefix(key, markerPrefix)
}

// Marker returns the filter key selecting op, or "" for equality.
func (op Operator) Marker() string {
	switch op {
	case OpEq:
		return ""
	case OpNe:
		return "$ne"
	case OpLt:
		return "$lt"
	case OpLte:
		return "$lte"
	case OpGt:
		return "$gt"
	case OpGte:
		return "$gte"
	case OpIn:
		return "$in"
	case OpNotIn:
		return "$nIn"
	case OpContains:
		return "$contains"
	case OpNotContains:
		return "$nContains"
	case OpIContains:
		return "$iContains"
	case OpNotIContains:
		return "$nIContains"
	case OpNull:
		return "$null"
	case OpNotNull:
		return "$nNull"
	case OpBetween:
		return "$between"
	}
	return ""
}

func (op Operator) String() string {
	switch op {
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpLt:
		return "lt"
	case OpLte:
		return "lte"
	case OpGt:
		return "gt"
	case OpGte:
		return "gte"
	case OpIn:
		return "in"
	case OpNotIn:
		return "notIn"
	case OpContains:
		return "contains"
	case OpNotContains:
		return "notContains"
	case OpIContains:
		return "iContains"
	case OpNotIContains:
		return "notIContains"
	case OpNull:
		return "null"
	case OpNotNull:
		return "notNull"
	case OpBetween:
		return "between"
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// MarshalText encodes op by name.
func (op Operator) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// Resolve turns a single-entry operator mapping such as {"$gt": 5} into the
// condition it selects for path.
//
// A $-prefixed key outside the closed marker set fails with
// ErrUnknownOperator unless WithLiteralFallback is given, in which case the
// mapping itself becomes an equality operand.
func Resolve(path string, mapping jsonv.Value, opts ...Option) (Condition, error) {
	return newCompiler(opts).resolve(path, mapping)
}

func (c *compiler) resolve(path string, mapping jsonv.Value) (Condition, error) {
	if mapping.Kind() != jsonv.Object || mapping.Len() != 1 {
		return Condition{}, malformed(path, "", "operator mapping must hold exactly one operator")
	}
	entry := mapping.Members()[0]
	operand := entry.Value

	op, ok := ParseMarker(entry.Key)
	if !ok {
		if c.literalFallback {
			return Condition{Path: path, Op: OpEq, Value: mapping.Interface()}, nil
		}
		return Condition{}, &Error{
			Kind:   ErrUnknownOperator,
			Path:   path,
			Marker: entry.Key,
			Reason: "not a recognized operator",
		}
	}

	switch op {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
		if !operand.IsScalar() {
			return Condition{}, malformed(path, entry.Key, "operand must be a string, number or boolean, got "+operand.Kind().String())
		}
		return Condition{Path: path, Op: op, Value: operand.Scalar()}, nil

	case OpContains, OpNotContains, OpIContains, OpNotIContains:
		if operand.Kind() != jsonv.String && operand.Kind() != jsonv.Number {
			return Condition{}, malformed(path, entry.Key, "operand must be a string or number, got "+operand.Kind().String())
		}
		return Condition{Path: path, Op: op, Value: operand.Text()}, nil

	case OpIn, OpNotIn:
		if operand.Kind() != jsonv.Array {
			return Condition{}, malformed(path, entry.Key, "operand must be an array, got "+operand.Kind().String())
		}
		values := make([]any, 0, operand.Len())
		for i, item := range operand.Items() {
			if !item.IsScalar() {
				return Condition{}, malformed(path, entry.Key, fmt.Sprintf("element %d must be a string, number or boolean, got %s", i, item.Kind()))
			}
			values = append(values, item.Scalar())
		}
		return Condition{Path: path, Op: op, Values: values}, nil

	case OpBetween:
		if operand.Kind() != jsonv.Array || operand.Len() != 2 {
			return Condition{}, malformed(path, entry.Key, "operand must be a [low, high] pair")
		}
		low, high := operand.Items()[0], operand.Items()[1]
		if !low.IsScalar() || !high.IsScalar() {
			return Condition{}, malformed(path, entry.Key, "range bounds must be strings or numbers")
		}
		return Condition{Path: path, Op: op, Values: []any{low.Scalar(), high.Scalar()}}, nil

	case OpNull, OpNotNull:
		if operand.Kind() != jsonv.Bool {
			return Condition{}, malformed(path, entry.Key, "operand must be true or false, got "+operand.Kind().String())
		}
		if !operand.Bool() {
			op = invertNull(op)
		}
		return Condition{Path: path, Op: op}, nil
	}

	return Condition{}, &Error{Kind: ErrUnknownOperator, Path: path, Marker: entry.Key, Reason: "operator has no resolver"}
}

func invertNull(op Operator) Operator {
	if op == OpNull {
		return OpNotNull
	}
	return OpNull
}

package where

import (
	"strings"

	"github.com/johnwards/repoquery/internal/jsonv"
)

// flattenObject compiles every entry of a filter object found under prefix.
// Nested field objects become dotted paths; the conditions of all entries are
// returned together and hold jointly.
func (c *compiler) flattenObject(obj jsonv.Value, prefix []string) ([]Condition, error) {
	var conds []Condition
	for _, m := range obj.Members() {
		if isMarker(m.Key) {
			return nil, malformed(strings.Join(prefix, "."), m.Key, "operator must be nested under a field")
		}

		// Full slice expression so sibling entries never share a backing array.
		path := append(prefix[:len(prefix):len(prefix)], m.Key)
		fieldConds, err := c.flattenField(path, m.Value)
		if err != nil {
			return nil, err
		}
		conds = append(conds, fieldConds...)
	}
	return conds, nil
}

func (c *compiler) flattenField(path []string, v jsonv.Value) ([]Condition, error) {
	dotted := strings.Join(path, ".")

	switch v.Kind() {
	case jsonv.Null:
		return []Condition{{Path: dotted, Op: OpNull}}, nil

	case jsonv.Bool, jsonv.Number, jsonv.String:
		return []Condition{{Path: dotted, Op: OpEq, Value: v.Scalar()}}, nil

	case jsonv.Array:
		return nil, malformed(dotted, "", "arrays are only allowed at the root or as operator operands")

	case jsonv.Object:
		markerCount := 0
		for _, m := range v.Members() {
			if isMarker(m.Key) {
				markerCount++
			}
		}
		if markerCount == 0 {
			return c.flattenObject(v, path)
		}
		if v.Len() > 1 {
			return nil, malformed(dotted, "", "an operator mapping must hold exactly one operator and no fields")
		}
		cond, err := c.resolve(dotted, v)
		if err != nil {
			return nil, err
		}
		return []Condition{cond}, nil
	}

	return nil, malformed(dotted, "", "unsupported value of kind "+v.Kind().String())
}

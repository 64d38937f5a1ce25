package where

import (
	"encoding/json"
	"sort"
)

// Condition is one compiled field-level constraint.
//
// Value carries the scalar operand. Values carries the members of an
// $in/$nIn set and the [low, high] bounds of $between. Null checks carry
// neither.
type Condition struct {
	Path   string   `json:"path"`
	Op     Operator `json:"op"`
	Value  any      `json:"value,omitempty"`
	Values []any    `json:"values,omitempty"`
}

// Group maps dotted field paths to conditions that must all hold.
type Group map[string]Condition

// Paths returns the group's field paths in lexical order.
func (g Group) Paths() []string {
	paths := make([]string, 0, len(g))
	for p := range g {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Tree is a compiled filter: either a single AND group or, when the filter
// root was an array, a list of groups of which at least one must hold.
type Tree struct {
	And Group
	Or  []Group
}

// IsOr reports whether the tree came from a top-level array.
func (t Tree) IsOr() bool {
	return t.Or != nil
}

// Empty reports whether the tree constrains nothing.
func (t Tree) Empty() bool {
	return len(t.Groups()) == 0
}

// Groups returns the tree as a list of alternatives. An AND tree is a single
// alternative; a tree without conditions has none.
func (t Tree) Groups() []Group {
	if t.Or != nil {
		return t.Or
	}
	if len(t.And) == 0 {
		return nil
	}
	return []Group{t.And}
}

// MarshalJSON encodes an AND tree as an object and an OR tree as an array.
func (t Tree) MarshalJSON() ([]byte, error) {
	if t.Or != nil {
		return json.Marshal(t.Or)
	}
	if t.And == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.And)
}

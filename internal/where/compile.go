// Package where compiles declarative filter expressions into condition trees.
//
// A filter is a JSON object keyed by field name. Nested objects address
// fields of related entities and compile to dotted paths; an object with a
// single $-prefixed key selects an operator instead of plain equality:
//
//	{"name": "Cafe", "user": {"age": {"$gte": 18}}}
//
// compiles to the AND group {name = "Cafe", user.age >= 18}. A top-level array
// is an OR of the filters it holds, and a bare null is shorthand for
// {"$null": true}.
package where

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/johnwards/repoquery/internal/jsonv"
)

// Option configures compilation.
type Option func(*compiler)

// WithLiteralFallback treats unrecognized $-prefixed operator keys as an
// equality match against the literal mapping instead of failing.
func WithLiteralFallback() Option {
	return func(c *compiler) {
		c.literalFallback = true
	}
}

type compiler struct {
	literalFallback bool
}

func newCompiler(opts []Option) *compiler {
	c := &compiler{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile turns a filter expression into a condition tree. A null expression
// compiles to the empty tree. The expression is never modified.
func Compile(expr jsonv.Value, opts ...Option) (Tree, error) {
	c := newCompiler(opts)

	switch expr.Kind() {
	case jsonv.Null:
		return Tree{}, nil

	case jsonv.Object:
		group, err := c.group(expr)
		if err != nil {
			return Tree{}, err
		}
		return Tree{And: group}, nil

	case jsonv.Array:
		or := make([]Group, 0, expr.Len())
		for i, item := range expr.Items() {
			if item.Kind() != jsonv.Object {
				return Tree{}, malformed("", "", fmt.Sprintf("alternative %d must be an object, got %s", i, item.Kind()))
			}
			group, err := c.group(item)
			if err != nil {
				return Tree{}, err
			}
			or = append(or, group)
		}
		return Tree{Or: or}, nil
	}

	return Tree{}, malformed("", "", "filter must be an object or an array of objects, got "+expr.Kind().String())
}

// CompileJSON decodes and compiles a filter document.
func CompileJSON(data []byte, opts ...Option) (Tree, error) {
	expr, err := jsonv.Decode(data)
	if err != nil {
		return Tree{}, errors.Wrap(err, "decode filter")
	}
	return Compile(expr, opts...)
}

// group folds the conditions of one filter object into a fresh group. A later
// condition on the same path replaces an earlier one.
func (c *compiler) group(obj jsonv.Value) (Group, error) {
	conds, err := c.flattenObject(obj, nil)
	if err != nil {
		return nil, err
	}
	group := make(Group, len(conds))
	for _, cond := range conds {
		group[cond.Path] = cond
	}
	return group, nil
}

package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/johnwards/repoquery/internal/database"
	"github.com/johnwards/repoquery/internal/where"
)

// fold wraps expr in the Unicode case-folding function.
func fold(expr string) string {
	return database.FoldFunc + "(" + expr + ")"
}

// join is a LEFT JOIN added for a relation prefix of a filter path.
type join struct {
	alias  string
	entity *Entity
	sql    string
}

// builder translates a compiled filter tree into a WHERE clause, adding one
// join per distinct relation prefix the filter traverses.
type builder struct {
	registry *Registry
	root     *Entity
	joins    []join
	byPrefix map[string]int
}

func newBuilder(registry *Registry, root *Entity) *builder {
	return &builder{
		registry: registry,
		root:     root,
		byPrefix: make(map[string]int),
	}
}

// from returns the FROM clause including every join resolved so far.
func (b *builder) from() string {
	var sb strings.Builder
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(b.root.Table))
	sb.WriteString(" ")
	sb.WriteString(rootAlias)
	for _, j := range b.joins {
		sb.WriteString(j.sql)
	}
	return sb.String()
}

// where builds the WHERE clause for tree. Groups are ORed; conditions within
// a group are ANDed in path order.
func (b *builder) where(tree where.Tree) (string, []any, error) {
	groups := tree.Groups()
	if len(groups) == 0 {
		return "", nil, nil
	}

	var args []any
	clauses := make([]string, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			// An empty alternative matches every row.
			return "", nil, nil
		}
		parts := make([]string, 0, len(g))
		for _, path := range g.Paths() {
			clause, condArgs, err := b.condition(g[path])
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, clause)
			args = append(args, condArgs...)
		}
		clauses = append(clauses, "("+strings.Join(parts, " AND ")+")")
	}

	return " WHERE " + strings.Join(clauses, " OR "), args, nil
}

// column resolves a dotted path to a qualified column, joining each relation
// segment on the way. When nullCheck is set a path ending at a belongs-to
// relation resolves to the local foreign key column.
func (b *builder) column(path string, nullCheck bool) (string, error) {
	segments := strings.Split(path, ".")
	ent := b.root
	alias := rootAlias

	for i, seg := range segments[:len(segments)-1] {
		rel, ok := ent.Relation(seg)
		if !ok {
			reason := "is not a relation"
			if _, isCol := ent.Column(seg); !isCol {
				reason = "is not a field"
			}
			return "", &FieldError{Entity: b.root.Name, Path: path, Segment: seg, Reason: fmt.Sprintf("%q %s of %s", seg, reason, ent.Name)}
		}
		target, err := b.registry.Entity(rel.Target)
		if err != nil {
			return "", fmt.Errorf("relation %s.%s: %w", ent.Name, rel.Name, err)
		}
		alias = b.joinFor(strings.Join(segments[:i+1], "."), alias, rel, target)
		ent = target
	}

	last := segments[len(segments)-1]
	if _, ok := ent.Column(last); !ok {
		reason := "is not a field"
		if rel, isRel := ent.Relation(last); isRel {
			if nullCheck && rel.Kind == BelongsTo {
				return qualify(alias, rel.LocalKey), nil
			}
			reason = "is a relation and needs a nested filter"
		}
		return "", &FieldError{Entity: b.root.Name, Path: path, Segment: last, Reason: fmt.Sprintf("%q %s of %s", last, reason, ent.Name)}
	}
	return qualify(alias, last), nil
}

func (b *builder) joinFor(prefix, parentAlias string, rel Relation, target *Entity) string {
	if i, ok := b.byPrefix[prefix]; ok {
		return b.joins[i].alias
	}
	alias := "t" + strconv.Itoa(len(b.joins)+1)
	// BelongsTo and HasMany join the same way: the target's key column
	// against the parent's local column.
	sql := fmt.Sprintf(" LEFT JOIN %s %s ON %s = %s",
		quoteIdent(target.Table), alias,
		qualify(alias, rel.TargetKey), qualify(parentAlias, rel.LocalKey))
	b.byPrefix[prefix] = len(b.joins)
	b.joins = append(b.joins, join{alias: alias, entity: target, sql: sql})
	return alias
}

func (b *builder) condition(c where.Condition) (string, []any, error) {
	col, err := b.column(c.Path, c.Op == where.OpNull || c.Op == where.OpNotNull)
	if err != nil {
		return "", nil, err
	}

	switch c.Op {
	case where.OpEq:
		return col + " = ?", []any{sqlArg(c.Value)}, nil
	case where.OpNe:
		return col + " != ?", []any{sqlArg(c.Value)}, nil
	case where.OpLt:
		return col + " < ?", []any{sqlArg(c.Value)}, nil
	case where.OpLte:
		return col + " <= ?", []any{sqlArg(c.Value)}, nil
	case where.OpGt:
		return col + " > ?", []any{sqlArg(c.Value)}, nil
	case where.OpGte:
		return col + " >= ?", []any{sqlArg(c.Value)}, nil
	case where.OpIn, where.OpNotIn:
		if len(c.Values) == 0 {
			if c.Op == where.OpIn {
				return "1 = 0", nil, nil
			}
			return "1 = 1", nil, nil
		}
		placeholders := make([]string, len(c.Values))
		args := make([]any, len(c.Values))
		for i, v := range c.Values {
			placeholders[i] = "?"
			args[i] = sqlArg(v)
		}
		kw := " IN ("
		if c.Op == where.OpNotIn {
			kw = " NOT IN ("
		}
		return col + kw + strings.Join(placeholders, ", ") + ")", args, nil
	case where.OpContains:
		return "instr(" + col + ", ?) > 0", []any{sqlArg(c.Value)}, nil
	case where.OpNotContains:
		return "NOT (instr(" + col + ", ?) > 0)", []any{sqlArg(c.Value)}, nil
	case where.OpIContains:
		return "instr(" + fold(col) + ", " + fold("?") + ") > 0", []any{sqlArg(c.Value)}, nil
	case where.OpNotIContains:
		return "NOT (instr(" + fold(col) + ", " + fold("?") + ") > 0)", []any{sqlArg(c.Value)}, nil
	case where.OpNull:
		return col + " IS NULL", nil, nil
	case where.OpNotNull:
		return col + " IS NOT NULL", nil, nil
	case where.OpBetween:
		if len(c.Values) != 2 {
			return "", nil, fmt.Errorf("between on %q has %d bounds", c.Path, len(c.Values))
		}
		return col + " BETWEEN ? AND ?", []any{sqlArg(c.Values[0]), sqlArg(c.Values[1])}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operator %s on %q", c.Op, c.Path)
	}
}

// sqlArg converts a compiled operand into a driver value.
func sqlArg(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return v
	}
}

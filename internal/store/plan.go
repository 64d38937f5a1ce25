package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/johnwards/repoquery/internal/domain"
	"github.com/johnwards/repoquery/internal/order"
	"github.com/johnwards/repoquery/internal/where"
)

// rootAlias is the table alias of the entity being queried.
const rootAlias = "t0"

// Plan is a getMany request translated into SQL.
type Plan struct {
	Entity    string          `json:"entity"`
	Where     where.Tree      `json:"where"`
	Order     []order.Term    `json:"order"`
	Relations []string        `json:"relations,omitempty"`
	DataType  domain.DataType `json:"dataType"`

	SelectSQL  string `json:"select"`
	SelectArgs []any  `json:"selectArgs"`
	CountSQL   string `json:"count"`
	CountArgs  []any  `json:"countArgs"`

	entity    *Entity
	relations []Relation
}

// PlanOptions bound the plans a Planner builds.
type PlanOptions struct {
	MaxPageSize int
	Compile     []where.Option
}

// Planner validates getMany requests and translates them into SQL against
// the entities of a registry.
type Planner struct {
	registry *Registry
	opts     PlanOptions
}

// NewPlanner creates a Planner. A MaxPageSize of zero means 100.
func NewPlanner(registry *Registry, opts PlanOptions) *Planner {
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	return &Planner{registry: registry, opts: opts}
}

// Plan validates q against the named entity and builds its SQL. The order
// specification is validated before the filter is compiled.
func (p *Planner) Plan(entityName string, q domain.Query) (*Plan, error) {
	ent, err := p.registry.Entity(entityName)
	if err != nil {
		return nil, err
	}

	terms, err := order.Validate(q.Order, ent.FieldNames())
	if err != nil {
		return nil, err
	}

	tree, err := where.Compile(q.Where, p.opts.Compile...)
	if err != nil {
		return nil, err
	}

	relations, err := resolveRelations(ent, q.Relations)
	if err != nil {
		return nil, err
	}

	dataType := q.DataType
	switch dataType {
	case "":
		dataType = domain.DataAll
	case domain.DataAll, domain.DataRows, domain.DataCount:
	default:
		return nil, &ValidationError{Message: fmt.Sprintf("dataType must be %s, %s or %s", domain.DataCount, domain.DataRows, domain.DataAll)}
	}

	b := newBuilder(p.registry, ent)
	whereSQL, whereArgs, err := b.where(tree)
	if err != nil {
		return nil, err
	}
	fromSQL := b.from()

	plan := &Plan{
		Entity:    ent.Name,
		Where:     tree,
		Order:     terms,
		Relations: q.Relations,
		DataType:  dataType,
		entity:    ent,
		relations: relations,
	}

	pk := qualify(rootAlias, ent.PrimaryKey)
	plan.CountSQL = "SELECT COUNT(DISTINCT " + pk + ")" + fromSQL + whereSQL
	plan.CountArgs = whereArgs

	cols := make([]string, len(ent.Columns))
	for i, c := range ent.Columns {
		cols[i] = qualify(rootAlias, c.Name)
	}
	selectSQL := "SELECT DISTINCT " + strings.Join(cols, ", ") + fromSQL + whereSQL + orderBy(ent, terms)
	selectArgs := make([]any, len(whereArgs))
	copy(selectArgs, whereArgs)

	if q.Pagination != nil {
		pg := *q.Pagination
		if pg.Page < 0 {
			return nil, &ValidationError{Message: "pagination page must be greater than or equal to 0"}
		}
		if pg.Size < 1 || pg.Size > p.opts.MaxPageSize {
			return nil, &ValidationError{Message: fmt.Sprintf("pagination size must be between 1 and %d", p.opts.MaxPageSize)}
		}
		if pg.Page > math.MaxInt/pg.Size {
			return nil, &ValidationError{Message: fmt.Sprintf("pagination page must be at most %d for size %d", math.MaxInt/pg.Size, pg.Size)}
		}
		selectSQL += " LIMIT ? OFFSET ?"
		selectArgs = append(selectArgs, pg.Size, pg.Page*pg.Size)
	}
	plan.SelectSQL = selectSQL
	plan.SelectArgs = selectArgs

	return plan, nil
}

// String renders the plan as indented JSON.
func (p *Plan) String() string {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(b)
}

func resolveRelations(ent *Entity, names []string) ([]Relation, error) {
	relations := make([]Relation, 0, len(names))
	for _, name := range names {
		rel, ok := ent.Relation(name)
		if !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("relation %q is not defined on %s", name, ent.Name)}
		}
		relations = append(relations, rel)
	}
	return relations, nil
}

func orderBy(ent *Entity, terms []order.Term) string {
	parts := make([]string, 0, len(terms)+1)
	tieBreak := true
	for _, t := range terms {
		part := qualify(rootAlias, t.Field) + " " + t.Direction.String()
		if t.Nulls != order.NullsDefault {
			part += " NULLS " + t.Nulls.String()
		}
		parts = append(parts, part)
		if t.Field == ent.PrimaryKey {
			tieBreak = false
		}
	}
	// Order by the primary key last so pages are stable.
	if tieBreak {
		parts = append(parts, qualify(rootAlias, ent.PrimaryKey)+" ASC")
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func qualify(alias, column string) string {
	return alias + "." + quoteIdent(column)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

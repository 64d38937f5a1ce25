package store

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/johnwards/repoquery/internal/order"
)

// ColumnType is the storage class of a column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInteger
	TypeReal
	TypeTimestamp
)

// Column describes one stored field of an entity.
type Column struct {
	Name string
	Type ColumnType
	// ReadOnly columns are maintained by the store and rejected in input.
	ReadOnly bool
}

// KeyKind is how an entity's primary key is assigned.
type KeyKind int

const (
	// KeyAutoIncrement keys are assigned by SQLite.
	KeyAutoIncrement KeyKind = iota
	// KeyUUID keys are random UUIDs assigned on create.
	KeyUUID
)

// RelationKind is the cardinality of a relation.
type RelationKind int

const (
	// BelongsTo relations hold the target's key in a local column.
	BelongsTo RelationKind = iota
	// HasMany relations are the inverse: the target holds our key.
	HasMany
)

// Relation links an entity to another. For BelongsTo, LocalKey is the
// foreign key column on this entity and TargetKey the target's primary key.
// For HasMany, LocalKey is this entity's primary key and TargetKey the
// foreign key column on the target.
type Relation struct {
	Name      string
	Kind      RelationKind
	Target    string
	LocalKey  string
	TargetKey string
}

// Entity is the metadata of one queryable table.
type Entity struct {
	Name       string
	Table      string
	PrimaryKey string
	Key        KeyKind
	Columns    []Column
	Relations  []Relation
}

// Column returns the named column.
func (e *Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Relation returns the named relation.
func (e *Entity) Relation(name string) (Relation, bool) {
	for _, r := range e.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// FieldNames returns the names an entity can be ordered by: its columns.
func (e *Entity) FieldNames() order.FieldSet {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return order.NewFieldSet(names...)
}

// ColumnNames returns the entity's columns in declaration order.
func (e *Entity) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// ParseKey converts a primary key taken from a URL into its stored type.
func (e *Entity) ParseKey(id string) (any, error) {
	if e.Key == KeyUUID {
		return id, nil
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid %s id %q", e.Name, id)}
	}
	return n, nil
}

// Registry holds the metadata of every entity the store serves. It is
// read-only once built.
type Registry struct {
	entities map[string]*Entity
}

// NewRegistry builds a registry over entities.
func NewRegistry(entities ...*Entity) *Registry {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		r.entities[e.Name] = e
	}
	return r
}

// Entity returns the named entity's metadata.
func (r *Registry) Entity(name string) (*Entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return nil, fmt.Errorf("entity %q not found: %w", name, ErrNotFound)
	}
	return e, nil
}

// FieldNames returns the orderable fields of the named entity.
func (r *Registry) FieldNames(name string) (order.FieldSet, error) {
	e, err := r.Entity(name)
	if err != nil {
		return nil, err
	}
	return e.FieldNames(), nil
}

// Names returns the registered entity names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entities))
	for n := range r.entities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Users is the metadata of the users table.
var Users = &Entity{
	Name:       "users",
	Table:      "users",
	PrimaryKey: "id",
	Key:        KeyUUID,
	Columns: []Column{
		{Name: "id", Type: TypeText, ReadOnly: true},
		{Name: "name", Type: TypeText},
		{Name: "email", Type: TypeText},
		{Name: "age", Type: TypeInteger},
		{Name: "created_at", Type: TypeTimestamp, ReadOnly: true},
		{Name: "updated_at", Type: TypeTimestamp, ReadOnly: true},
	},
	Relations: []Relation{
		{Name: "places", Kind: HasMany, Target: "places", LocalKey: "id", TargetKey: "user_id"},
	},
}

// Places is the metadata of the places table.
var Places = &Entity{
	Name:       "places",
	Table:      "places",
	PrimaryKey: "id",
	Key:        KeyAutoIncrement,
	Columns: []Column{
		{Name: "id", Type: TypeInteger, ReadOnly: true},
		{Name: "name", Type: TypeText},
		{Name: "description", Type: TypeText},
		{Name: "category", Type: TypeText},
		{Name: "rating", Type: TypeReal},
		{Name: "visited_at", Type: TypeTimestamp},
		{Name: "user_id", Type: TypeText},
		{Name: "created_at", Type: TypeTimestamp, ReadOnly: true},
		{Name: "updated_at", Type: TypeTimestamp, ReadOnly: true},
	},
	Relations: []Relation{
		{Name: "user", Kind: BelongsTo, Target: "users", LocalKey: "user_id", TargetKey: "id"},
	},
}

// DefaultRegistry returns the registry of the built-in entities.
func DefaultRegistry() *Registry {
	return NewRegistry(Users, Places)
}

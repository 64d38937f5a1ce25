package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/johnwards/repoquery/internal/domain"
	"github.com/johnwards/repoquery/internal/where"
)

// Repository defines the generic read and write operations served for every
// registered entity.
type Repository interface {
	Explain(entity string, q domain.Query) (*Plan, error)
	GetMany(ctx context.Context, entity string, q domain.Query) (*domain.Result, error)
	GetOne(ctx context.Context, entity string, q domain.OneQuery) (domain.Record, error)
	GetByID(ctx context.Context, entity, id string, relations []string) (domain.Record, error)
	Create(ctx context.Context, entity string, in domain.Input) (domain.Record, error)
	CreateMany(ctx context.Context, entity string, ins []domain.Input) ([]domain.Record, error)
	Update(ctx context.Context, entity, id string, in domain.Input) (domain.Record, error)
	Delete(ctx context.Context, entity, id string) (bool, error)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository implements Repository backed by SQLite.
type SQLiteRepository struct {
	db       *sql.DB
	registry *Registry
	planner  *Planner
}

// RepositoryOption configures a SQLiteRepository.
type RepositoryOption func(*PlanOptions)

// WithMaxPageSize bounds the pagination size a request may ask for.
func WithMaxPageSize(n int) RepositoryOption {
	return func(o *PlanOptions) { o.MaxPageSize = n }
}

// WithCompileOptions passes options to the filter compiler.
func WithCompileOptions(opts ...where.Option) RepositoryOption {
	return func(o *PlanOptions) { o.Compile = append(o.Compile, opts...) }
}

// NewSQLiteRepository creates a new SQLiteRepository over the entities of
// registry.
func NewSQLiteRepository(db *sql.DB, registry *Registry, opts ...RepositoryOption) *SQLiteRepository {
	var po PlanOptions
	for _, o := range opts {
		o(&po)
	}
	return &SQLiteRepository{
		db:       db,
		registry: registry,
		planner:  NewPlanner(registry, po),
	}
}

// Explain validates q and returns the SQL it would run without touching the
// database.
func (r *SQLiteRepository) Explain(entity string, q domain.Query) (*Plan, error) {
	return r.planner.Plan(entity, q)
}

// GetMany returns the rows and/or total count matching q.
func (r *SQLiteRepository) GetMany(ctx context.Context, entity string, q domain.Query) (*domain.Result, error) {
	plan, err := r.planner.Plan(entity, q)
	if err != nil {
		return nil, err
	}

	result := &domain.Result{DataType: plan.DataType}

	if plan.DataType != domain.DataRows {
		if err := r.db.QueryRowContext(ctx, plan.CountSQL, plan.CountArgs...).Scan(&result.Count); err != nil {
			return nil, fmt.Errorf("count %s: %w", entity, err)
		}
	}

	if plan.DataType != domain.DataCount {
		records, err := queryRecords(ctx, r.db, plan.entity, plan.SelectSQL, plan.SelectArgs...)
		if err != nil {
			return nil, err
		}
		if err := r.loadRelations(ctx, plan.entity, plan.relations, records); err != nil {
			return nil, err
		}
		result.Data = records
	}

	return result, nil
}

// GetOne returns the first row, in primary key order, matching q.
func (r *SQLiteRepository) GetOne(ctx context.Context, entity string, q domain.OneQuery) (domain.Record, error) {
	res, err := r.GetMany(ctx, entity, domain.Query{
		Where:      q.Where,
		Relations:  q.Relations,
		Pagination: &domain.Pagination{Page: 0, Size: 1},
		DataType:   domain.DataRows,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("%s: no row matches: %w", entity, ErrNotFound)
	}
	return res.Data[0], nil
}

// GetByID returns the row with the given primary key.
func (r *SQLiteRepository) GetByID(ctx context.Context, entity, id string, relations []string) (domain.Record, error) {
	ent, err := r.registry.Entity(entity)
	if err != nil {
		return nil, err
	}
	rels, err := resolveRelations(ent, relations)
	if err != nil {
		return nil, err
	}
	rec, err := getByKey(ctx, r.db, ent, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, ent, rels, []domain.Record{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts a row and returns it as stored.
func (r *SQLiteRepository) Create(ctx context.Context, entity string, in domain.Input) (domain.Record, error) {
	ent, err := r.registry.Entity(entity)
	if err != nil {
		return nil, err
	}
	return insert(ctx, r.db, ent, in)
}

// CreateMany inserts every input in a single transaction. Either all rows are
// created or none are.
func (r *SQLiteRepository) CreateMany(ctx context.Context, entity string, ins []domain.Input) ([]domain.Record, error) {
	ent, err := r.registry.Entity(entity)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	records := make([]domain.Record, 0, len(ins))
	for i, in := range ins {
		rec, err := insert(ctx, tx, ent, in)
		if err != nil {
			var validationErr *ValidationError
			if errors.As(err, &validationErr) {
				return nil, &ValidationError{Message: fmt.Sprintf("input %d: %s", i, validationErr.Message)}
			}
			return nil, err
		}
		records = append(records, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return records, nil
}

// Update merges in into the row with the given primary key and returns the
// result.
func (r *SQLiteRepository) Update(ctx context.Context, entity, id string, in domain.Input) (domain.Record, error) {
	ent, err := r.registry.Entity(entity)
	if err != nil {
		return nil, err
	}
	key, err := ent.ParseKey(id)
	if err != nil {
		return nil, err
	}

	cols, args, err := inputColumns(ent, in)
	if err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, quoteIdent(c)+" = ?")
	}
	if _, ok := ent.Column("updated_at"); ok {
		sets = append(sets, quoteIdent("updated_at")+" = ?")
		args = append(args, now())
	}
	args = append(args, key)

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", quoteIdent(ent.Table), strings.Join(sets, ", "), quoteIdent(ent.PrimaryKey)),
		args...,
	)
	if err != nil {
		return nil, classifyWrite(fmt.Sprintf("update %s %s", entity, id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}

	return getByKey(ctx, r.db, ent, id)
}

// Delete removes the row with the given primary key. It reports false when
// no row had that key.
func (r *SQLiteRepository) Delete(ctx context.Context, entity, id string) (bool, error) {
	ent, err := r.registry.Entity(entity)
	if err != nil {
		return false, err
	}
	key, err := ent.ParseKey(id)
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quoteIdent(ent.Table), quoteIdent(ent.PrimaryKey)),
		key,
	)
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", entity, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func insert(ctx context.Context, q querier, ent *Entity, in domain.Input) (domain.Record, error) {
	cols, args, err := inputColumns(ent, in)
	if err != nil {
		return nil, err
	}

	var id string
	if ent.Key == KeyUUID {
		id = uuid.NewString()
		cols = append(cols, ent.PrimaryKey)
		args = append(args, id)
	}
	ts := now()
	for _, c := range []string{"created_at", "updated_at"} {
		if _, ok := ent.Column(c); ok {
			cols = append(cols, c)
			args = append(args, ts)
		}
	}

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		placeholders[i] = "?"
	}

	res, err := q.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(ent.Table), strings.Join(quoted, ", "), strings.Join(placeholders, ", ")),
		args...,
	)
	if err != nil {
		return nil, classifyWrite("insert "+ent.Name, err)
	}

	if ent.Key == KeyAutoIncrement {
		n, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		id = fmt.Sprint(n)
	}

	return getByKey(ctx, q, ent, id)
}

// inputColumns validates in against ent's writable columns and returns the
// columns and driver values in lexical column order.
func inputColumns(ent *Entity, in domain.Input) ([]string, []any, error) {
	if len(in) == 0 {
		return nil, nil, &ValidationError{Message: fmt.Sprintf("%s input has no fields", ent.Name)}
	}

	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]any, 0, len(names))
	for _, name := range names {
		col, ok := ent.Column(name)
		if !ok {
			return nil, nil, &ValidationError{Message: fmt.Sprintf("%q is not a field of %s", name, ent.Name)}
		}
		if col.ReadOnly {
			return nil, nil, &ValidationError{Message: fmt.Sprintf("%q on %s is read-only", name, ent.Name)}
		}
		v, err := columnValue(col, in[name])
		if err != nil {
			return nil, nil, &ValidationError{Message: fmt.Sprintf("%q on %s: %s", name, ent.Name, err.Error())}
		}
		args = append(args, v)
	}
	return names, args, nil
}

// columnValue converts a decoded JSON value into the driver value for col.
func columnValue(col Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.Type {
	case TypeText, TypeTimestamp:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		return s, nil
	case TypeInteger:
		switch n := v.(type) {
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("must be an integer")
			}
			return i, nil
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("must be an integer")
			}
			return int64(n), nil
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		}
		return nil, fmt.Errorf("must be an integer")
	case TypeReal:
		switch n := v.(type) {
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("must be a number")
			}
			return f, nil
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		case int:
			return float64(n), nil
		}
		return nil, fmt.Errorf("must be a number")
	}
	return nil, fmt.Errorf("unsupported column type")
}

func getByKey(ctx context.Context, q querier, ent *Entity, id string) (domain.Record, error) {
	key, err := ent.ParseKey(id)
	if err != nil {
		return nil, err
	}
	records, err := queryRecords(ctx, q, ent,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", selectList(ent), quoteIdent(ent.Table), quoteIdent(ent.PrimaryKey)),
		key,
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s %s: %w", ent.Name, id, ErrNotFound)
	}
	return records[0], nil
}

func selectList(ent *Entity) string {
	cols := make([]string, len(ent.Columns))
	for i, c := range ent.Columns {
		cols[i] = quoteIdent(c.Name)
	}
	return strings.Join(cols, ", ")
}

// queryRecords runs a query selecting ent's columns in declaration order.
func queryRecords(ctx context.Context, q querier, ent *Entity, query string, args ...any) ([]domain.Record, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", ent.Name, err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]domain.Record, 0)
	for rows.Next() {
		values := make([]any, len(ent.Columns))
		ptrs := make([]any, len(ent.Columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", ent.Name, err)
		}
		rec := make(domain.Record, len(ent.Columns))
		for i, c := range ent.Columns {
			rec[c.Name] = columnResult(c, values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", ent.Name, err)
	}
	return records, nil
}

func columnResult(col Column, v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int64:
		if col.Type == TypeReal {
			return float64(x)
		}
	}
	return v
}

// loadRelations attaches each relation to records. BelongsTo relations load
// as a single record or nil, HasMany relations as a possibly empty slice.
func (r *SQLiteRepository) loadRelations(ctx context.Context, ent *Entity, relations []Relation, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, rel := range relations {
		target, err := r.registry.Entity(rel.Target)
		if err != nil {
			return fmt.Errorf("relation %s.%s: %w", ent.Name, rel.Name, err)
		}

		keys := make([]any, 0, len(records))
		seen := make(map[string]bool, len(records))
		for _, rec := range records {
			v := rec[rel.LocalKey]
			if v == nil || seen[keyString(v)] {
				continue
			}
			seen[keyString(v)] = true
			keys = append(keys, v)
		}

		var related []domain.Record
		if len(keys) > 0 {
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
			related, err = queryRecords(ctx, r.db, target,
				fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s) ORDER BY %s ASC",
					selectList(target), quoteIdent(target.Table), quoteIdent(rel.TargetKey), placeholders, quoteIdent(target.PrimaryKey)),
				keys...,
			)
			if err != nil {
				return err
			}
		}

		grouped := make(map[string][]domain.Record, len(related))
		for _, rec := range related {
			k := keyString(rec[rel.TargetKey])
			grouped[k] = append(grouped[k], rec)
		}

		for _, rec := range records {
			matches := grouped[keyString(rec[rel.LocalKey])]
			if rec[rel.LocalKey] == nil {
				matches = nil
			}
			switch rel.Kind {
			case BelongsTo:
				if len(matches) > 0 {
					rec[rel.Name] = matches[0]
				} else {
					rec[rel.Name] = nil
				}
			case HasMany:
				if matches == nil {
					matches = []domain.Record{}
				}
				rec[rel.Name] = matches
			}
		}
	}
	return nil
}

func keyString(v any) string {
	return fmt.Sprint(v)
}

// Package testhelpers builds databases for tests.
package testhelpers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/johnwards/repoquery/internal/database"
	"github.com/johnwards/repoquery/internal/seed"
)

// NewTestDB returns an empty in-memory database opened through database.Open,
// so pragmas and SQL functions match the server's. It is closed when the test
// ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewMigratedDB returns an in-memory database with the users and places
// schema and no rows.
func NewMigratedDB(t *testing.T) *sql.DB {
	t.Helper()

	db := NewTestDB(t)
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// NewSeededDB returns a migrated in-memory database holding the seed users
// and places.
func NewSeededDB(t *testing.T) *sql.DB {
	t.Helper()

	db := NewMigratedDB(t)
	if err := seed.Seed(context.Background(), db); err != nil {
		t.Fatalf("seed test database: %v", err)
	}
	return db
}

package seed

import (
	"context"
	"database/sql"
	"fmt"
)

// Seeded user IDs.
const (
	AnnID  = "0b7f3c1e-1a2b-4c3d-8e9f-000000000001"
	BobID  = "0b7f3c1e-1a2b-4c3d-8e9f-000000000002"
	CaraID = "0b7f3c1e-1a2b-4c3d-8e9f-000000000003"
)

type userDef struct {
	id    string
	name  string
	email string
	age   *int
}

func intPtr(n int) *int { return &n }

var defaultUsers = []userDef{
	{id: AnnID, name: "Ann Lee", email: "ann@example.com", age: intPtr(34)},
	{id: BobID, name: "Bob Stone", email: "bob@example.com", age: intPtr(27)},
	{id: CaraID, name: "Cara Diaz", email: "cara@example.com"},
}

// Users inserts the default users that do not exist yet.
func Users(ctx context.Context, db *sql.DB) error {
	for _, u := range defaultUsers {
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO users (id, name, email, age, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			u.id, u.name, u.email, u.age, seededAt, seededAt,
		); err != nil {
			return fmt.Errorf("insert user %s: %w", u.email, err)
		}
	}
	return nil
}

package seed

import (
	"context"
	"database/sql"
	"fmt"
)

// Seed inserts all standard seed data into the database. It is idempotent:
// existing rows are left untouched. Users go first so places can reference
// them.
func Seed(ctx context.Context, db *sql.DB) error {
	if err := Users(ctx, db); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := Places(ctx, db); err != nil {
		return fmt.Errorf("seed places: %w", err)
	}
	return nil
}

// seededAt is the creation timestamp of every seeded row.
const seededAt = "2024-01-01T00:00:00.000Z"

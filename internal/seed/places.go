package seed

import (
	"context"
	"database/sql"
	"fmt"
)

type placeDef struct {
	id          int64
	name        string
	description *string
	category    string
	rating      *float64
	visitedAt   *string
	userID      *string
}

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

var defaultPlaces = []placeDef{
	{id: 1, name: "Central Park", description: strPtr("Big green park in Manhattan"), category: "park", rating: floatPtr(4.5), visitedAt: strPtr("2024-03-01T10:00:00.000Z"), userID: strPtr(AnnID)},
	{id: 2, name: "Louvre", description: strPtr("Art museum in Paris"), category: "museum", rating: floatPtr(4.8), visitedAt: strPtr("2024-05-10T14:30:00.000Z"), userID: strPtr(AnnID)},
	{id: 3, name: "Joe's Pizza", description: strPtr("Classic NY slice"), category: "restaurant", rating: floatPtr(4.1), userID: strPtr(BobID)},
	{id: 4, name: "Tate Modern", description: strPtr("Modern ART gallery"), category: "museum", rating: floatPtr(4.3), visitedAt: strPtr("2023-11-20T09:15:00.000Z"), userID: strPtr(BobID)},
	{id: 5, name: "Golden Gate Park", category: "park"},
}

// Places inserts the default places that do not exist yet.
func Places(ctx context.Context, db *sql.DB) error {
	for _, p := range defaultPlaces {
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO places (id, name, description, category, rating, visited_at, user_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.id, p.name, p.description, p.category, p.rating, p.visitedAt, p.userID, seededAt, seededAt,
		); err != nil {
			return fmt.Errorf("insert place %s: %w", p.name, err)
		}
	}
	return nil
}

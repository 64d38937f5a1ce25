package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/johnwards/repoquery/internal/api"
	"github.com/johnwards/repoquery/internal/seed"
)

// Handler serves the admin API at /_repoquery/.
type Handler struct {
	db *sql.DB
}

// dataTableNames lists all data tables in foreign-key-safe deletion order.
var dataTableNames = []string{
	"places",
	"users",
}

// Reset drops all data from all tables and re-runs seeds.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := ResetData(r.Context(), h.db); err != nil {
		writeInternal(w, r, "failed to reset", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SeedData runs seed data without dropping existing data first.
func (h *Handler) SeedData(w http.ResponseWriter, r *http.Request) {
	if err := seed.Seed(r.Context(), h.db); err != nil {
		writeInternal(w, r, "failed to seed", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeInternal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	corrID := api.CorrelationID(r.Context())
	slog.Error(msg, "error", err, "correlationId", corrID)
	apiErr := api.NewInternalError(corrID)
	apiErr.Message = fmt.Sprintf("%s: %s", msg, err)
	api.WriteError(w, http.StatusInternalServerError, apiErr)
}

// ResetData clears all data tables within a transaction and re-seeds.
func ResetData(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range dataTableNames {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil { //nolint:gosec // table names are hardcoded constants
			return fmt.Errorf("clear table %s: %w", table, err)
		}
	}
	// Restart place ids so reseeded rows and later creates are predictable.
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'places'`); err != nil {
		return fmt.Errorf("reset place ids: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return seed.Seed(ctx, db)
}

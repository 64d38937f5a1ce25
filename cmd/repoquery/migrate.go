package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/johnwards/repoquery/internal/database"
	"github.com/johnwards/repoquery/internal/seed"
)

func newMigrateCmd() *cobra.Command {
	var skipSeed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed data, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() { _ = db.Close() }()

			ctx := cmd.Context()
			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			if !skipSeed {
				if err := seed.Seed(ctx, db); err != nil {
					return fmt.Errorf("seed data: %w", err)
				}
			}

			version, err := database.Version(ctx, db)
			if err != nil {
				return err
			}
			slog.Info("database ready", "db", cfg.DBPath, "version", version, "seeded", !skipSeed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipSeed, "no-seed", false, "apply migrations only")
	return cmd
}

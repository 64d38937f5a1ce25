package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnwards/repoquery/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "repoquery",
		Short:         "Generic JSON query API over SQLite entities",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Serving is the default when no subcommand is given.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(newServeCmd(), newCompileCmd(), newMigrateCmd())
	return root
}

// loadConfig reads the configuration and installs the default logger at the
// configured level.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/johnwards/repoquery/internal/api"
	"github.com/johnwards/repoquery/internal/api/admin"
	"github.com/johnwards/repoquery/internal/api/entities"
	"github.com/johnwards/repoquery/internal/config"
	"github.com/johnwards/repoquery/internal/database"
	"github.com/johnwards/repoquery/internal/seed"
	"github.com/johnwards/repoquery/internal/store"
	"github.com/johnwards/repoquery/internal/where"
)

// rateLimiterTTL is how long an idle client's bucket is kept.
const rateLimiterTTL = 10 * time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if err := seed.Seed(ctx, db); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}

	s := store.New(db, store.DefaultRegistry(), repositoryOptions(cfg)...)

	mux := http.NewServeMux()

	entities.RegisterRoutes(mux, s)

	// Admin API
	admin.RegisterRoutes(mux, s.DB)

	mux.Handle("GET "+api.MetricsPath, promhttp.Handler())

	// Catch-all: return 404 in the standard error format.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		corrID := api.CorrelationID(r.Context())
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError(
			fmt.Sprintf("No route found for %s %s", r.Method, r.URL.Path),
			corrID,
		))
	})

	var limiter *api.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = api.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, rateLimiterTTL)
	}

	handler := api.Chain(mux,
		api.Recovery(),
		api.RequestID(),
		api.Logging(),
		api.RateLimit(limiter),
		api.Auth(cfg.AuthToken),
		api.JSONContentType(),
		api.Metrics(),
	)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("shutting down server")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting repoquery server",
		"addr", cfg.Addr,
		"db", cfg.DBPath,
		"entities", s.Registry.Names(),
		"maxPageSize", cfg.MaxPageSize,
		"rateLimit", cfg.RateLimit,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}

func repositoryOptions(cfg config.Config) []store.RepositoryOption {
	opts := []store.RepositoryOption{store.WithMaxPageSize(cfg.MaxPageSize)}
	if cfg.LiteralFallback {
		opts = append(opts, store.WithCompileOptions(where.WithLiteralFallback()))
	}
	return opts
}

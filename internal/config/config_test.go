package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/johnwards/repoquery/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REPOQUERY_CONFIG",
		"REPOQUERY_ADDR",
		"REPOQUERY_DB",
		"REPOQUERY_AUTH_TOKEN",
		"REPOQUERY_LOG_LEVEL",
		"REPOQUERY_MAX_PAGE_SIZE",
		"REPOQUERY_RATE_LIMIT",
		"REPOQUERY_RATE_BURST",
		"REPOQUERY_LITERAL_FALLBACK",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":8080")
	}
	if cfg.DBPath != "repoquery.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "repoquery.db")
	}
	if cfg.AuthToken != "" {
		t.Errorf("AuthToken = %q, want empty", cfg.AuthToken)
	}
	if cfg.MaxPageSize != 100 {
		t.Errorf("MaxPageSize = %d, want 100", cfg.MaxPageSize)
	}
	if cfg.RateLimit != 0 || cfg.RateBurst != 20 {
		t.Errorf("RateLimit/RateBurst = %v/%d, want 0/20", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.LiteralFallback {
		t.Error("LiteralFallback = true, want false")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPOQUERY_ADDR", ":9090")
	t.Setenv("REPOQUERY_DB", "/tmp/test.db")
	t.Setenv("REPOQUERY_AUTH_TOKEN", "secret-token")
	t.Setenv("REPOQUERY_LOG_LEVEL", "DEBUG")
	t.Setenv("REPOQUERY_MAX_PAGE_SIZE", "25")
	t.Setenv("REPOQUERY_RATE_LIMIT", "2.5")
	t.Setenv("REPOQUERY_LITERAL_FALLBACK", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":9090")
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/tmp/test.db")
	}
	if cfg.AuthToken != "secret-token" {
		t.Errorf("AuthToken = %q, want %q", cfg.AuthToken, "secret-token")
	}
	if cfg.MaxPageSize != 25 {
		t.Errorf("MaxPageSize = %d, want 25", cfg.MaxPageSize)
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v, want 2.5", cfg.RateLimit)
	}
	if !cfg.LiteralFallback {
		t.Error("LiteralFallback = false, want true")
	}
	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, %v, want debug", level, err)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "repoquery.yaml")
	content := "addr: \":7070\"\ndb: file.db\nmax_page_size: 30\nrate_limit: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REPOQUERY_CONFIG", path)
	t.Setenv("REPOQUERY_DB", "env.db")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":7070" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":7070")
	}
	if cfg.DBPath != "env.db" {
		t.Errorf("DBPath = %q, want env to override file", cfg.DBPath)
	}
	if cfg.MaxPageSize != 30 || cfg.RateLimit != 5 {
		t.Errorf("MaxPageSize/RateLimit = %d/%v, want 30/5", cfg.MaxPageSize, cfg.RateLimit)
	}
	if cfg.RateBurst != 20 {
		t.Errorf("RateBurst = %d, want default 20", cfg.RateBurst)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"REPOQUERY_MAX_PAGE_SIZE", "lots"},
		{"REPOQUERY_MAX_PAGE_SIZE", "0"},
		{"REPOQUERY_RATE_LIMIT", "-1"},
		{"REPOQUERY_LITERAL_FALLBACK", "maybe"},
		{"REPOQUERY_LOG_LEVEL", "chatty"},
		{"REPOQUERY_CONFIG", "/does/not/exist.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := config.Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

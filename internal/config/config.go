package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from an optional YAML
// file named by REPOQUERY_CONFIG, then environment variables, which win.
type Config struct {
	Addr            string  `yaml:"addr"`             // REPOQUERY_ADDR, default ":8080"
	DBPath          string  `yaml:"db"`               // REPOQUERY_DB, default "repoquery.db"
	AuthToken       string  `yaml:"auth_token"`       // REPOQUERY_AUTH_TOKEN, optional
	LogLevel        string  `yaml:"log_level"`        // REPOQUERY_LOG_LEVEL, default "info"
	MaxPageSize     int     `yaml:"max_page_size"`    // REPOQUERY_MAX_PAGE_SIZE, default 100
	RateLimit       float64 `yaml:"rate_limit"`       // REPOQUERY_RATE_LIMIT, requests/second per client, 0 disables
	RateBurst       int     `yaml:"rate_burst"`       // REPOQUERY_RATE_BURST, default 20
	LiteralFallback bool    `yaml:"literal_fallback"` // REPOQUERY_LITERAL_FALLBACK, default false
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:        ":8080",
		DBPath:      "repoquery.db",
		LogLevel:    "info",
		MaxPageSize: 100,
		RateBurst:   20,
	}
}

// Load reads configuration from the optional YAML file and environment
// variables with sensible defaults.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("REPOQUERY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse config file %s", path)
		}
	}

	cfg.Addr = envOr("REPOQUERY_ADDR", cfg.Addr)
	cfg.DBPath = envOr("REPOQUERY_DB", cfg.DBPath)
	cfg.AuthToken = envOr("REPOQUERY_AUTH_TOKEN", cfg.AuthToken)
	cfg.LogLevel = envOr("REPOQUERY_LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.MaxPageSize, err = envInt("REPOQUERY_MAX_PAGE_SIZE", cfg.MaxPageSize); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = envInt("REPOQUERY_RATE_BURST", cfg.RateBurst); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("REPOQUERY_RATE_LIMIT"); v != "" {
		if cfg.RateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, errors.Wrap(err, "REPOQUERY_RATE_LIMIT")
		}
	}
	if v := os.Getenv("REPOQUERY_LITERAL_FALLBACK"); v != "" {
		if cfg.LiteralFallback, err = strconv.ParseBool(v); err != nil {
			return Config{}, errors.Wrap(err, "REPOQUERY_LITERAL_FALLBACK")
		}
	}

	if cfg.MaxPageSize < 1 {
		return Config{}, errors.Errorf("max_page_size must be at least 1, got %d", cfg.MaxPageSize)
	}
	if cfg.RateLimit < 0 {
		return Config{}, errors.Errorf("rate_limit must not be negative, got %v", cfg.RateLimit)
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return 0, errors.Errorf("log_level %q must be debug, info, warn or error", c.LogLevel)
	}
	return level, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return n, nil
}

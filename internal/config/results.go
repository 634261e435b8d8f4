package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	ResultsBackendLog      = "log"
	ResultsBackendHTTP     = "http"
	ResultsBackendPostgres = "postgres"
	ResultsBackendSQLite   = "sqlite"

	LedgerBackendMemory = "memory"
	LedgerBackendRedis  = "redis"
)

type ResultsConfig struct {
	Backend     string `env:"RESULTS_BACKEND" envDefault:"log"`
	URL         string `env:"RESULTS_URL"`
	APIKey      string `env:"RESULTS_API_KEY"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/results.db"`

	LedgerBackend string `env:"LEDGER_BACKEND" envDefault:"memory"`
	RedisURL      string `env:"REDIS_URL"`
	LedgerTTLMS   int    `env:"LEDGER_TTL_MS" envDefault:"86400000"`
}

func (c ResultsConfig) LedgerTTL() time.Duration {
	return time.Duration(c.LedgerTTLMS) * time.Millisecond
}

func LoadResults() (ResultsConfig, error) {
	var cfg ResultsConfig
	if err := env.Parse(&cfg); err != nil {
		return ResultsConfig{}, err
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch cfg.Backend {
	case ResultsBackendLog:
	case ResultsBackendHTTP:
		if strings.TrimSpace(cfg.URL) == "" {
			return ResultsConfig{}, fmt.Errorf("RESULTS_URL is required for the http backend")
		}
	case ResultsBackendPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return ResultsConfig{}, fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	case ResultsBackendSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return ResultsConfig{}, fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	default:
		return ResultsConfig{}, fmt.Errorf("unknown RESULTS_BACKEND %q", cfg.Backend)
	}

	cfg.LedgerBackend = strings.ToLower(strings.TrimSpace(cfg.LedgerBackend))
	switch cfg.LedgerBackend {
	case LedgerBackendMemory:
	case LedgerBackendRedis:
		if strings.TrimSpace(cfg.RedisURL) == "" {
			return ResultsConfig{}, fmt.Errorf("REDIS_URL is required for the redis ledger")
		}
	default:
		return ResultsConfig{}, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}
	return cfg, nil
}

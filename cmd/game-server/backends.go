package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"tic-tac-toe-server/internal/config"
	"tic-tac-toe-server/internal/httpclient"
	"tic-tac-toe-server/internal/identity"
	"tic-tac-toe-server/internal/ledger"
	"tic-tac-toe-server/internal/match"
	"tic-tac-toe-server/internal/results"
	"tic-tac-toe-server/internal/store"
)

func newVerifier(cfg config.IdentityConfig, matchCfg config.MatchConfig) (identity.Verifier, error) {
	switch cfg.Mode {
	case config.IdentityModeHTTP:
		client := httpclient.New(matchCfg.ExternalTimeout())
		return identity.NewHTTPVerifier(client, cfg.URL, cfg.APIKey), nil
	case config.IdentityModeJWT:
		return identity.NewJWTVerifier(identity.JWTConfig{
			Secret:    cfg.JWTSecret,
			PublicKey: cfg.JWTPublicKey,
			Issuer:    cfg.JWTIssuer,
		})
	default:
		return nil, fmt.Errorf("unknown identity mode %q", cfg.Mode)
	}
}

type resultsBackend struct {
	reporter results.Reporter
	ledger   match.Ledger
	closers  []func()
}

func (b *resultsBackend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func newResultsBackend(ctx context.Context, cfg config.ResultsConfig, matchCfg config.MatchConfig) (*resultsBackend, error) {
	b := &resultsBackend{}

	var reporter results.Reporter
	switch cfg.Backend {
	case config.ResultsBackendHTTP:
		client := httpclient.New(matchCfg.ExternalTimeout())
		reporter = results.NewHTTPReporter(client, cfg.URL, cfg.APIKey)
	case config.ResultsBackendPostgres:
		st, err := store.New(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := st.Ping(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		b.closers = append(b.closers, st.Close)
		reporter = st
	case config.ResultsBackendSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = db.Close() })
		reporter = db
	default:
		reporter = results.LogReporter{}
	}
	b.reporter = results.NewTraced(reporter, nil)

	switch cfg.LedgerBackend {
	case config.LedgerBackendRedis:
		redisCfg := ledger.DefaultRedisConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.TTL = cfg.LedgerTTL()
		rl, err := ledger.NewRedis(redisCfg)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = rl.Close() })
		b.ledger = rl
	default:
		b.ledger = ledger.NewMemory(cfg.LedgerTTL())
	}

	log.Info().Str("results", cfg.Backend).Str("ledger", cfg.LedgerBackend).Msg("results backend ready")
	return b, nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"tic-tac-toe-server/internal/config"
	"tic-tac-toe-server/internal/logging"
	"tic-tac-toe-server/internal/match"
	"tic-tac-toe-server/internal/telemetry"
	httptransport "tic-tac-toe-server/internal/transport/http"
	wstransport "tic-tac-toe-server/internal/transport/ws"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer func() { _ = logging.Close() }()
	if envErr != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry setup failed")
	}

	verifier, err := newVerifier(cfg.Identity, cfg.Match)
	if err != nil {
		log.Fatal().Err(err).Msg("identity verifier init failed")
	}
	backend, err := newResultsBackend(ctx, cfg.Results, cfg.Match)
	if err != nil {
		log.Fatal().Err(err).Msg("results backend init failed")
	}
	defer backend.close()

	reports := match.NewPipeline(backend.reporter, backend.ledger, match.ReportingConfig{
		Timeout:   cfg.Match.ExternalTimeout(),
		RetryMax:  cfg.Match.ResultRetryMax,
		RetryBase: cfg.Match.ResultRetryBase(),
	})
	coord := match.NewCoordinator(
		match.NewRegistry(cfg.Match.BoardSize, nil),
		verifier,
		reports,
		match.Config{
			GracePeriod:     cfg.Match.GracePeriod(),
			RetentionWindow: cfg.Match.Retention(),
			IdleTTL:         cfg.Match.IdleTTL(),
			VerifyTimeout:   cfg.Match.ExternalTimeout(),
		},
	)
	defer coord.Close()
	coord.StartJanitor(ctx, cfg.Match.JanitorInterval())

	ws := wstransport.NewHandler(coord, wstransport.Options{OriginPatterns: cfg.Server.AllowedOrigins})
	r := httptransport.NewRouter(coord, ws)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout(),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.HTTPAddr).
			Str("identity", cfg.Identity.Mode).
			Str("results", cfg.Results.Backend).
			Str("ledger", cfg.Results.LedgerBackend).
			Int("board_size", cfg.Match.BoardSize).
			Msg("game server listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown incomplete")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracer shutdown failed")
	}
	log.Info().Int("sessions", coord.SessionCount()).Msg("game server stopped")
}

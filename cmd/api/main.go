package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/TresYap/sakaydb/internal/adapters/httpapi"
	"github.com/TresYap/sakaydb/internal/app/ledger"
	"github.com/TresYap/sakaydb/internal/platform/clock"
	"github.com/TresYap/sakaydb/internal/platform/config"
	"github.com/TresYap/sakaydb/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New(logging.Config{})
		boot.Fatal().Err(err).Msg("invalid config")
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("api exited")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	entities := ledger.NewEntityStore(st.Tables, ledger.EntityStoreOptions{
		LegacyLocationPairing: cfg.Ledger.LegacyLocationPairing,
	})
	svc := ledger.NewService(entities, logger)

	handler := httpapi.NewRouter(httpapi.NewServer(svc), httpapi.RouterOptions{
		Logger:            logger,
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		Idempotency: httpapi.IdempotencyOptions{
			Store: st.Replay,
			Clock: clock.NewSystemClock(),
			TTL:   cfg.Server.IdempotencyTTL,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("backend", cfg.Storage.Backend).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

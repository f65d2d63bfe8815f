package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/matchweek/internal/app"
	"github.com/riskibarqy/matchweek/internal/config"
	"github.com/riskibarqy/matchweek/internal/observability"
	"github.com/riskibarqy/matchweek/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(logging.Options{
		Level:          cfg.LogLevel,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.AppEnv,
	})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("matchweek api exited", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return err
	}
	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return err
	}
	stopPprof, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return err
	}

	srv, err := app.NewHTTPServer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.HTTP.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := srv.Close(); err != nil {
		logger.Error("close resources failed", "error", err)
	}

	// Exporters flush independently; one slow backend must not hold up the others.
	var wg conc.WaitGroup
	for name, shutdown := range map[string]observability.ShutdownFunc{
		"uptrace":   shutdownUptrace,
		"pyroscope": stopPyroscope,
		"pprof":     stopPprof,
	} {
		wg.Go(func() {
			if err := shutdown(shutdownCtx); err != nil {
				logger.Error("observability shutdown failed", "component", name, "error", err)
			}
		})
	}
	wg.Wait()

	logger.Info("http server stopped")
	return runErr
}

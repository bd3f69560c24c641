// Command server runs the browser UI for the cleaning pipeline.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/cleanse/internal/application"
	"github.com/JonMunkholm/cleanse/internal/config"
	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/logging"
	"github.com/JonMunkholm/cleanse/internal/web"
)

func main() {
	// Overload lets a local .env win over variables already exported.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// serve runs the HTTP server until ctx is cancelled, then drains running
// stages and shuts down within the configured timeout.
func serve(ctx context.Context, cfg *config.Config) error {
	app, err := application.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	limiter := core.NewRunLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	service := core.NewService(app.Pipeline, app.History, limiter, core.ServiceOptions{
		StageTimeout: cfg.Upload.Timeout,
		FileLogs:     &app.Logs,
	})
	server := web.NewServer(service, cfg).WithStageLogs(&app.Logs)

	go service.StartRetentionSweeper(ctx, core.RetentionConfig{
		RunTTL:        cfg.Retention.RunTTL,
		HistoryDays:   cfg.Retention.HistoryDays,
		CheckInterval: cfg.Retention.CheckInterval,
	})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr(), "countries", app.Pipeline.Countries().Len())
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if active := limiter.ActiveCount(); active > 0 {
		slog.Info("waiting for stages to complete", "active", active)
		if err := limiter.WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("stages did not complete in time", "error", err)
		}
	}
	return server.Shutdown(shutdownCtx)
}

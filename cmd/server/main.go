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

	"github.com/Fanfan0315/Horisation/internal/config"
	"github.com/Fanfan0315/Horisation/internal/core"
	"github.com/Fanfan0315/Horisation/internal/logging"
	"github.com/Fanfan0315/Horisation/internal/metrics"
	"github.com/Fanfan0315/Horisation/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_concurrent", cfg.Upload.MaxConcurrent,
		"output_dir", cfg.Output.Dir,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	store, err := core.NewArtifactStore(cfg.Output.Dir, cfg.Output.TTL)
	if err != nil {
		slog.Error("failed to prepare output directory", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	service := core.NewService(core.Options{
		PreviewDefault: cfg.Preview.DefaultRows,
		PreviewMax:     cfg.Preview.MaxRows,
		MaxRows:        cfg.Upload.MaxRows,
		Tolerance:      cfg.Diff.Tolerance,
		Limiter:        core.NewOperationLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		Metrics:        m,
		Artifacts:      store,
	})

	server := web.NewServer(service, cfg, m)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartArtifactSweeper(jobCtx, cfg.Output.SweepInterval)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running operations to finish (with timeout)
		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for operations to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("operations did not complete in time", "error", err)
			} else {
				slog.Info("all operations completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/ClientClean/internal/config"
	"github.com/JonMunkholm/ClientClean/internal/core"
	"github.com/JonMunkholm/ClientClean/internal/logging"
	"github.com/JonMunkholm/ClientClean/internal/web"
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
		"max_rows", cfg.Export.MaxRows,
		"format", cfg.Export.Format,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	table, err := cfg.Export.Table()
	if err != nil {
		slog.Error("invalid country code table", "error", err)
		os.Exit(1)
	}
	for _, e := range table.Entries() {
		slog.Debug("country code", "prefix", e.Prefix, "length", e.Length)
	}

	service, err := core.NewService(table, core.Options{
		ScratchRoot:      cfg.Scratch.ScratchRoot(),
		MaxRows:          cfg.Export.MaxRows,
		Format:           cfg.Export.Format,
		CompressionLevel: cfg.Export.CompressionLevel,
		MaxConcurrent:    cfg.Upload.MaxConcurrent,
		MaxWait:          cfg.Upload.MaxWaitTime,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// A workspace is only abandoned once its request can no longer be running.
	go core.StartScratchJanitor(jobCtx, core.JanitorConfig{
		Root:          cfg.Scratch.ScratchRoot(),
		MaxAge:        cfg.Server.RequestTimeout + cfg.Scratch.CleanupDelay,
		SweepInterval: cfg.Scratch.SweepInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for clean jobs to complete", "active", status.Active)
			if err := service.WaitForJobs(shutdownCtx); err != nil {
				slog.Warn("clean jobs did not complete in time", "error", err)
			} else {
				slog.Info("all clean jobs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

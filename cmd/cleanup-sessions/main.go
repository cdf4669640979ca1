// Command cleanup-sessions deletes expired login sessions.
//
// Usage:
//
//	cleanup-sessions
//
// It reads the same configuration as the server (CONFIG_PATH or
// ./config.yaml, overridden by environment variables) and is meant to run
// from cron.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/daily-diet/internal/config"
	"github.com/sakif/daily-diet/internal/server"
	"github.com/sakif/daily-diet/internal/service"
	"github.com/sakif/daily-diet/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("cleanup sessions", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := server.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	authService := service.NewAuthService(store, store, cfg.Session.TTL, logger)
	n, err := authService.PurgeExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("purge expired sessions: %w", err)
	}

	logger.Info("deleted expired sessions", slog.Int64("count", n))
	return nil
}

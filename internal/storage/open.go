// Package storage opens the repository.Store selected by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/sakif/daily-diet/internal/config"
	"github.com/sakif/daily-diet/internal/repository"
	"github.com/sakif/daily-diet/internal/repository/postgres"
	"github.com/sakif/daily-diet/internal/repository/sqlite"
)

// Open connects to the configured backend and applies its migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg.Path)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	portsrepo "github.com/SscSPs/finsync/internal/core/ports/repositories"
	"github.com/SscSPs/finsync/internal/platform/config"
	"github.com/SscSPs/finsync/internal/repositories/database/memory"
	"github.com/SscSPs/finsync/internal/repositories/database/pgsql"
	"github.com/SscSPs/finsync/pkg/database"
)

// openStore connects the configured store driver. The returned func releases
// whatever was opened.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("Using in-memory store; data is lost on exit")
		repos, _ := memory.NewRepositoryProvider()
		return repos, func() {}, nil
	}

	if cfg.RunMigrations {
		logger.Info("Running database migrations...")
		if _, err := database.RunMigrations(logger, cfg.DatabaseURL, cfg.MigrationsPath, database.MigrateUp); err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	logger.Info("Database connection pool established.")

	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

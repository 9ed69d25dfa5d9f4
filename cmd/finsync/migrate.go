package main

import (
	"fmt"
	"log/slog"

	"github.com/SscSPs/finsync/internal/platform/config"
	"github.com/SscSPs/finsync/pkg/database"
	"github.com/spf13/cobra"
)

func newMigrateCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(database.MigrateUp), string(database.MigrateDown)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := database.MigrateUp
			if len(args) == 1 {
				direction = database.MigrateDirection(args[0])
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.StoreDriverPostgres {
				return fmt.Errorf("migrations need STORE_DRIVER=%s, got %q", config.StoreDriverPostgres, cfg.StoreDriver)
			}

			_, err = database.RunMigrations(logger, cfg.DatabaseURL, cfg.MigrationsPath, direction)
			return err
		},
	}
}

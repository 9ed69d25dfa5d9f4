package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// @title finsync API
// @version 1.0
// @description Transaction sync, categorization and recurring payment detection.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := newRootCommand(logger).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand creates the root CLI command with all subcommands registered.
func newRootCommand(logger *slog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "finsync",
		Short: "Bank and card transaction sync with recurring payment detection",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand(logger))
	rootCmd.AddCommand(newMigrateCommand(logger))
	rootCmd.AddCommand(newSyncCommand(logger))

	return rootCmd
}

package main

import (
	"fmt"
	"os"

	"github.com/UnknownOlympus/hermes/internal/config"
	"github.com/UnknownOlympus/hermes/internal/repository"
	"github.com/spf13/cobra"
)

var printSchema bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the order tables in PostgreSQL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if printSchema {
			_, err := fmt.Fprint(cmd.OutOrStdout(), repository.Schema())
			return err
		}

		cfg := config.MustLoad()
		logger := setupLogger(cfg.Env, os.Stderr)

		pool, err := repository.NewDatabase(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to DB: %w", err)
		}
		defer pool.Close()

		if err = repository.NewRepository(pool, logger).Migrate(cmd.Context()); err != nil {
			return err
		}

		logger.InfoContext(cmd.Context(), "Schema applied", "database", cfg.Database.Name)

		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&printSchema, "print", false, "print the schema instead of applying it")
	rootCmd.AddCommand(migrateCmd)
}

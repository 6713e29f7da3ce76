package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"shopmate/internal/catalog"
	"shopmate/internal/config"
	"shopmate/internal/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the database schema and load demo catalog data",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		database, err := db.Open(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}

		if err := catalog.Seed(cmd.Context(), database); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}

		slog.Info("database seeded", "path", cfg.DB.Path)
		return nil
	},
}

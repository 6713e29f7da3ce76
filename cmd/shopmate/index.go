package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"shopmate/internal/catalog"
	"shopmate/internal/config"
	"shopmate/internal/db"
	"shopmate/internal/embedding"
	"shopmate/internal/vectorstore"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed every catalog product into the vector store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.Embedding.APIKey == "" {
			return fmt.Errorf("no embedding API key configured")
		}

		database, err := db.Open(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}

		vectors, err := vectorstore.Open(database)
		if err != nil {
			return fmt.Errorf("opening vector store: %w", err)
		}

		embedder := embedding.NewOpenAI(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		indexer := catalog.NewIndexer(catalog.NewStore(database), embedder, vectors)

		count, err := indexer.IndexAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("indexing products: %w", err)
		}

		slog.Info("catalog indexed", "products", count, "model", cfg.Embedding.Model)
		return nil
	},
}

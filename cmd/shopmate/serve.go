package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shopmate/internal/agent"
	"shopmate/internal/catalog"
	"shopmate/internal/config"
	"shopmate/internal/db"
	"shopmate/internal/embedding"
	"shopmate/internal/gateway"
	"shopmate/internal/llm"
	"shopmate/internal/mcp"
	"shopmate/internal/retrieval"
	"shopmate/internal/tools"
	"shopmate/internal/trace"
	"shopmate/internal/vectorstore"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assistant gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if serveAddr != "" {
			cfg.Gateway.Addr = serveAddr
		}

		if cfg.Trace.Endpoint != "" {
			shutdown, err := trace.Init(ctx, cfg.Trace)
			if err != nil {
				return fmt.Errorf("initializing tracing: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				shutdown(shutdownCtx)
			}()
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
		slog.Info("vector store loaded", "documents", vectors.Count())

		embedder := embedding.NewOpenAI(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		engine := retrieval.New(embedder, vectors, cfg.Retrieval.MinScore)

		provider, err := buildProvider(cfg)
		if err != nil {
			return err
		}

		store := catalog.NewStore(database)

		registry := agent.NewRegistry()
		registry.Register(tools.NewSearchProducts(engine))
		registry.Register(tools.NewGetProduct(store))
		registry.Register(tools.NewGetSimilarProducts(engine))
		registry.Register(tools.NewGetOrders(store))
		registry.Register(tools.NewGetOrder(store))
		registry.Register(tools.NewGetCart(store))
		registry.Register(tools.NewGetSpendingSummary(store))
		registry.Register(tools.NewGetSalesDashboard(store))

		var opts []agent.Option
		if len(cfg.MCP) > 0 {
			remote := mcp.NewGateway()
			if err := remote.ConnectAll(ctx, mcpConfigs(cfg)); err != nil {
				return fmt.Errorf("connecting tool servers: %w", err)
			}
			defer remote.DisconnectAll()
			opts = append(opts, agent.WithRemoteTools(remote))
		}

		orchestrator := agent.NewOrchestrator(provider, registry, opts...)

		srv := gateway.NewServer(orchestrator, engine, cfg.Gateway.AdminToken)
		slog.Info("starting gateway", "addr", cfg.Gateway.Addr, "backend", cfg.LLM.Backend, "model", cfg.LLM.Model)
		return srv.ListenAndServe(ctx, cfg.Gateway.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "override gateway listen address")
}

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Backend {
	case "", "openai":
		return llm.NewOpenAI(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model), nil
	case "anthropic":
		return llm.NewAnthropic(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
	default:
		return nil, fmt.Errorf("unknown llm backend: %s", cfg.LLM.Backend)
	}
}

func mcpConfigs(cfg *config.Config) []mcp.ServerConfig {
	configs := make([]mcp.ServerConfig, 0, len(cfg.MCP))
	for _, sc := range cfg.MCP {
		configs = append(configs, mcp.ServerConfig{
			Name:      sc.Name,
			Command:   sc.Command,
			Args:      sc.Args,
			Env:       sc.Env,
			AdminOnly: sc.AdminOnly,
		})
	}
	return configs
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"shopmate/internal/trace"
)

type Config struct {
	LLM       LLMConfig         `toml:"llm"`
	Embedding EmbeddingConfig   `toml:"embedding"`
	Retrieval RetrievalConfig   `toml:"retrieval"`
	Gateway   GatewayConfig     `toml:"gateway"`
	DB        DBConfig          `toml:"db"`
	Trace     trace.Config      `toml:"trace"`
	MCP       []MCPServerConfig `toml:"mcp_server"`
}

type LLMConfig struct {
	// Backend selects the provider adapter: "openai" or "anthropic".
	Backend string `toml:"backend"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

type EmbeddingConfig struct {
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Dimensions int    `toml:"dimensions"`
}

type RetrievalConfig struct {
	MinScore float32 `toml:"min_score"`
	TopK     int     `toml:"top_k"`
}

type GatewayConfig struct {
	Addr       string `toml:"addr"`
	AdminToken string `toml:"admin_token"`
}

type DBConfig struct {
	Path string `toml:"path"`
}

type MCPServerConfig struct {
	Name      string            `toml:"name"`
	Command   string            `toml:"command"`
	Args      []string          `toml:"args"`
	Env       map[string]string `toml:"env"`
	AdminOnly bool              `toml:"admin_only"`
}

// Load reads config.toml from the user config directory, falling back to
// defaults for anything unset. API keys may also come from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		LLM: LLMConfig{
			Backend: "openai",
			Model:   "gpt-4o",
		},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-3-small",
			Dimensions: 256,
		},
		Retrieval: RetrievalConfig{
			TopK: 5,
		},
		Gateway: GatewayConfig{
			Addr: ":8585",
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
	}

	path := configPath()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = apiKeyFromEnv(cfg.LLM.Backend)
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return cfg, nil
}

func apiKeyFromEnv(backend string) string {
	if backend == "anthropic" {
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return os.Getenv("OPENAI_API_KEY")
}

func configPath() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "shopmate", "config.toml")
}

func defaultDBPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".local", "share", "shopmate", "shopmate.db")
}

// Package config loads service configuration from a JSON file with
// environment-variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// LLMClientConfig describes one completion endpoint. Type selects the
// provider implementation: "openai" (official SDK), "anthropic" (official
// SDK) or "compat" (any OpenAI-wire-compatible endpoint, e.g. Gemini's
// compatibility API).
type LLMClientConfig struct {
	Type    string `json:"type" env:"TYPE"`
	APIKey  string `json:"api_key" env:"API_KEY"`
	BaseURL string `json:"base_url" env:"BASE_URL"`
}

// AgentConfig is the per-agent-type tuning: which endpoint to talk to,
// which model, and how the loop behaves.
type AgentConfig struct {
	Client       LLMClientConfig `json:"client" envPrefix:"CLIENT_"`
	Model        string          `json:"model" env:"MODEL"`
	Temperature  float64         `json:"temperature" env:"TEMPERATURE"`
	MaxToolCalls int             `json:"max_tool_calls" env:"MAX_TOOL_CALLS"`
}

type AgentsConfig struct {
	// MaxSessions bounds how many conversation agents a registry keeps
	// live in memory before evicting the least recently used one.
	MaxSessions int `json:"max_sessions" env:"MAX_SESSIONS"`

	Manager AgentConfig `json:"manager" envPrefix:"MANAGER_"`
	Editor  AgentConfig `json:"editor" envPrefix:"EDITOR_"`
	Coder   AgentConfig `json:"coder" envPrefix:"CODER_"`
	Router  AgentConfig `json:"router" envPrefix:"ROUTER_"`
}

// StoreConfig selects the session thread store backend: "memory" or
// "sqlite". Path is the database file for the sqlite backend.
type StoreConfig struct {
	Backend    string `json:"backend" env:"BACKEND"`
	Path       string `json:"path" env:"PATH"`
	TTLSeconds int    `json:"ttl_seconds" env:"TTL_SECONDS"`
}

type GatewayConfig struct {
	Host              string `json:"host" env:"HOST"`
	Port              int    `json:"port" env:"PORT"`
	AuthToken         string `json:"auth_token" env:"AUTH_TOKEN"`
	RequestsPerMinute int    `json:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
}

type LoggingConfig struct {
	Level string `json:"level" env:"LEVEL"`
	File  string `json:"file" env:"FILE"`
}

// ToolsConfig holds credentials for the built-in tools.
type ToolsConfig struct {
	ImageSearch ImageSearchConfig `json:"image_search" envPrefix:"IMAGE_SEARCH_"`
}

type ImageSearchConfig struct {
	APIKey         string `json:"api_key" env:"API_KEY"`
	SearchEngineID string `json:"search_engine_id" env:"SEARCH_ENGINE_ID"`
}

type Config struct {
	Agents  AgentsConfig  `json:"agents" envPrefix:"CURIE_AGENTS_"`
	Store   StoreConfig   `json:"store" envPrefix:"CURIE_STORE_"`
	Gateway GatewayConfig `json:"gateway" envPrefix:"CURIE_GATEWAY_"`
	Logging LoggingConfig `json:"logging" envPrefix:"CURIE_LOGGING_"`
	Tools   ToolsConfig   `json:"tools" envPrefix:"CURIE_TOOLS_"`
}

func DefaultConfig() *Config {
	openAI := LLMClientConfig{Type: "openai", BaseURL: "https://api.openai.com/v1"}
	gemini := LLMClientConfig{Type: "compat", BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai"}
	anthropic := LLMClientConfig{Type: "anthropic", BaseURL: "https://api.anthropic.com"}

	return &Config{
		Agents: AgentsConfig{
			MaxSessions: 256,
			Manager: AgentConfig{
				Client:       openAI,
				Model:        "gpt-4o",
				Temperature:  0.6,
				MaxToolCalls: 1,
			},
			Editor: AgentConfig{
				Client:       gemini,
				Model:        "gemini-2.0-flash",
				Temperature:  1,
				MaxToolCalls: 1,
			},
			Coder: AgentConfig{
				Client:       anthropic,
				Model:        "claude-3-7-sonnet-20250219",
				Temperature:  0.6,
				MaxToolCalls: 1,
			},
			Router: AgentConfig{
				Client:      gemini,
				Model:       "gemini-2.0-flash",
				Temperature: 0,
			},
		},
		Store: StoreConfig{
			Backend: "memory",
			Path:    "~/.curie/threads.db",
		},
		Gateway: GatewayConfig{
			Host:              "127.0.0.1",
			Port:              8642,
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the JSON config at path (missing file means defaults)
// and then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(expandHome(path))
		if err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.Store.Path = expandHome(cfg.Store.Path)
	return cfg, nil
}

// SaveConfig writes cfg as indented JSON, creating parent directories.
func SaveConfig(path string, cfg *Config) error {
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ForAgent returns the config block for a named agent type.
func (c *Config) ForAgent(name string) (AgentConfig, bool) {
	switch name {
	case "manager_agent":
		return c.Agents.Manager, true
	case "editor_agent":
		return c.Agents.Editor, true
	case "coder_agent":
		return c.Agents.Coder, true
	case "router_agent":
		return c.Agents.Router, true
	}
	return AgentConfig{}, false
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

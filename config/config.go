package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// AnthropicConfig represents configuration for the Anthropic LLM provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty"` // Anthropic API key
	Model  string `yaml:"model,omitempty"`   // Default model name
}

// OllamaConfig represents configuration for the Ollama LLM provider.
type OllamaConfig struct {
	Host    string `yaml:"host,omitempty"`    // Ollama host (default: "http://localhost:11434")
	Model   string `yaml:"model,omitempty"`   // Default model name
	Timeout int    `yaml:"timeout,omitempty"` // Request timeout in seconds
}

// OpenAIConfig represents configuration for the OpenAI LLM provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`      // OpenAI API key
	BaseURL      string `yaml:"base_url,omitempty"`     // Custom base URL (default: official API)
	Model        string `yaml:"model,omitempty"`        // Default model name
	Organization string `yaml:"organization,omitempty"` // Organization ID
}

// InsightsConfig controls the dashboard insight prompt refresher.
type InsightsConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"` // Disable periodic insight refresh
	Schedule string `yaml:"schedule,omitempty"` // Cron expression or Go duration, e.g. "1h" or "0 * * * *"
}

// NotificationsConfig controls desktop notifications for completed AI actions.
type NotificationsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// AppConfig is the top-level configuration for the mindclone application.
type AppConfig struct {
	// Path to the SQLite database file.
	Database string `yaml:"database,omitempty"`

	// LLM provider configurations
	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	Ollama    OllamaConfig    `yaml:"ollama,omitempty"`
	OpenAI    OpenAIConfig    `yaml:"openai,omitempty"`

	// Ordered list of enabled providers; the first configured one wins.
	LLMProviders []string `yaml:"llm_providers,omitempty"`

	// Timeout in seconds applied to every inference call. A hung request
	// must never leave a memory's processing flag set forever.
	InferenceTimeout int `yaml:"inference_timeout,omitempty"`

	Insights      InsightsConfig      `yaml:"insights,omitempty"`
	Notifications NotificationsConfig `yaml:"notifications,omitempty"`
}

// GetConfigPath returns the default config file path, expanding ~ to home directory.
// Can be overridden via MINDCLONE_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("MINDCLONE_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.mindclone/config.yaml"
	}
	return filepath.Join(homeDir, ".mindclone", "config.yaml")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// DefaultConfig returns the built-in defaults applied underneath any user config.
func DefaultConfig() AppConfig {
	return AppConfig{
		Database:     "mindclone.db",
		LLMProviders: []string{"anthropic"},
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Ollama: OllamaConfig{
			Host:    "http://localhost:11434",
			Model:   "llama3.2:3b",
			Timeout: 60,
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		InferenceTimeout: 60,
		Insights: InsightsConfig{
			Schedule: "1h",
		},
	}
}

// Load reads the config file at path, merges it over the defaults, and applies
// environment variable overrides. A missing file is not an error; defaults are used.
func Load(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: user-specified config path is intentional
	switch {
	case os.IsNotExist(err):
		// No config file; defaults plus env overrides.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		// File values take precedence over defaults.
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides lets environment variables win over file values for secrets
// and hosts, matching how the providers read their own environments.
func applyEnvOverrides(cfg *AppConfig) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.Anthropic.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		cfg.Ollama.Host = host
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		cfg.Ollama.Model = model
	}
	if db := os.Getenv("MINDCLONE_DB"); db != "" {
		cfg.Database = db
	}
}

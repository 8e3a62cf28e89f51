package config

import (
	"github.com/rs/zerolog"

	llmanthropic "github.com/sasa-gamer47/mindclone/llm/anthropic"
)

// LoadAnthropicConfig loads Anthropic configuration from the app config.
// It returns the API key and model to use for creating an Anthropic client.
func LoadAnthropicConfig(cfg *AppConfig) (apiKey, model string) {
	if cfg == nil {
		return "", ""
	}
	return cfg.Anthropic.APIKey, cfg.Anthropic.Model
}

// NewAnthropicClient creates a new Anthropic LLM client from the configuration.
func NewAnthropicClient(cfg *AppConfig, logger zerolog.Logger) (*llmanthropic.AnthropicClient, error) {
	apiKey, _ := LoadAnthropicConfig(cfg)
	return llmanthropic.NewAnthropicClient(apiKey, logger)
}

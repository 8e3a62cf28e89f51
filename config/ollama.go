package config

import (
	"os"

	llmollama "github.com/sasa-gamer47/mindclone/llm/ollama"
)

// LoadOllamaConfig loads Ollama configuration from the app config.
// It returns the host and model to use for creating an Ollama client.
func LoadOllamaConfig(cfg *AppConfig) (host, model string) {
	if cfg != nil {
		host = cfg.Ollama.Host
		model = cfg.Ollama.Model
	}

	// Apply environment variable overrides
	if envHost := os.Getenv("OLLAMA_HOST"); envHost != "" {
		host = envHost
	}
	if envModel := os.Getenv("OLLAMA_MODEL"); envModel != "" {
		model = envModel
	}

	if host == "" {
		host = "http://localhost:11434"
	}

	return host, model
}

// NewOllamaClient creates a new Ollama LLM client from the configuration.
func NewOllamaClient(cfg *AppConfig) (*llmollama.OllamaClient, error) {
	host, model := LoadOllamaConfig(cfg)
	return llmollama.NewOllamaClient(host, model)
}

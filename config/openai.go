package config

import (
	"os"

	llmopenai "github.com/sasa-gamer47/mindclone/llm/openai"
)

// LoadOpenAIConfig loads OpenAI configuration from the app config.
// It returns the API key, base URL, model, and organization to use for
// creating an OpenAI client.
func LoadOpenAIConfig(cfg *AppConfig) (apiKey, baseURL, model, organization string) {
	if cfg != nil {
		apiKey = cfg.OpenAI.APIKey
		baseURL = cfg.OpenAI.BaseURL
		model = cfg.OpenAI.Model
		organization = cfg.OpenAI.Organization
	}

	// Apply environment variable overrides
	if envAPIKey := os.Getenv("OPENAI_API_KEY"); envAPIKey != "" {
		apiKey = envAPIKey
	}
	if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
		baseURL = envBaseURL
	}
	if envModel := os.Getenv("OPENAI_MODEL"); envModel != "" {
		model = envModel
	}
	if envOrg := os.Getenv("OPENAI_ORG_ID"); envOrg != "" {
		organization = envOrg
	}

	return apiKey, baseURL, model, organization
}

// NewOpenAIClient creates a new OpenAI LLM client from the configuration.
func NewOpenAIClient(cfg *AppConfig) (*llmopenai.OpenAIClient, error) {
	apiKey, baseURL, model, organization := LoadOpenAIConfig(cfg)
	return llmopenai.NewOpenAIClient(apiKey, baseURL, model, organization)
}

package config

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sasa-gamer47/mindclone/llm"
)

// BuildProviderConfig maps the app config onto the registry's provider
// config so the llm package never imports this one.
func BuildProviderConfig(cfg *AppConfig) *llm.ProviderConfig {
	if cfg == nil {
		return &llm.ProviderConfig{}
	}
	return &llm.ProviderConfig{
		AnthropicAPIKey: cfg.Anthropic.APIKey,
		AnthropicModel:  cfg.Anthropic.Model,
		OllamaHost:      cfg.Ollama.Host,
		OllamaModel:     cfg.Ollama.Model,
		OpenAIAPIKey:    cfg.OpenAI.APIKey,
		OpenAIBaseURL:   cfg.OpenAI.BaseURL,
		OpenAIModel:     cfg.OpenAI.Model,
		OpenAIOrg:       cfg.OpenAI.Organization,
	}
}

// NewLLMClient resolves the first available provider from the configured
// preference order and constructs its client, wrapped with request logging.
func NewLLMClient(cfg *AppConfig, logger zerolog.Logger) (llm.Client, *llm.ClientKey, error) {
	registry := llm.NewProviderRegistry(BuildProviderConfig(cfg), cfg.LLMProviders)
	key, err := registry.Resolve()
	if err != nil {
		return nil, nil, err
	}

	var client llm.Client
	switch key.Provider {
	case llm.ProviderAnthropic:
		client, err = NewAnthropicClient(cfg, logger)
	case llm.ProviderOllama:
		client, err = NewOllamaClient(cfg)
	case llm.ProviderOpenAI:
		client, err = NewOpenAIClient(cfg)
	default:
		return nil, nil, fmt.Errorf("unknown provider: %s", key.Provider)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create %s client: %w", key.Provider, err)
	}

	return llm.WrapWithMiddleware(client, requestLogging(logger, key.Provider)), key, nil
}

// requestLogging logs every inference round trip with token usage.
func requestLogging(logger zerolog.Logger, provider string) llm.Middleware {
	log := logger.With().Str("component", "llm").Str("provider", provider).Logger()
	return llm.MiddlewareFunc{
		AfterResponseFunc: func(ctx context.Context, req *llm.Request, resp *llm.Response) (*llm.Response, error) {
			ev := log.Debug().Str("model", req.Model)
			if resp.Usage != nil {
				ev = ev.Int64("input_tokens", resp.Usage.InputTokens).
					Int64("output_tokens", resp.Usage.OutputTokens)
			}
			ev.Msg("Inference completed")
			return resp, nil
		},
		OnErrorFunc: func(ctx context.Context, req *llm.Request, err error) error {
			log.Warn().Err(err).Str("model", req.Model).Msg("Inference failed")
			return err
		},
	}
}

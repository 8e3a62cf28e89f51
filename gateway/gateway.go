// Package gateway is the single boundary between the memory domain and
// language model inference. Callers hand it domain values and receive
// domain values back; prompt construction, response parsing, and retry
// policy all live here.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/sasa-gamer47/mindclone/llm"
)

const (
	defaultMaxTokens = 1024
	chatMaxTokens    = 2048

	retryInitialInterval = 1 * time.Second
	retryMaxInterval     = 30 * time.Second
	retryMaxAttempts     = 3
)

// Gateway routes every inference capability through one llm.Client.
type Gateway struct {
	client llm.Client
	model  string
	logger zerolog.Logger
}

// New creates a Gateway. The model may be empty when the client carries its
// own default.
func New(client llm.Client, model string, logger zerolog.Logger) *Gateway {
	return &Gateway{
		client: client,
		model:  model,
		logger: logger.With().Str("component", "gateway").Logger(),
	}
}

// retryAfterBackOff raises the next wait to at least the provider's
// retry-after hint when the last error carried one. The hint applies to a
// single wait; subsequent intervals come from the wrapped policy again.
type retryAfterBackOff struct {
	backoff.BackOff
	hint *time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next != backoff.Stop && b.hint != nil && *b.hint > next {
		next = *b.hint
	}
	b.hint = nil
	return next
}

// complete sends the request, retrying transient failures with exponential
// backoff. Rate limit errors that carry a retry-after hint wait at least
// that long before the next attempt.
func (g *Gateway) complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req.Model == "" {
		req.Model = g.model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = defaultMaxTokens
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = retryInitialInterval
	eb.MaxInterval = retryMaxInterval
	rb := &retryAfterBackOff{BackOff: eb}

	attempt := 0
	operation := func() (*llm.Response, error) {
		attempt++
		resp, err := g.client.Synchronous(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !llm.IsRetryableError(err) {
			return nil, backoff.Permanent(err)
		}
		if retryAfter := llm.ExtractRetryAfter(err); retryAfter != nil {
			rb.hint = retryAfter
			g.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_after", *retryAfter).Msg("Inference rate limited")
		} else {
			g.logger.Warn().Err(err).Int("attempt", attempt).Msg("Retrying inference")
		}
		return nil, err
	}

	return backoff.RetryWithData(operation, backoff.WithContext(backoff.WithMaxRetries(rb, retryMaxAttempts), ctx))
}

// completeText is complete for capabilities that only need the response text.
func (g *Gateway) completeText(ctx context.Context, req *llm.Request) (string, error) {
	resp, err := g.complete(ctx, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// decodeJSON unmarshals a model response into v, tolerating markdown code
// fences and prose around the JSON object. Models asked for JSON still wrap
// it often enough that stripping here is cheaper than re-prompting.
func decodeJSON(raw string, v any) error {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if !strings.HasPrefix(cleaned, "{") {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start == -1 || end <= start {
			return fmt.Errorf("no JSON object in response")
		}
		cleaned = cleaned[start : end+1]
	}

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}

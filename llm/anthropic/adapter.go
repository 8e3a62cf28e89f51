package anthropic

import (
	"errors"
	"net/http"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/sasa-gamer47/mindclone/llm"
)

// ToMessageParam converts an llm.Message to an Anthropic MessageParam.
func ToMessageParam(msg llm.Message) (anthropic.MessageParam, error) {
	contentBlocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case llm.ContentBlockTypeText:
			contentBlocks = append(contentBlocks, anthropic.NewTextBlock(block.Text))
		case llm.ContentBlockTypeImage:
			if block.Image != nil {
				contentBlocks = append(contentBlocks, anthropic.NewImageBlockBase64(
					block.Image.MediaType,
					block.Image.Data,
				))
			}
		}
	}

	switch msg.Role {
	case llm.RoleAssistant:
		return anthropic.NewAssistantMessage(contentBlocks...), nil
	default:
		return anthropic.NewUserMessage(contentBlocks...), nil
	}
}

// ToMessageParams converts a slice of llm.Messages to Anthropic MessageParams.
func ToMessageParams(msgs []llm.Message) ([]anthropic.MessageParam, error) {
	result := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		anthMsg, err := ToMessageParam(msg)
		if err != nil {
			return nil, err
		}
		result = append(result, anthMsg)
	}
	return result, nil
}

// convertAnthropicError maps an Anthropic SDK error onto the neutral error
// taxonomy so callers can classify retryability without importing the SDK.
func convertAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return llm.NewNetworkError("anthropic request failed", err)
	}

	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		return llm.NewRateLimitError("anthropic rate limit exceeded", nil, err)
	case http.StatusBadRequest:
		return llm.NewInvalidRequestError("anthropic rejected the request", err)
	default:
		converted := llm.NewProviderError("anthropic API error", err)
		converted.StatusCode = apiErr.StatusCode
		if apiErr.StatusCode >= 500 {
			converted.Retryable = true
		}
		return converted
	}
}

package openai

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sasa-gamer47/mindclone/llm"
)

// ToOpenAIMessage converts an llm.Message to an OpenAI ChatCompletionMessage.
// Messages with image blocks use the multi-part content form; text-only
// messages use the plain content string.
func ToOpenAIMessage(msg llm.Message) (openai.ChatCompletionMessage, error) {
	role := openai.ChatMessageRoleUser
	if msg.Role == llm.RoleAssistant {
		role = openai.ChatMessageRoleAssistant
	}

	if !hasImageBlock(msg) {
		var text strings.Builder
		for _, block := range msg.Content {
			if block.Type == llm.ContentBlockTypeText {
				text.WriteString(block.Text)
			}
		}
		return openai.ChatCompletionMessage{Role: role, Content: text.String()}, nil
	}

	parts := make([]openai.ChatMessagePart, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case llm.ContentBlockTypeText:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: block.Text,
			})
		case llm.ContentBlockTypeImage:
			if block.Image == nil {
				continue
			}
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", block.Image.MediaType, block.Image.Data),
				},
			})
		}
	}

	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}, nil
}

// ToOpenAIMessages converts a slice of llm.Messages to OpenAI messages.
func ToOpenAIMessages(msgs []llm.Message) ([]openai.ChatCompletionMessage, error) {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, msg := range msgs {
		openaiMsg, err := ToOpenAIMessage(msg)
		if err != nil {
			return nil, err
		}
		result = append(result, openaiMsg)
	}
	return result, nil
}

func hasImageBlock(msg llm.Message) bool {
	for _, block := range msg.Content {
		if block.Type == llm.ContentBlockTypeImage {
			return true
		}
	}
	return false
}

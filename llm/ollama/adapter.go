package ollama

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/sasa-gamer47/mindclone/llm"
)

// ToOllamaMessage converts an llm.Message to an Ollama api.Message. Text
// blocks are concatenated into the message content; image blocks become raw
// bytes in the Images field.
func ToOllamaMessage(msg llm.Message) (api.Message, error) {
	var text strings.Builder
	var images []api.ImageData

	for _, block := range msg.Content {
		switch block.Type {
		case llm.ContentBlockTypeText:
			text.WriteString(block.Text)
		case llm.ContentBlockTypeImage:
			if block.Image == nil {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(block.Image.Data)
			if err != nil {
				return api.Message{}, fmt.Errorf("decode image data: %w", err)
			}
			images = append(images, api.ImageData(raw))
		}
	}

	role := "user"
	if msg.Role == llm.RoleAssistant {
		role = "assistant"
	}

	return api.Message{
		Role:    role,
		Content: text.String(),
		Images:  images,
	}, nil
}

// ToOllamaMessages converts a slice of llm.Messages to Ollama api.Messages.
func ToOllamaMessages(msgs []llm.Message) ([]api.Message, error) {
	result := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		ollamaMsg, err := ToOllamaMessage(msg)
		if err != nil {
			return nil, err
		}
		result = append(result, ollamaMsg)
	}
	return result, nil
}

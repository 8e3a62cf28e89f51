package llm

import (
	"strings"
)

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message represents a single message in a conversation.
// This is provider-neutral and can represent user or assistant messages.
type Message struct {
	Role    MessageRole
	Content []ContentBlock
}

// ContentBlock represents a single content block within a message.
// It can be text or an inline image.
type ContentBlock struct {
	Type  ContentBlockType
	Text  string      // For text blocks
	Image *ImageBlock // For image blocks
}

// ContentBlockType represents the type of content block.
type ContentBlockType string

const (
	ContentBlockTypeText  ContentBlockType = "text"
	ContentBlockTypeImage ContentBlockType = "image"
)

// ImageBlock carries inline image data for multimodal requests.
type ImageBlock struct {
	MediaType string // MIME type, e.g. "image/png"
	Data      string // base64-encoded image bytes, no data URL prefix
}

// Request represents a complete LLM API request.
type Request struct {
	Model        string
	Messages     []Message
	System       string
	MaxTokens    int64
	Temperature  *float64 // Optional temperature override
	JSONResponse bool     // Ask the provider for a JSON object response where supported
}

// Response represents a complete LLM API response.
type Response struct {
	Content    []ContentBlock
	Usage      *Usage
	StopReason string
}

// Usage represents token usage information from an LLM response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	// Provider-specific usage fields can be added here
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// Text concatenates all text content blocks of the response.
func (r *Response) Text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type == ContentBlockTypeText {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// NewTextMessage creates a new message with a single text block.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{
				Type: ContentBlockTypeText,
				Text: text,
			},
		},
	}
}

// NewImageMessage creates a user message carrying an inline image followed
// by an optional text prompt about it.
func NewImageMessage(mediaType, data, prompt string) Message {
	content := []ContentBlock{
		{
			Type:  ContentBlockTypeImage,
			Image: &ImageBlock{MediaType: mediaType, Data: data},
		},
	}
	if prompt != "" {
		content = append(content, ContentBlock{
			Type: ContentBlockTypeText,
			Text: prompt,
		})
	}
	return Message{
		Role:    RoleUser,
		Content: content,
	}
}

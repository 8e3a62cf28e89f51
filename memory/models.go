package memory

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MemoryType describes the kind of captured content.
type MemoryType string

const (
	TypeText  MemoryType = "text"
	TypeImage MemoryType = "image"
	TypeLink  MemoryType = "link"
)

// Valid reports whether t is one of the known memory types.
func (t MemoryType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeLink:
		return true
	}
	return false
}

// SmartSummary is the structured AI-generated summary of a text or link memory.
type SmartSummary struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
}

// Memory is a single captured unit of text, image, or link content plus
// AI-derived metadata. The type never changes after creation; CreatedAt is the
// sole ordering key.
type Memory struct {
	ID   string     `json:"id"`
	Type MemoryType `json:"type"`

	// For text and link memories this is the raw string. For image memories it
	// is a data URL (base64-encoded bytes with a declared media type).
	Content string `json:"content"`

	// AI-generated caption for image memories, used as the search and chat
	// substitute for visual content.
	Description string `json:"description,omitempty"`

	SmartSummary *SmartSummary `json:"smartSummary,omitempty"`

	// Milliseconds since the Unix epoch.
	CreatedAt int64 `json:"createdAt"`

	Tags             []string `json:"tags,omitempty"`
	RelatedMemoryIDs []string `json:"relatedMemoryIds,omitempty"`

	// Transient flags, true only while an async AI call is outstanding for
	// this memory. Always reset when the call settles.
	IsProcessingSummary bool `json:"isProcessingSummary,omitempty"`
	IsProcessingAi      bool `json:"isProcessingAi,omitempty"`
}

// CreatedTime returns the creation timestamp as a time.Time.
func (m Memory) CreatedTime() time.Time {
	return time.UnixMilli(m.CreatedAt)
}

// Patch is a partial update to a Memory. Nil fields are left untouched, so a
// caller can merge a subset (only tags, or only a processing flag) without
// clobbering unrelated fields.
type Patch struct {
	Content             *string
	Description         *string
	SmartSummary        *SmartSummary
	Tags                *[]string
	RelatedMemoryIDs    *[]string
	IsProcessingSummary *bool
	IsProcessingAi      *bool
}

// IsZero reports whether the patch touches no fields.
func (p Patch) IsZero() bool {
	return p.Content == nil && p.Description == nil && p.SmartSummary == nil &&
		p.Tags == nil && p.RelatedMemoryIDs == nil &&
		p.IsProcessingSummary == nil && p.IsProcessingAi == nil
}

// ChatMessage is one turn in a chat exchange, either the user's or the AI's.
type ChatMessage struct {
	Sender  string            `json:"sender"` // "user" or "ai"
	Text    string            `json:"text"`
	Sources []GroundingSource `json:"sources,omitempty"`
}

const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// GroundingSource is an optional web citation attached to a chat answer.
type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// NewID generates a memory identifier from the creation timestamp plus a short
// random suffix. IDs sort roughly by creation time and are never reused; the
// store's primary key still rejects the (unlikely) collision.
func NewID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("mem_%d_%s", t.UnixMilli(), suffix)
}

// NormalizeTags lowercases and trims tags, dropping empties and duplicates
// while preserving first-seen order for display.
func NormalizeTags(tags []string) []string {
	cleaned := lo.FilterMap(tags, func(tag string, _ int) (string, bool) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		return tag, tag != ""
	})
	return lo.Uniq(cleaned)
}

// EncodeImageContent packs raw image bytes and their media type into the
// self-describing data-URL form stored in Memory.Content.
func EncodeImageContent(data []byte, mediaType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}

// SplitImageContent splits a data URL into its media type and base64
// payload without decoding the bytes.
func SplitImageContent(content string) (mediaType, encoded string, err error) {
	rest, ok := strings.CutPrefix(content, "data:")
	if !ok {
		return "", "", fmt.Errorf("image content is not a data URL")
	}
	mediaType, encoded, ok = strings.Cut(rest, ";base64,")
	if !ok || mediaType == "" || encoded == "" {
		return "", "", fmt.Errorf("image content has no base64 payload")
	}
	return mediaType, encoded, nil
}

// DecodeImageContent unpacks a data URL into raw bytes and media type.
func DecodeImageContent(content string) (data []byte, mediaType string, err error) {
	rest, ok := strings.CutPrefix(content, "data:")
	if !ok {
		return nil, "", fmt.Errorf("image content is not a data URL")
	}
	mediaType, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok || mediaType == "" {
		return nil, "", fmt.Errorf("image content has no base64 payload")
	}
	data, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("decode image payload: %w", err)
	}
	return data, mediaType, nil
}

package gateway

import (
	"context"
	"fmt"

	"github.com/sasa-gamer47/mindclone/llm"
	"github.com/sasa-gamer47/mindclone/memory"
)

// DescribeImage produces a one-sentence searchable description of an image.
// The image arrives as raw base64 data plus its MIME type.
func (g *Gateway) DescribeImage(ctx context.Context, mediaType, data string) (string, error) {
	text, err := g.completeText(ctx, &llm.Request{
		Messages: []llm.Message{llm.NewImageMessage(mediaType, data, describeImagePrompt)},
	})
	if err != nil {
		return "", fmt.Errorf("describe image: %w", err)
	}
	return text, nil
}

// AnalyzeImage produces a detailed sectioned analysis of an image stored as
// a data URL.
func (g *Gateway) AnalyzeImage(ctx context.Context, dataURL string) (string, error) {
	return g.imageCompletion(ctx, dataURL, analyzeImagePrompt, "analyze image")
}

// StoryFromImage writes a short imaginative story inspired by an image
// stored as a data URL.
func (g *Gateway) StoryFromImage(ctx context.Context, dataURL string) (string, error) {
	return g.imageCompletion(ctx, dataURL, storyFromImagePrompt, "story from image")
}

func (g *Gateway) imageCompletion(ctx context.Context, dataURL, prompt, op string) (string, error) {
	mediaType, data, err := memory.SplitImageContent(dataURL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	text, err := g.completeText(ctx, &llm.Request{
		Messages:  []llm.Message{llm.NewImageMessage(mediaType, data, prompt)},
		MaxTokens: chatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return text, nil
}

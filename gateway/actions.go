package gateway

import (
	"context"
	"fmt"

	"github.com/sasa-gamer47/mindclone/llm"
)

// TransformText applies a free-form instruction to a piece of text, e.g.
// "Summarize this" or "Translate to French".
func (g *Gateway) TransformText(ctx context.Context, text, prompt string) (string, error) {
	out, err := g.completeText(ctx, &llm.Request{
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, fmt.Sprintf("%s\n\nText: %q", prompt, text))},
		MaxTokens: chatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("transform text: %w", err)
	}
	return out, nil
}

// ContinueWriting extends the given text with one more paragraph in the
// same style and tone.
func (g *Gateway) ContinueWriting(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("The user has provided the following text. Continue writing the next paragraph, maintaining the same style and tone. Do not repeat the original text.\n\n---\n%s\n---", text)

	out, err := g.completeText(ctx, &llm.Request{
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt)},
		MaxTokens: chatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("continue writing: %w", err)
	}
	return out, nil
}

// PlanTrip drafts a sample 3-day itinerary from a place name, description,
// or travel link.
func (g *Gateway) PlanTrip(ctx context.Context, tripContext string) (string, error) {
	prompt := fmt.Sprintf("Based on the following context, create a sample 3-day travel itinerary. The context might be a place name, a description, or a URL to a travel blog. Be creative and suggest interesting activities, places to eat, and logical daily schedules. If the context is vague, make reasonable assumptions.\n\n---\n%s\n---", tripContext)

	out, err := g.completeText(ctx, &llm.Request{
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt)},
		MaxTokens: chatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("plan trip: %w", err)
	}
	return out, nil
}

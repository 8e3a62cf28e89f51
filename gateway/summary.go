package gateway

import (
	"context"
	"fmt"

	"github.com/sasa-gamer47/mindclone/llm"
	"github.com/sasa-gamer47/mindclone/memory"
)

// GenerateSmartSummary produces a structured summary of the given text.
func (g *Gateway) GenerateSmartSummary(ctx context.Context, text string) (memory.SmartSummary, error) {
	prompt := fmt.Sprintf("Generate a smart summary for this text:\n\n---\n%s\n---", text)

	raw, err := g.completeText(ctx, &llm.Request{
		System:       smartSummarySystem,
		Messages:     []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt)},
		JSONResponse: true,
	})
	if err != nil {
		return memory.SmartSummary{}, fmt.Errorf("generate smart summary: %w", err)
	}

	var summary memory.SmartSummary
	if err := decodeJSON(raw, &summary); err != nil {
		return memory.SmartSummary{}, fmt.Errorf("generate smart summary: %w", err)
	}
	if summary.Title == "" && summary.Summary == "" {
		return memory.SmartSummary{}, fmt.Errorf("generate smart summary: model returned an empty summary")
	}
	if len(summary.KeyPoints) > 3 {
		summary.KeyPoints = summary.KeyPoints[:3]
	}
	return summary, nil
}

package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/sasa-gamer47/mindclone/llm"
	"github.com/sasa-gamer47/mindclone/memory"
)

const maxInsightMemories = 10

// fallbackInsights is served when the collection is too small to analyze or
// when inference fails. The dashboard always has something to suggest.
var fallbackInsights = []string{
	"Summarize my recent notes",
	"What are the main topics I've saved?",
	"Draft a tweet based on my latest memory",
}

// Insights generates three actionable prompt suggestions from the most
// recent memories. Pass the collection newest-first.
func (g *Gateway) Insights(ctx context.Context, memories []memory.Memory) []string {
	if len(memories) < 3 {
		return fallbackInsights
	}

	recent := memories
	if len(recent) > maxInsightMemories {
		recent = recent[:maxInsightMemories]
	}
	serialized := lo.Map(recent, func(m memory.Memory, _ int) string {
		return serializeForInsight(m)
	})
	prompt := fmt.Sprintf("Here are the user's recent memories:\n%s", strings.Join(serialized, "\n"))

	raw, err := g.completeText(ctx, &llm.Request{
		System:       insightsSystem,
		Messages:     []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt)},
		JSONResponse: true,
	})
	if err != nil {
		g.logger.Warn().Err(err).Msg("Insight generation failed")
		return fallbackInsights
	}

	var result struct {
		Insights []string `json:"insights"`
	}
	if err := decodeJSON(raw, &result); err != nil || len(result.Insights) < 3 {
		g.logger.Warn().Err(err).Msg("Insight generation returned malformed JSON")
		return fallbackInsights
	}
	return result.Insights[:3]
}

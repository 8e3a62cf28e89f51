package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/sasa-gamer47/mindclone/llm"
	"github.com/sasa-gamer47/mindclone/memory"
)

const maxTagContextMemories = 20

// SuggestTags proposes up to 5 lowercase tags for new content, reusing the
// vocabulary of already-tagged memories where possible. Tagging is an
// optional nicety, so any failure yields no tags rather than an error.
func (g *Gateway) SuggestTags(ctx context.Context, content string, existing []memory.Memory) []string {
	tagged := lo.Filter(existing, func(m memory.Memory, _ int) bool {
		return len(m.Tags) > 0
	})
	if len(tagged) > maxTagContextMemories {
		tagged = tagged[:maxTagContextMemories]
	}

	serialized := lo.Map(tagged, func(m memory.Memory, _ int) string {
		return fmt.Sprintf("- Content: %s...\n- Tags: [%s]", truncate(primaryText(m), 150), strings.Join(m.Tags, ", "))
	})

	prompt := fmt.Sprintf("CONTEXT of Existing Memories:\n%s\n\n---\n\nNew Memory Content to tag:\n%q",
		strings.Join(serialized, "\n---\n"), content)

	raw, err := g.completeText(ctx, &llm.Request{
		System:       suggestTagsSystem,
		Messages:     []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt)},
		JSONResponse: true,
	})
	if err != nil {
		g.logger.Warn().Err(err).Msg("Tag suggestion failed")
		return nil
	}

	var result struct {
		Tags []string `json:"tags"`
	}
	if err := decodeJSON(raw, &result); err != nil {
		g.logger.Warn().Err(err).Msg("Tag suggestion returned malformed JSON")
		return nil
	}

	tags := memory.NormalizeTags(result.Tags)
	if len(tags) > 5 {
		tags = tags[:5]
	}
	return tags
}

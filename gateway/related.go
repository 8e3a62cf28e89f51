package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/sasa-gamer47/mindclone/llm"
	"github.com/sasa-gamer47/mindclone/memory"
)

// FindRelated identifies the 3 to 5 memories most semantically related to
// the target. The target itself is never a candidate, and only ids that
// actually exist in the candidate set are returned. Relation discovery is
// best-effort: failures yield an empty result, not an error.
func (g *Gateway) FindRelated(ctx context.Context, target memory.Memory, all []memory.Memory) []string {
	candidates := lo.Filter(all, func(m memory.Memory, _ int) bool {
		return m.ID != target.ID
	})
	if len(candidates) == 0 {
		return nil
	}

	serialized := lo.Map(candidates, func(m memory.Memory, _ int) string {
		return serializeForAnalysis(m)
	})
	prompt := fmt.Sprintf("TARGET MEMORY:\n%s\n\n---\n\nLIST OF CANDIDATE MEMORIES:\n%s",
		serializeForAnalysis(target), strings.Join(serialized, "\n---\n"))

	raw, err := g.completeText(ctx, &llm.Request{
		System:       findRelatedSystem,
		Messages:     []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt)},
		JSONResponse: true,
	})
	if err != nil {
		g.logger.Warn().Err(err).Str("id", target.ID).Msg("Relation discovery failed")
		return nil
	}

	var result struct {
		RelatedIDs []string `json:"relatedIds"`
	}
	if err := decodeJSON(raw, &result); err != nil {
		g.logger.Warn().Err(err).Str("id", target.ID).Msg("Relation discovery returned malformed JSON")
		return nil
	}

	// The model occasionally invents ids; keep only real candidates.
	known := lo.SliceToMap(candidates, func(m memory.Memory) (string, struct{}) {
		return m.ID, struct{}{}
	})
	related := lo.Filter(lo.Uniq(result.RelatedIDs), func(id string, _ int) bool {
		_, ok := known[id]
		return ok
	})
	if len(related) > 5 {
		related = related[:5]
	}
	return related
}

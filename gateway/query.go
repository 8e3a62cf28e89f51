package gateway

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/sasa-gamer47/mindclone/llm"
	"github.com/sasa-gamer47/mindclone/memory"
)

// emptyCollectionAnswer is returned without any inference call when there is
// nothing to query.
const emptyCollectionAnswer = "You don't have any memories saved yet. Add some content first!"

// relevantMemoriesRe matches the citation trailer the model is instructed
// to append as the last line of its answer.
var relevantMemoriesRe = regexp.MustCompile(`Relevant Memories: \[(.*?)\]\s*$`)

// QueryResult is the answer to a collection-wide question.
type QueryResult struct {
	Text      string
	MemoryIDs []string
}

// QueryAll answers a question across the entire collection. The model cites
// the memories it used in a machine-readable trailer, which is parsed into
// MemoryIDs and stripped from the visible text.
func (g *Gateway) QueryAll(ctx context.Context, query string, history []memory.ChatMessage, memories []memory.Memory) (QueryResult, error) {
	if len(memories) == 0 {
		return QueryResult{Text: emptyCollectionAnswer}, nil
	}

	serialized := lo.Map(memories, func(m memory.Memory, _ int) string {
		return serializeForQuery(m)
	})

	system := fmt.Sprintf(`You are a helpful AI assistant for a personal knowledge app called MindClone. Your task is to answer the user's question based on the provided list of their saved "memories".

Synthesize information across multiple memories if necessary.

When you use information from a memory, you MUST cite its ID. At the very end of your response, on a new line, list all cited memory IDs in the format:
Relevant Memories: [mem_12345, mem_67890]

If no memories are relevant, use "Relevant Memories: []". This is a strict formatting requirement.

Here is the list of memories:
%s`, strings.Join(serialized, "\n"))

	// The transcript rides along as alternating chat turns.
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, msg := range history {
		role := llm.RoleAssistant
		if msg.Sender == memory.SenderUser {
			role = llm.RoleUser
		}
		msgs = append(msgs, llm.NewTextMessage(role, msg.Text))
	}
	msgs = append(msgs, llm.NewTextMessage(llm.RoleUser, query))

	text, err := g.completeText(ctx, &llm.Request{
		System:    system,
		Messages:  msgs,
		MaxTokens: chatMaxTokens,
	})
	if err != nil {
		return QueryResult{}, fmt.Errorf("query memories: %w", err)
	}

	result := QueryResult{Text: text}
	if match := relevantMemoriesRe.FindStringSubmatch(text); match != nil {
		result.Text = strings.TrimSpace(relevantMemoriesRe.ReplaceAllString(text, ""))
		for _, id := range strings.Split(match[1], ",") {
			if id = strings.TrimSpace(id); id != "" {
				result.MemoryIDs = append(result.MemoryIDs, id)
			}
		}
	}
	return result, nil
}

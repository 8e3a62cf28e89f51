package gateway

import (
	"context"
	"fmt"

	"github.com/sasa-gamer47/mindclone/llm"
	"github.com/sasa-gamer47/mindclone/memory"
)

// ChatWithText answers a question about one text or link memory, grounded
// only in that memory's content and the running transcript.
func (g *Gateway) ChatWithText(ctx context.Context, memoryContent, query string, history []memory.ChatMessage) (string, error) {
	prompt := fmt.Sprintf(`You are an AI assistant. Answer the user's question based ONLY on the following context and chat history. If the answer isn't in the context, say you can't find the information in this memory.

CHAT HISTORY:
---
%s
---

CONTEXT:
---
%s
---

USER QUESTION: %s`, formatHistory(history), memoryContent, query)

	text, err := g.completeText(ctx, &llm.Request{
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt)},
		MaxTokens: chatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat with memory: %w", err)
	}
	return text, nil
}

// ChatWithImage answers a question about one image memory, grounded only in
// the image itself and the running transcript.
func (g *Gateway) ChatWithImage(ctx context.Context, dataURL, query string, history []memory.ChatMessage) (string, error) {
	mediaType, data, err := memory.SplitImageContent(dataURL)
	if err != nil {
		return "", fmt.Errorf("chat with image: %w", err)
	}

	prompt := fmt.Sprintf(`You are an AI assistant. Answer the user's question based ONLY on the provided image and chat history.

CHAT HISTORY:
---
%s
---

USER QUESTION: %s`, formatHistory(history), query)

	text, err := g.completeText(ctx, &llm.Request{
		Messages:  []llm.Message{llm.NewImageMessage(mediaType, data, prompt)},
		MaxTokens: chatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat with image: %w", err)
	}
	return text, nil
}

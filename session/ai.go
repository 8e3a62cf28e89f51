package session

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/sasa-gamer47/mindclone/gateway"
	"github.com/sasa-gamer47/mindclone/memory"
)

// CreateMemory ingests new content. Images get an AI-generated searchable
// description first; every memory then gets suggested tags from the existing
// collection's vocabulary. Both inference steps are best-effort and never
// block the save.
func (s *Session) CreateMemory(ctx context.Context, typ memory.MemoryType, content, description string) (memory.Memory, error) {
	if typ == memory.TypeImage && description == "" {
		ictx, cancel := s.inferenceContext(ctx)
		desc, err := s.describeDataURL(ictx, content)
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Image description failed; saving without one")
		} else {
			description = desc
		}
	}

	tagSource := content
	if typ == memory.TypeImage {
		tagSource = description
	}
	var tags []string
	if tagSource != "" {
		ictx, cancel := s.inferenceContext(ctx)
		tags = s.gw.SuggestTags(ictx, tagSource, s.repo.Snapshot())
		cancel()
	}

	m, err := s.repo.AddMemory(ctx, typ, content, description, tags)
	if err != nil {
		return memory.Memory{}, err
	}

	// A new memory invalidates the cached dashboard prompts.
	s.mu.Lock()
	s.insights = nil
	s.mu.Unlock()
	return m, nil
}

func (s *Session) describeDataURL(ctx context.Context, dataURL string) (string, error) {
	mediaType, data, err := memory.SplitImageContent(dataURL)
	if err != nil {
		return "", err
	}
	return s.gw.DescribeImage(ctx, mediaType, data)
}

// SummarizeMemory generates and stores a smart summary for a text or link
// memory. Only one AI operation may run per memory at a time; a second
// request returns ErrOperationInFlight. The processing flag is reset no
// matter how the inference call settles.
func (s *Session) SummarizeMemory(ctx context.Context, id string) (memory.SmartSummary, error) {
	m, ok := s.repo.Get(id)
	if !ok {
		return memory.SmartSummary{}, memory.ErrNotFound
	}
	if m.Type == memory.TypeImage {
		return memory.SmartSummary{}, fmt.Errorf("summaries apply to text and link memories")
	}
	if err := s.acquire(id); err != nil {
		return memory.SmartSummary{}, err
	}
	defer s.release(id)

	if err := s.setFlag(ctx, id, flagSummary, true); err != nil {
		return memory.SmartSummary{}, err
	}
	defer s.clearFlag(id, flagSummary)

	ictx, cancel := s.inferenceContext(ctx)
	defer cancel()

	summary, err := s.gw.GenerateSmartSummary(ictx, m.Content)
	if err != nil {
		return memory.SmartSummary{}, err
	}

	if err := s.repo.UpdateMemory(ctx, id, memory.Patch{SmartSummary: &summary}); err != nil {
		return memory.SmartSummary{}, err
	}
	s.notifyDone("Smart summary ready")
	return summary, nil
}

// DiscoverRelated asks the model for the memories most related to the given
// one and stores the result. Single-flight per memory, flag reset deferred.
func (s *Session) DiscoverRelated(ctx context.Context, id string) ([]string, error) {
	m, ok := s.repo.Get(id)
	if !ok {
		return nil, memory.ErrNotFound
	}
	if err := s.acquire(id); err != nil {
		return nil, err
	}
	defer s.release(id)

	if err := s.setFlag(ctx, id, flagAI, true); err != nil {
		return nil, err
	}
	defer s.clearFlag(id, flagAI)

	ictx, cancel := s.inferenceContext(ctx)
	defer cancel()

	related := s.gw.FindRelated(ictx, m, s.repo.Snapshot())
	if err := s.repo.UpdateMemory(ctx, id, memory.Patch{RelatedMemoryIDs: &related}); err != nil {
		return nil, err
	}
	s.notifyDone("Related memories updated")
	return related, nil
}

// ChatWithMemory answers a question grounded in one memory, appending both
// turns to that memory's transcript.
func (s *Session) ChatWithMemory(ctx context.Context, id, query string) (memory.ChatMessage, error) {
	m, ok := s.repo.Get(id)
	if !ok {
		return memory.ChatMessage{}, memory.ErrNotFound
	}

	history := s.chatHistory(id)
	s.appendChat(id, memory.ChatMessage{Sender: memory.SenderUser, Text: query})

	ictx, cancel := s.inferenceContext(ctx)
	defer cancel()

	var text string
	var err error
	if m.Type == memory.TypeImage {
		text, err = s.gw.ChatWithImage(ictx, m.Content, query, history)
	} else {
		text, err = s.gw.ChatWithText(ictx, m.Content, query, history)
	}
	if err != nil {
		return memory.ChatMessage{}, err
	}

	reply := memory.ChatMessage{Sender: memory.SenderAI, Text: text}
	s.appendChat(id, reply)
	return reply, nil
}

// QueryAll answers a question across the whole collection. Cited memories
// activate the AI result filter so the collection view narrows to them.
func (s *Session) QueryAll(ctx context.Context, query string) (gateway.QueryResult, error) {
	history := s.chatHistory(globalChatKey)
	s.appendChat(globalChatKey, memory.ChatMessage{Sender: memory.SenderUser, Text: query})

	ictx, cancel := s.inferenceContext(ctx)
	defer cancel()

	result, err := s.gw.QueryAll(ictx, query, history, s.repo.Snapshot())
	if err != nil {
		return gateway.QueryResult{}, err
	}

	s.appendChat(globalChatKey, memory.ChatMessage{Sender: memory.SenderAI, Text: result.Text})
	if len(result.MemoryIDs) > 0 {
		// Keep only citations that still resolve to a memory.
		existing := lo.Filter(result.MemoryIDs, func(id string, _ int) bool {
			_, ok := s.repo.Get(id)
			return ok
		})
		if len(existing) > 0 {
			s.SetAIResults(existing)
		}
	}
	return result, nil
}

// TransformMemoryText applies a free-form instruction to a memory's content
// and returns the transformed text without persisting anything.
func (s *Session) TransformMemoryText(ctx context.Context, id, prompt string) (string, error) {
	m, ok := s.repo.Get(id)
	if !ok {
		return "", memory.ErrNotFound
	}
	ictx, cancel := s.inferenceContext(ctx)
	defer cancel()
	return s.gw.TransformText(ictx, m.Content, prompt)
}

// ContinueWriting extends a text memory's content by one paragraph and
// persists the appended result.
func (s *Session) ContinueWriting(ctx context.Context, id string) (string, error) {
	m, ok := s.repo.Get(id)
	if !ok {
		return "", memory.ErrNotFound
	}
	ictx, cancel := s.inferenceContext(ctx)
	defer cancel()

	next, err := s.gw.ContinueWriting(ictx, m.Content)
	if err != nil {
		return "", err
	}

	combined := m.Content + "\n\n" + next
	if err := s.repo.UpdateMemory(ctx, id, memory.Patch{Content: &combined}); err != nil {
		return "", err
	}
	return combined, nil
}

// AnalyzeImage runs the detailed image analysis for an image memory.
func (s *Session) AnalyzeImage(ctx context.Context, id string) (string, error) {
	return s.imageAction(ctx, id, s.gw.AnalyzeImage)
}

// StoryFromImage writes a short story inspired by an image memory.
func (s *Session) StoryFromImage(ctx context.Context, id string) (string, error) {
	return s.imageAction(ctx, id, s.gw.StoryFromImage)
}

func (s *Session) imageAction(ctx context.Context, id string, fn func(context.Context, string) (string, error)) (string, error) {
	m, ok := s.repo.Get(id)
	if !ok {
		return "", memory.ErrNotFound
	}
	if m.Type != memory.TypeImage {
		return "", fmt.Errorf("memory %s is not an image", id)
	}
	ictx, cancel := s.inferenceContext(ctx)
	defer cancel()
	return fn(ictx, m.Content)
}

// PlanTrip drafts an itinerary from a memory's content.
func (s *Session) PlanTrip(ctx context.Context, id string) (string, error) {
	m, ok := s.repo.Get(id)
	if !ok {
		return "", memory.ErrNotFound
	}
	ictx, cancel := s.inferenceContext(ctx)
	defer cancel()
	return s.gw.PlanTrip(ictx, m.Content)
}

type processingFlag int

const (
	flagSummary processingFlag = iota
	flagAI
)

// setFlag persists a processing flag so every snapshot consumer sees the
// operation in progress.
func (s *Session) setFlag(ctx context.Context, id string, flag processingFlag, value bool) error {
	patch := memory.Patch{}
	switch flag {
	case flagSummary:
		patch.IsProcessingSummary = &value
	case flagAI:
		patch.IsProcessingAi = &value
	}
	return s.repo.UpdateMemory(ctx, id, patch)
}

// clearFlag resets a processing flag on a fresh context: the reset must
// happen even when the operation's own context timed out or was cancelled.
func (s *Session) clearFlag(id string, flag processingFlag) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.setFlag(ctx, id, flag, false); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to reset processing flag")
	}
}

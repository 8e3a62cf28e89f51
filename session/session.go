// Package session holds the per-user working state that sits between the
// repository and any surface (CLI, MCP): active filters, chat transcripts,
// cached insight prompts, and the in-flight registry that serializes AI
// operations per memory.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"

	"github.com/sasa-gamer47/mindclone/gateway"
	"github.com/sasa-gamer47/mindclone/memory"
	"github.com/sasa-gamer47/mindclone/views"
)

// ErrOperationInFlight is returned when an AI operation is requested for a
// memory that already has one running. The caller retries after the first
// one settles instead of racing it.
var ErrOperationInFlight = errors.New("an AI operation is already running for this memory")

// DefaultInferenceTimeout bounds every gateway call started by the session.
const DefaultInferenceTimeout = 60 * time.Second

const appName = "MindClone"

// globalChatKey keys the collection-wide chat transcript in the chats map,
// alongside the per-memory transcripts keyed by memory id.
const globalChatKey = ""

// Options configures a Session.
type Options struct {
	InferenceTimeout time.Duration // zero means DefaultInferenceTimeout
	Notifications    bool          // desktop notification when a slow AI action completes
}

// Session is safe for concurrent use.
type Session struct {
	repo    *memory.Repository
	gw      *gateway.Gateway
	logger  zerolog.Logger
	timeout time.Duration
	notify  bool

	mu       sync.Mutex
	search   string
	typ      memory.MemoryType
	tag      string
	aiIDs    []string // nil when the AI filter is inactive
	chats    map[string][]memory.ChatMessage
	insights []string
	pending  map[string]struct{}
}

// New creates a Session over the given repository and gateway.
func New(repo *memory.Repository, gw *gateway.Gateway, logger zerolog.Logger, opts Options) *Session {
	timeout := opts.InferenceTimeout
	if timeout <= 0 {
		timeout = DefaultInferenceTimeout
	}
	return &Session{
		repo:    repo,
		gw:      gw,
		logger:  logger.With().Str("component", "session").Logger(),
		timeout: timeout,
		notify:  opts.Notifications,
		chats:   make(map[string][]memory.ChatMessage),
		pending: make(map[string]struct{}),
	}
}

// SetSearch updates the search facet. Any manual facet change dismisses an
// active AI result filter.
func (s *Session) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = term
	s.aiIDs = nil
}

// SetTypeFilter updates the type facet and dismisses an active AI filter.
// An empty type matches everything.
func (s *Session) SetTypeFilter(typ memory.MemoryType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typ = typ
	s.aiIDs = nil
}

// SetTagFilter updates the tag facet and dismisses an active AI filter.
func (s *Session) SetTagFilter(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tag = tag
	s.aiIDs = nil
}

// SetAIResults activates the AI result filter. While active it suspends the
// manual facets entirely. An empty non-nil set is valid and matches nothing.
func (s *Session) SetAIResults(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiIDs = append([]string{}, ids...)
}

// ClearAIResults dismisses the AI result filter, restoring the manual facets.
func (s *Session) ClearAIResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiIDs = nil
}

// Filters returns the current filter state.
func (s *Session) Filters() views.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := views.Filters{Search: s.search, Type: s.typ, Tag: s.tag}
	if s.aiIDs != nil {
		f.AIResultIDs = append([]string{}, s.aiIDs...)
	}
	return f
}

// Snapshot returns the full collection ordered newest first, ignoring the
// session's filters.
func (s *Session) Snapshot() []memory.Memory {
	return s.repo.Snapshot()
}

// Visible applies the current filters to the repository snapshot.
func (s *Session) Visible() []memory.Memory {
	return views.Apply(s.repo.Snapshot(), s.Filters())
}

// ChatHistory returns a copy of the transcript for one memory.
func (s *Session) ChatHistory(memoryID string) []memory.ChatMessage {
	return s.chatHistory(memoryID)
}

// GlobalChatHistory returns a copy of the collection-wide transcript.
func (s *Session) GlobalChatHistory() []memory.ChatMessage {
	return s.chatHistory(globalChatKey)
}

func (s *Session) chatHistory(key string) []memory.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]memory.ChatMessage{}, s.chats[key]...)
}

func (s *Session) appendChat(key string, msg memory.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[key] = append(s.chats[key], msg)
}

// ClearChat drops the transcript for one memory.
func (s *Session) ClearChat(memoryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, memoryID)
}

// Insights returns the cached dashboard prompts, refreshing them first if
// the cache is empty.
func (s *Session) Insights(ctx context.Context) []string {
	s.mu.Lock()
	cached := s.insights
	s.mu.Unlock()
	if len(cached) > 0 {
		return cached
	}
	return s.RefreshInsights(ctx)
}

// RefreshInsights regenerates the dashboard prompts from the current
// collection and caches them.
func (s *Session) RefreshInsights(ctx context.Context) []string {
	ctx, cancel := s.inferenceContext(ctx)
	defer cancel()

	insights := s.gw.Insights(ctx, s.repo.Snapshot())
	s.mu.Lock()
	s.insights = insights
	s.mu.Unlock()
	return insights
}

// inferenceContext bounds a gateway call so a hung provider can never pin a
// processing flag forever.
func (s *Session) inferenceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// acquire marks a memory as having an AI operation in flight.
func (s *Session) acquire(memoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.pending[memoryID]; busy {
		return ErrOperationInFlight
	}
	s.pending[memoryID] = struct{}{}
	return nil
}

// release clears the in-flight mark.
func (s *Session) release(memoryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, memoryID)
}

// notifyDone raises a desktop notification when enabled. Failures only log;
// notifications are never load-bearing.
func (s *Session) notifyDone(message string) {
	if !s.notify {
		return
	}
	if err := beeep.Notify(appName, message, ""); err != nil {
		s.logger.Debug().Err(err).Msg("Desktop notification failed")
	}
}

package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Repository is the only code path permitted to touch the Store. It keeps the
// current full collection, sorted newest-first, as a reactive snapshot: every
// successful mutation reloads the snapshot and broadcasts it to subscribers,
// so consumers never re-query manually.
type Repository struct {
	store  *Store
	logger zerolog.Logger
	nowFn  func() time.Time

	mu       sync.RWMutex
	snapshot []Memory

	watchersMu sync.Mutex
	watchers   map[chan []Memory]struct{}
}

// NewRepository creates a Repository and loads the initial snapshot.
func NewRepository(ctx context.Context, store *Store, logger zerolog.Logger) (*Repository, error) {
	r := &Repository{
		store:    store,
		logger:   logger.With().Str("component", "memory_repository").Logger(),
		nowFn:    time.Now,
		watchers: make(map[chan []Memory]struct{}),
	}
	snapshot, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load initial snapshot: %w", err)
	}
	r.snapshot = snapshot
	return r, nil
}

// Snapshot returns a copy of the current collection, newest first.
func (r *Repository) Snapshot() []Memory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Memory, len(r.snapshot))
	copy(out, r.snapshot)
	return out
}

// Get returns the memory with the given id from the current snapshot.
func (r *Repository) Get(id string) (Memory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := lo.Find(r.snapshot, func(m Memory) bool { return m.ID == id })
	return m, ok
}

// Subscribe registers a channel that receives the full snapshot after every
// mutation. The send is non-blocking: a subscriber that falls behind misses
// intermediate snapshots but the next broadcast carries the complete state.
func (r *Repository) Subscribe() chan []Memory {
	ch := make(chan []Memory, 8)
	r.watchersMu.Lock()
	r.watchers[ch] = struct{}{}
	r.watchersMu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (r *Repository) Unsubscribe(ch chan []Memory) {
	r.watchersMu.Lock()
	delete(r.watchers, ch)
	r.watchersMu.Unlock()
	close(ch)
}

// AddMemory constructs a new Memory with a generated id and creation
// timestamp, persists it, and refreshes the snapshot. On failure the
// collection is left unchanged.
func (r *Repository) AddMemory(ctx context.Context, typ MemoryType, content, description string, tags []string) (Memory, error) {
	if !typ.Valid() {
		return Memory{}, fmt.Errorf("invalid memory type: %q", typ)
	}
	if strings.TrimSpace(content) == "" {
		return Memory{}, errors.New("content is empty")
	}

	now := r.nowFn()
	m := Memory{
		ID:          NewID(now),
		Type:        typ,
		Content:     content,
		Description: description,
		CreatedAt:   now.UnixMilli(),
		Tags:        NormalizeTags(tags),
	}

	if err := r.store.Add(ctx, m); err != nil {
		r.logger.Error().Err(err).Str("type", string(typ)).Msg("Failed to add memory")
		return Memory{}, err
	}

	r.refresh(ctx)
	return m, nil
}

// UpdateMemory merges the patch into the existing record. An absent id is a
// logged no-op. A memory's own id is never written into its related list.
func (r *Repository) UpdateMemory(ctx context.Context, id string, patch Patch) error {
	if patch.RelatedMemoryIDs != nil {
		related := lo.Filter(*patch.RelatedMemoryIDs, func(rid string, _ int) bool {
			return rid != id && rid != ""
		})
		patch.RelatedMemoryIDs = &related
	}
	if patch.Tags != nil {
		tags := NormalizeTags(*patch.Tags)
		patch.Tags = &tags
	}

	if err := r.store.Update(ctx, id, patch); err != nil {
		if errors.Is(err, ErrNotFound) {
			r.logger.Warn().Str("id", id).Msg("Update targeted a missing memory; ignoring")
			return nil
		}
		r.logger.Error().Err(err).Str("id", id).Msg("Failed to update memory")
		return err
	}

	r.refresh(ctx)
	return nil
}

// DeleteMemory removes a memory by id. Missing ids are ignored.
func (r *Repository) DeleteMemory(ctx context.Context, id string) error {
	return r.DeleteMultipleMemories(ctx, []string{id})
}

// DeleteMultipleMemories removes all listed ids. Missing ids are ignored.
func (r *Repository) DeleteMultipleMemories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.store.DeleteMany(ctx, ids); err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("Failed to delete memories")
		return err
	}
	r.refresh(ctx)
	return nil
}

// AddTagsToMultipleMemories merges newTags into every targeted memory as a
// set union with its existing tags. The store performs the whole merge in one
// transaction, so readers see either all targets updated or none.
func (r *Repository) AddTagsToMultipleMemories(ctx context.Context, ids []string, newTags []string) error {
	tags := NormalizeTags(newTags)
	if len(ids) == 0 || len(tags) == 0 {
		return nil
	}
	if err := r.store.MergeTags(ctx, ids, tags); err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("Failed to merge tags")
		return err
	}
	r.refresh(ctx)
	return nil
}

// refresh reloads the snapshot from the store and broadcasts it. A reload
// failure keeps the last-known-good snapshot.
func (r *Repository) refresh(ctx context.Context) {
	snapshot, err := r.store.All(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to reload snapshot; keeping previous")
		return
	}

	r.mu.Lock()
	r.snapshot = snapshot
	r.mu.Unlock()

	r.watchersMu.Lock()
	defer r.watchersMu.Unlock()
	for ch := range r.watchers {
		out := make([]Memory, len(snapshot))
		copy(out, snapshot)
		select {
		case ch <- out:
		default:
			// Subscriber is behind; it will catch up on the next broadcast.
		}
	}
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func setupTestRepository(t *testing.T) *Repository {
	t.Helper()
	store := setupTestStore(t)
	repo, err := NewRepository(context.Background(), store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return repo
}

// stepClock makes each r.nowFn() call strictly later than the last so that
// creation timestamps order deterministically.
func stepClock(r *Repository) {
	base := time.Now()
	var calls int64
	r.nowFn = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Millisecond)
	}
}

func TestAddMemoryGeneratesIDAndNormalizesTags(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	m, err := repo.AddMemory(ctx, TypeText, "remember the milk", "groceries", []string{" Food ", "food", "ERRANDS", ""})
	if err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	if m.ID == "" {
		t.Fatal("expected a generated id")
	}
	if m.CreatedAt == 0 {
		t.Error("expected a creation timestamp")
	}
	if len(m.Tags) != 2 || m.Tags[0] != "food" || m.Tags[1] != "errands" {
		t.Errorf("tags not normalized: %v", m.Tags)
	}

	got, ok := repo.Get(m.ID)
	if !ok {
		t.Fatal("added memory missing from snapshot")
	}
	if got.Content != "remember the milk" {
		t.Errorf("content = %q", got.Content)
	}
}

func TestAddMemoryRejectsBlankContentAndBadType(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	if _, err := repo.AddMemory(ctx, TypeText, "   ", "", nil); err == nil {
		t.Error("expected error for blank content")
	}
	if _, err := repo.AddMemory(ctx, MemoryType("video"), "clip", "", nil); err == nil {
		t.Error("expected error for unknown type")
	}
	if len(repo.Snapshot()) != 0 {
		t.Error("failed adds must not touch the collection")
	}
}

func TestSnapshotOrderedNewestFirst(t *testing.T) {
	repo := setupTestRepository(t)
	stepClock(repo)
	ctx := context.Background()

	first, _ := repo.AddMemory(ctx, TypeText, "first", "", nil)
	second, _ := repo.AddMemory(ctx, TypeText, "second", "", nil)
	third, _ := repo.AddMemory(ctx, TypeText, "third", "", nil)

	snap := repo.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 memories, got %d", len(snap))
	}
	wantOrder := []string{third.ID, second.ID, first.ID}
	for i, want := range wantOrder {
		if snap[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, snap[i].ID, want)
		}
	}
}

func TestSubscribeReceivesBroadcastAfterMutation(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	ch := repo.Subscribe()
	defer repo.Unsubscribe(ch)

	added, err := repo.AddMemory(ctx, TypeText, "broadcast me", "", nil)
	if err != nil {
		t.Fatalf("AddMemory: %v", err)
	}

	select {
	case snap := <-ch:
		if len(snap) != 1 || snap[0].ID != added.ID {
			t.Errorf("broadcast snapshot mismatch: %v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestUpdateMissingMemoryIsNoOp(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	existing, _ := repo.AddMemory(ctx, TypeText, "keep me", "", nil)

	desc := "ghost edit"
	if err := repo.UpdateMemory(ctx, "mem_0_missing", Patch{Description: &desc}); err != nil {
		t.Fatalf("update of a missing id must not error: %v", err)
	}

	snap := repo.Snapshot()
	if len(snap) != 1 || snap[0].ID != existing.ID || snap[0].Description != "" {
		t.Errorf("collection changed by a missing-id update: %v", snap)
	}
}

func TestUpdateNeverStoresSelfReference(t *testing.T) {
	repo := setupTestRepository(t)
	stepClock(repo)
	ctx := context.Background()

	a, _ := repo.AddMemory(ctx, TypeText, "a", "", nil)
	b, _ := repo.AddMemory(ctx, TypeText, "b", "", nil)

	related := []string{a.ID, b.ID, ""}
	if err := repo.UpdateMemory(ctx, a.ID, Patch{RelatedMemoryIDs: &related}); err != nil {
		t.Fatalf("UpdateMemory: %v", err)
	}

	got, _ := repo.Get(a.ID)
	if len(got.RelatedMemoryIDs) != 1 || got.RelatedMemoryIDs[0] != b.ID {
		t.Errorf("related ids = %v, want only %s", got.RelatedMemoryIDs, b.ID)
	}
}

func TestDeleteRemovesFromSnapshot(t *testing.T) {
	repo := setupTestRepository(t)
	stepClock(repo)
	ctx := context.Background()

	a, _ := repo.AddMemory(ctx, TypeText, "a", "", nil)
	b, _ := repo.AddMemory(ctx, TypeText, "b", "", nil)
	c, _ := repo.AddMemory(ctx, TypeText, "c", "", nil)

	if err := repo.DeleteMemory(ctx, b.ID); err != nil {
		t.Fatalf("DeleteMemory: %v", err)
	}
	if _, ok := repo.Get(b.ID); ok {
		t.Error("deleted memory still present")
	}

	if err := repo.DeleteMultipleMemories(ctx, []string{a.ID, "mem_0_missing", c.ID}); err != nil {
		t.Fatalf("DeleteMultipleMemories: %v", err)
	}
	if len(repo.Snapshot()) != 0 {
		t.Errorf("expected empty collection, got %v", repo.Snapshot())
	}
}

func TestAddTagsToMultipleMemoriesIsScopedUnion(t *testing.T) {
	repo := setupTestRepository(t)
	stepClock(repo)
	ctx := context.Background()

	a, _ := repo.AddMemory(ctx, TypeText, "a", "", []string{"alpha"})
	b, _ := repo.AddMemory(ctx, TypeText, "b", "", []string{"beta"})
	c, _ := repo.AddMemory(ctx, TypeText, "c", "", []string{"gamma"})

	if err := repo.AddTagsToMultipleMemories(ctx, []string{a.ID, b.ID}, []string{"Shared", "alpha"}); err != nil {
		t.Fatalf("AddTagsToMultipleMemories: %v", err)
	}

	gotA, _ := repo.Get(a.ID)
	if len(gotA.Tags) != 2 || gotA.Tags[0] != "alpha" || gotA.Tags[1] != "shared" {
		t.Errorf("a tags = %v", gotA.Tags)
	}
	gotB, _ := repo.Get(b.ID)
	if len(gotB.Tags) != 2 || gotB.Tags[0] != "beta" || gotB.Tags[1] != "shared" {
		t.Errorf("b tags = %v", gotB.Tags)
	}
	gotC, _ := repo.Get(c.ID)
	if len(gotC.Tags) != 1 || gotC.Tags[0] != "gamma" {
		t.Errorf("untargeted memory changed: %v", gotC.Tags)
	}
}

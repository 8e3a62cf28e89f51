package views

import (
	"testing"

	"github.com/sasa-gamer47/mindclone/memory"
)

func TestBuildCanvasGroupsByFirstTagOnly(t *testing.T) {
	input := []memory.Memory{
		textMemory("mem_1_a", "a", "travel", "food"),
		textMemory("mem_2_b", "b", "food"),
		textMemory("mem_3_c", "c", "travel"),
	}

	groups := BuildCanvas(input)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %v", groups)
	}
	if groups[0].Tag != "food" || len(groups[0].Memories) != 1 || groups[0].Memories[0].ID != "mem_2_b" {
		t.Errorf("food group wrong: %v", groups[0])
	}
	if groups[1].Tag != "travel" || len(groups[1].Memories) != 2 {
		t.Errorf("travel group wrong: %v", groups[1])
	}
}

func TestBuildCanvasUntaggedGroupIsLast(t *testing.T) {
	input := []memory.Memory{
		textMemory("mem_1_a", "a"),
		textMemory("mem_2_b", "b", "zebra"),
		textMemory("mem_3_c", "c", "alpha"),
	}

	groups := BuildCanvas(input)
	wantTags := []string{"alpha", "zebra", UntaggedGroup}
	if len(groups) != len(wantTags) {
		t.Fatalf("expected %d groups, got %v", len(wantTags), groups)
	}
	for i, want := range wantTags {
		if groups[i].Tag != want {
			t.Errorf("group %d = %q, want %q", i, groups[i].Tag, want)
		}
	}
}

func TestBuildCanvasOmitsEmptyUntaggedGroup(t *testing.T) {
	input := []memory.Memory{textMemory("mem_1_a", "a", "solo")}
	groups := BuildCanvas(input)
	if len(groups) != 1 || groups[0].Tag != "solo" {
		t.Errorf("got %v", groups)
	}
}

func TestBuildCanvasEveryMemoryAppearsExactlyOnce(t *testing.T) {
	input := []memory.Memory{
		textMemory("mem_1_a", "a", "x", "y", "z"),
		textMemory("mem_2_b", "b"),
		textMemory("mem_3_c", "c", "y"),
	}

	seen := map[string]int{}
	for _, g := range BuildCanvas(input) {
		for _, m := range g.Memories {
			seen[m.ID]++
		}
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct memories, got %v", seen)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("%s appears %d times", id, n)
		}
	}
}

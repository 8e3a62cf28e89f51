package views

import (
	"testing"

	"github.com/sasa-gamer47/mindclone/memory"
)

func textMemory(id, content string, tags ...string) memory.Memory {
	return memory.Memory{ID: id, Type: memory.TypeText, Content: content, Tags: tags}
}

func TestApplyDropsZeroValueRecords(t *testing.T) {
	input := []memory.Memory{
		{},
		textMemory("mem_1_a", "keep"),
	}
	got := Apply(input, Filters{})
	if len(got) != 1 || got[0].ID != "mem_1_a" {
		t.Errorf("got %v", got)
	}
}

func TestApplyAIResultSetOverridesManualFacets(t *testing.T) {
	input := []memory.Memory{
		textMemory("mem_1_a", "alpha", "work"),
		textMemory("mem_2_b", "beta", "home"),
		textMemory("mem_3_c", "gamma", "work"),
	}

	// Manual facets would exclude mem_2_b, but the AI set wins outright.
	got := Apply(input, Filters{
		Search:      "alpha",
		Tag:         "work",
		AIResultIDs: []string{"mem_2_b", "mem_3_c"},
	})
	if len(got) != 2 || got[0].ID != "mem_2_b" || got[1].ID != "mem_3_c" {
		t.Errorf("got %v", got)
	}
}

func TestApplyEmptyAIResultSetMatchesNothing(t *testing.T) {
	input := []memory.Memory{textMemory("mem_1_a", "alpha")}
	got := Apply(input, Filters{AIResultIDs: []string{}})
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestApplyManualFacetsCompose(t *testing.T) {
	input := []memory.Memory{
		textMemory("mem_1_a", "meeting notes", "work"),
		textMemory("mem_2_b", "meeting agenda", "home"),
		{ID: "mem_3_c", Type: memory.TypeLink, Content: "https://example.com/meeting", Tags: []string{"work"}},
		textMemory("mem_4_d", "grocery list", "work"),
	}

	got := Apply(input, Filters{Search: "meeting", Type: memory.TypeText, Tag: "work"})
	if len(got) != 1 || got[0].ID != "mem_1_a" {
		t.Errorf("got %v", got)
	}
}

func TestApplySearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	input := []memory.Memory{
		textMemory("mem_1_a", "Quarterly REVIEW"),
		{ID: "mem_2_b", Type: memory.TypeImage, Content: "data:image/png;base64,xxxx", Description: "team review photo"},
		textMemory("mem_3_c", "unrelated", "review-later"),
		{
			ID: "mem_4_d", Type: memory.TypeText, Content: "unrelated",
			SmartSummary: &memory.SmartSummary{Title: "Review of the year"},
		},
		textMemory("mem_5_e", "nothing here"),
	}

	got := Apply(input, Filters{Search: "review"})
	if len(got) != 4 {
		t.Fatalf("expected 4 matches, got %d: %v", len(got), got)
	}
	for _, m := range got {
		if m.ID == "mem_5_e" {
			t.Error("non-matching record survived the search filter")
		}
	}
}

func TestApplyImageContentIsNeverSearched(t *testing.T) {
	input := []memory.Memory{
		{ID: "mem_1_a", Type: memory.TypeImage, Content: "data:image/png;base64,needle", Description: "a cat"},
	}
	if got := Apply(input, Filters{Search: "needle"}); len(got) != 0 {
		t.Errorf("image data URL matched the search: %v", got)
	}
	if got := Apply(input, Filters{Search: "cat"}); len(got) != 1 {
		t.Errorf("image description did not match: %v", got)
	}
}

func TestApplyPreservesInputOrder(t *testing.T) {
	input := []memory.Memory{
		textMemory("mem_3_c", "x"),
		textMemory("mem_2_b", "x"),
		textMemory("mem_1_a", "x"),
	}
	got := Apply(input, Filters{Search: "x"})
	if len(got) != 3 || got[0].ID != "mem_3_c" || got[2].ID != "mem_1_a" {
		t.Errorf("order not preserved: %v", got)
	}
}

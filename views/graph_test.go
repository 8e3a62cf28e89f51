package views

import (
	"strings"
	"testing"

	"github.com/sasa-gamer47/mindclone/memory"
)

func TestBuildGraphEdgesOnlyBetweenVisibleNodes(t *testing.T) {
	input := []memory.Memory{
		{ID: "mem_1_a", Type: memory.TypeText, Content: "a", RelatedMemoryIDs: []string{"mem_2_b", "mem_9_gone"}},
		{ID: "mem_2_b", Type: memory.TypeText, Content: "b"},
	}

	g := BuildGraph(input)
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %v", g.Nodes)
	}
	if len(g.Edges) != 1 || g.Edges[0] != (Edge{Source: "mem_1_a", Target: "mem_2_b"}) {
		t.Errorf("edges = %v", g.Edges)
	}
}

func TestBuildGraphLabelPreference(t *testing.T) {
	long := strings.Repeat("x", 40)
	input := []memory.Memory{
		{
			ID: "mem_1_a", Type: memory.TypeText, Content: "raw content",
			SmartSummary: &memory.SmartSummary{Title: "Summary Title"},
		},
		{ID: "mem_2_b", Type: memory.TypeImage, Content: "data:image/png;base64,zz", Description: "photo of a dog"},
		{ID: "mem_3_c", Type: memory.TypeText, Content: long},
		{ID: "mem_4_deadbeef99", Type: memory.TypeText, Content: "   "},
	}

	g := BuildGraph(input)
	wantLabels := map[string]string{
		"mem_1_a":          "Summary Title",
		"mem_2_b":          "photo of a dog",
		"mem_3_c":          strings.Repeat("x", 30) + "...",
		"mem_4_deadbeef99": "Memory 4_deadbe",
	}
	for _, n := range g.Nodes {
		if n.Label != wantLabels[n.ID] {
			t.Errorf("%s label = %q, want %q", n.ID, n.Label, wantLabels[n.ID])
		}
	}
}

func TestBuildGraphTruncationCountsRunes(t *testing.T) {
	content := strings.Repeat("é", 35)
	g := BuildGraph([]memory.Memory{{ID: "mem_1_a", Type: memory.TypeText, Content: content}})
	want := strings.Repeat("é", 30) + "..."
	if g.Nodes[0].Label != want {
		t.Errorf("label = %q, want %q", g.Nodes[0].Label, want)
	}
}

func TestNeighborClosureIncludesBothDirections(t *testing.T) {
	edges := []Edge{
		{Source: "a", Target: "b"},
		{Source: "c", Target: "a"},
		{Source: "b", Target: "d"},
		{Source: "e", Target: "f"},
	}

	closure := NeighborClosure("a", edges)
	for _, want := range []string{"a", "b", "c"} {
		if _, ok := closure[want]; !ok {
			t.Errorf("closure missing %s: %v", want, closure)
		}
	}
	if len(closure) != 3 {
		t.Errorf("closure = %v, want exactly a, b, c", closure)
	}
}

func TestNeighborClosureIsolatedNode(t *testing.T) {
	closure := NeighborClosure("lonely", nil)
	if len(closure) != 1 {
		t.Errorf("closure = %v", closure)
	}
	if _, ok := closure["lonely"]; !ok {
		t.Error("closure must contain the hovered node itself")
	}
}

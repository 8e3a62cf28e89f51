package views

import (
	"strings"

	"github.com/sasa-gamer47/mindclone/memory"
)

const maxLabelRunes = 30

// Node is one memory rendered in the relation graph.
type Node struct {
	ID    string
	Label string
	Type  memory.MemoryType
}

// Edge is a directed relation from one visible memory to another.
type Edge struct {
	Source string
	Target string
}

// Graph is the relation graph over a visible subset of the collection.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// BuildGraph assembles one node per visible memory and one edge per related
// id whose target is also visible. Relations pointing outside the visible
// set produce no edge, so filtering the collection prunes the graph with it.
func BuildGraph(memories []memory.Memory) Graph {
	nodes := make([]Node, 0, len(memories))
	nodeIDs := make(map[string]struct{}, len(memories))
	for _, m := range memories {
		nodes = append(nodes, Node{ID: m.ID, Label: nodeLabel(m), Type: m.Type})
		nodeIDs[m.ID] = struct{}{}
	}

	var edges []Edge
	for _, m := range memories {
		for _, relatedID := range m.RelatedMemoryIDs {
			if _, visible := nodeIDs[relatedID]; visible {
				edges = append(edges, Edge{Source: m.ID, Target: relatedID})
			}
		}
	}

	return Graph{Nodes: nodes, Edges: edges}
}

// NeighborClosure returns the hovered node plus every node one hop away in
// either edge direction.
func NeighborClosure(id string, edges []Edge) map[string]struct{} {
	closure := map[string]struct{}{id: {}}
	for _, e := range edges {
		if e.Source == id {
			closure[e.Target] = struct{}{}
		}
		if e.Target == id {
			closure[e.Source] = struct{}{}
		}
	}
	return closure
}

// nodeLabel picks the summary title when one exists, otherwise the primary
// text truncated to a readable length, otherwise a fragment of the id.
func nodeLabel(m memory.Memory) string {
	text := m.Content
	if m.Type == memory.TypeImage {
		text = m.Description
	}
	if m.SmartSummary != nil && m.SmartSummary.Title != "" {
		text = m.SmartSummary.Title
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "Memory " + idFragment(m.ID)
	}

	runes := []rune(text)
	if len(runes) > maxLabelRunes {
		return string(runes[:maxLabelRunes]) + "..."
	}
	return text
}

// idFragment shortens a generated id for display, dropping the common
// prefix so the fragment actually distinguishes records.
func idFragment(id string) string {
	frag := strings.TrimPrefix(id, "mem_")
	if len(frag) > 8 {
		frag = frag[:8]
	}
	return frag
}

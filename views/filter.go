// Package views derives presentation-ready structures from a memory
// collection. Every function is pure: input slice in, derived value out,
// no retained state. Malformed records are skipped, never reported.
package views

import (
	"strings"

	"github.com/samber/lo"

	"github.com/sasa-gamer47/mindclone/memory"
)

// Filters describes one pass over the collection. An AI result set takes
// priority over every manual facet: while AIResultIDs is non-nil the search,
// type and tag fields are ignored entirely. A nil AIResultIDs means the AI
// filter is inactive; an empty non-nil slice matches nothing.
type Filters struct {
	Search      string
	Type        memory.MemoryType // empty matches all types
	Tag         string
	AIResultIDs []string
}

// Apply runs the filter pipeline and returns the visible subset in the
// input's order. Records with an empty id are dropped before any matching.
func Apply(memories []memory.Memory, f Filters) []memory.Memory {
	visible := lo.Filter(memories, func(m memory.Memory, _ int) bool {
		return m.ID != ""
	})

	if f.AIResultIDs != nil {
		idSet := lo.SliceToMap(f.AIResultIDs, func(id string) (string, struct{}) {
			return id, struct{}{}
		})
		return lo.Filter(visible, func(m memory.Memory, _ int) bool {
			_, ok := idSet[m.ID]
			return ok
		})
	}

	if f.Tag != "" {
		visible = lo.Filter(visible, func(m memory.Memory, _ int) bool {
			return lo.Contains(m.Tags, f.Tag)
		})
	}
	if f.Type != "" {
		visible = lo.Filter(visible, func(m memory.Memory, _ int) bool {
			return m.Type == f.Type
		})
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		needle := strings.ToLower(term)
		visible = lo.Filter(visible, func(m memory.Memory, _ int) bool {
			return matchesSearch(m, needle)
		})
	}
	return visible
}

// matchesSearch checks the record's primary text, joined tags and summary
// title for a case-insensitive substring. For images the primary text is the
// description; the raw content is an opaque data URL and never searched.
func matchesSearch(m memory.Memory, needle string) bool {
	primary := m.Content
	if m.Type == memory.TypeImage {
		primary = m.Description
	}
	if strings.Contains(strings.ToLower(primary), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(strings.Join(m.Tags, " ")), needle) {
		return true
	}
	if m.SmartSummary != nil && strings.Contains(strings.ToLower(m.SmartSummary.Title), needle) {
		return true
	}
	return false
}

package views

import (
	"sort"

	"github.com/sasa-gamer47/mindclone/memory"
)

// UntaggedGroup is the label of the catch-all canvas group for memories
// without tags.
const UntaggedGroup = "Untagged"

// CanvasGroup is one tag cluster on the canvas.
type CanvasGroup struct {
	Tag      string
	Memories []memory.Memory
}

// BuildCanvas clusters memories by their first tag only, so every memory
// appears in exactly one group. Named groups come back in lexicographic
// order; the Untagged group, when present, is always last. Empty groups are
// never emitted.
func BuildCanvas(memories []memory.Memory) []CanvasGroup {
	byTag := make(map[string][]memory.Memory)
	var untagged []memory.Memory

	for _, m := range memories {
		if len(m.Tags) == 0 {
			untagged = append(untagged, m)
			continue
		}
		primary := m.Tags[0]
		byTag[primary] = append(byTag[primary], m)
	}

	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	groups := make([]CanvasGroup, 0, len(tags)+1)
	for _, tag := range tags {
		groups = append(groups, CanvasGroup{Tag: tag, Memories: byTag[tag]})
	}
	if len(untagged) > 0 {
		groups = append(groups, CanvasGroup{Tag: UntaggedGroup, Memories: untagged})
	}
	return groups
}

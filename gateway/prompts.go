package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/sasa-gamer47/mindclone/memory"
)

const (
	smartSummarySystem = `You are an AI assistant that creates a "Smart Summary" of a given text.
Analyze the text and generate a JSON object with three fields:
1.  "title": A short, catchy title (5-10 words).
2.  "summary": A concise one-paragraph summary.
3.  "keyPoints": An array of strings, with each string being a key takeaway or action item. Extract a maximum of 3 key points.
Return only the JSON object.`

	suggestTagsSystem = `You are an AI assistant that helps organize memories by generating relevant tags.
Based on the 'New Memory Content' and the context of 'Existing Memories', generate up to 5 relevant, single-word, lowercase tags.
Prioritize reusing tags from existing memories if the content is similar. Only create new tags if necessary.
Return the tags as a JSON object with a "tags" key containing an array of strings. For example: {"tags": ["work", "project", "javascript"]}`

	findRelatedSystem = `You are an AI assistant that finds connections between memories.
Analyze the 'Target Memory' and compare it against the 'List of Candidate Memories'.
Identify the 3 to 5 most semantically related memories based on shared topics, concepts, or context.
Return a JSON object with a single key, "relatedIds", containing an array of the IDs of the most related memories.
Example: {"relatedIds": ["mem_12345", "mem_67890"]}`

	insightsSystem = `You are a proactive AI assistant for a personal knowledge app.
Analyze the user's recent memories and identify potential themes, connections, or tasks.
Generate 3 concise, actionable prompts or questions that the user might want to ask.
Frame them as if the user is asking. For example: "Summarize my notes about project X" or "What's the connection between my notes on AI and my saved link about marketing?".
Return a JSON object with a single key, "insights", containing an array of exactly 3 strings.
Example: {"insights": ["What are the key takeaways from my recent work notes?", "Compare my notes on React and Vue", "Draft a blog post outline about sustainable energy"]}`

	describeImagePrompt = "Briefly describe this image in a single sentence. This description will be used for search purposes."

	analyzeImagePrompt = "Analyze this image in detail. Identify key objects, read any visible text, and describe the overall scene and context. Format the output with clear headings for each section (e.g., Objects, Text, Scene Description)."

	storyFromImagePrompt = "Write a short, imaginative story inspired by this image."
)

// formatHistory flattens a chat transcript into sender-prefixed lines for
// inclusion in a prompt.
func formatHistory(history []memory.ChatMessage) string {
	lines := lo.Map(history, func(msg memory.ChatMessage, _ int) string {
		return fmt.Sprintf("%s: %s", msg.Sender, msg.Text)
	})
	return strings.Join(lines, "\n")
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// primaryText returns the searchable text of a memory: the description for
// images, the content for everything else.
func primaryText(m memory.Memory) string {
	if m.Type == memory.TypeImage {
		return m.Description
	}
	return m.Content
}

// serializeForAnalysis renders one memory as a prompt block for relation
// analysis.
func serializeForAnalysis(m memory.Memory) string {
	var preview string
	switch m.Type {
	case memory.TypeImage:
		desc := m.Description
		if desc == "" {
			desc = "No description available."
		}
		preview = fmt.Sprintf("Description: %q", desc)
	default:
		preview = fmt.Sprintf("Content: %q", truncate(m.Content, 200))
	}

	tags := ""
	if len(m.Tags) > 0 {
		tags = fmt.Sprintf("Tags: [%s]", strings.Join(m.Tags, ", "))
	}
	return fmt.Sprintf("- ID: %s\n- Type: %s\n- %s\n- %s", m.ID, m.Type, preview, tags)
}

// serializeForQuery renders one memory as a prompt block for the
// collection-wide query, including its creation time.
func serializeForQuery(m memory.Memory) string {
	var preview string
	switch m.Type {
	case memory.TypeImage:
		desc := m.Description
		if desc == "" {
			desc = "No description available."
		}
		preview = fmt.Sprintf("Description: %q", desc)
	case memory.TypeLink:
		preview = fmt.Sprintf("URL: %q", m.Content)
	default:
		preview = fmt.Sprintf("Content: %q", truncate(m.Content, 200))
	}

	created := time.UnixMilli(m.CreatedAt).Format("2006-01-02 15:04")
	return fmt.Sprintf("---\n- ID: %s\n- Type: %s\n- Created: %s\n- %s\n---", m.ID, m.Type, created, preview)
}

// serializeForInsight renders one memory as a compact line for insight
// prompt generation.
func serializeForInsight(m memory.Memory) string {
	tags := ""
	if len(m.Tags) > 0 {
		tags = fmt.Sprintf("[%s]", strings.Join(m.Tags, ", "))
	}
	return fmt.Sprintf("- Type: %s, Content: %q, Tags: %s", m.Type, truncate(primaryText(m), 100), tags)
}

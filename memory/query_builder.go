package memory

import (
	sq "github.com/Masterminds/squirrel"
)

// StatementBuilder returns a Squirrel StatementBuilder configured for SQLite.
// SQLite uses '?' as placeholders, which is Squirrel's default.
func StatementBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder
}

// SelectMemoryColumns returns the standard column list for memories SELECT queries.
func SelectMemoryColumns() []string {
	return []string{
		"id", "type", "content", "description", "smart_summary_json",
		"created_at", "tags_json", "related_ids_json",
		"is_processing_summary", "is_processing_ai",
	}
}

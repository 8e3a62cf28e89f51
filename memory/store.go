package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when an operation targets an id that is not in the store.
	ErrNotFound = errors.New("memory not found")

	// ErrDuplicateID is returned when Add is called with an id that already exists.
	ErrDuplicateID = errors.New("memory id already exists")
)

// Store owns all memory persistence. It assumes migrations have already been
// applied to the database it is given.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore creates a Store over an open, migrated database.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "memory_store").Logger(),
	}
}

// Add inserts a new memory. It fails with ErrDuplicateID if the id already
// exists and leaves the store unchanged in that case.
func (s *Store) Add(ctx context.Context, m Memory) error {
	if m.ID == "" {
		return errors.New("memory id is empty")
	}
	if !m.Type.Valid() {
		return fmt.Errorf("invalid memory type: %q", m.Type)
	}

	row, err := encodeRow(m)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := StatementBuilder().
		Insert("memories").
		Columns(SelectMemoryColumns()...).
		Values(m.ID, string(m.Type), m.Content, row.description, row.smartSummaryJSON,
			m.CreatedAt, row.tagsJSON, row.relatedJSON,
			boolToInt(m.IsProcessingSummary), boolToInt(m.IsProcessingAi))

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := tx.ExecContext(ctx, queryStr, args...); err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
		return fmt.Errorf("insert memory: %w", err)
	}

	if err := replaceTagIndex(ctx, tx, m.ID, m.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}

	s.logger.Debug().Str("id", m.ID).Str("type", string(m.Type)).Msg("Memory added")
	return nil
}

// Update merges the non-nil fields of patch into the stored record.
// Returns ErrNotFound when the id is absent; callers treat that as a logged
// no-op, not a fatal error.
func (s *Store) Update(ctx context.Context, id string, patch Patch) error {
	if patch.IsZero() {
		return nil
	}

	update := StatementBuilder().Update("memories").Where(sq.Eq{"id": id})

	if patch.Content != nil {
		update = update.Set("content", *patch.Content)
	}
	if patch.Description != nil {
		update = update.Set("description", *patch.Description)
	}
	if patch.SmartSummary != nil {
		summaryJSON, err := json.Marshal(patch.SmartSummary)
		if err != nil {
			return fmt.Errorf("marshal smart summary: %w", err)
		}
		update = update.Set("smart_summary_json", string(summaryJSON))
	}
	if patch.Tags != nil {
		tagsJSON, err := json.Marshal(*patch.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags: %w", err)
		}
		update = update.Set("tags_json", string(tagsJSON))
	}
	if patch.RelatedMemoryIDs != nil {
		relatedJSON, err := json.Marshal(*patch.RelatedMemoryIDs)
		if err != nil {
			return fmt.Errorf("marshal related ids: %w", err)
		}
		update = update.Set("related_ids_json", string(relatedJSON))
	}
	if patch.IsProcessingSummary != nil {
		update = update.Set("is_processing_summary", boolToInt(*patch.IsProcessingSummary))
	}
	if patch.IsProcessingAi != nil {
		update = update.Set("is_processing_ai", boolToInt(*patch.IsProcessingAi))
	}

	queryStr, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return fmt.Errorf("update memory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if patch.Tags != nil {
		if err := replaceTagIndex(ctx, tx, id, *patch.Tags); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes a memory by id. A missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.DeleteMany(ctx, []string{id})
}

// DeleteMany removes all memories whose ids are in ids. Absent ids are ignored.
func (s *Store) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"memory_tags", "memories"} {
		column := "id"
		if table == "memory_tags" {
			column = "memory_id"
		}
		queryStr, args, err := StatementBuilder().
			Delete(table).
			Where(sq.Eq{column: ids}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, queryStr, args...); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	s.logger.Debug().Int("count", len(ids)).Msg("Memories deleted")
	return nil
}

// PutMany upserts the given records by id in a single transaction.
func (s *Store) PutMany(ctx context.Context, memories []Memory) error {
	if len(memories) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := putManyTx(ctx, tx, memories); err != nil {
		return err
	}

	return tx.Commit()
}

// MergeTags adds newTags to every memory in ids as a set union with its
// existing tags. The whole read-modify-write runs in one transaction so a
// concurrent reader never observes a partially applied merge.
func (s *Store) MergeTags(ctx context.Context, ids []string, newTags []string) error {
	if len(ids) == 0 || len(newTags) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	queryStr, args, err := StatementBuilder().
		Select(SelectMemoryColumns()...).
		From("memories").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build select query: %w", err)
	}

	rows, err := tx.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return fmt.Errorf("select merge targets: %w", err)
	}
	targets, err := scanMemories(rows)
	if err != nil {
		return err
	}

	for i := range targets {
		targets[i].Tags = unionTags(targets[i].Tags, newTags)
	}

	if err := putManyTx(ctx, tx, targets); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tag merge: %w", err)
	}

	s.logger.Debug().Int("count", len(targets)).Strs("tags", newTags).Msg("Tags merged")
	return nil
}

// All returns every memory ordered by creation time, newest first.
func (s *Store) All(ctx context.Context) ([]Memory, error) {
	return s.query(ctx, func(b sq.SelectBuilder) sq.SelectBuilder { return b })
}

// Get returns a single memory by id.
func (s *Store) Get(ctx context.Context, id string) (Memory, error) {
	results, err := s.query(ctx, func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.Eq{"id": id})
	})
	if err != nil {
		return Memory{}, err
	}
	if len(results) == 0 {
		return Memory{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return results[0], nil
}

// ByTag returns all memories carrying the given tag, newest first. It goes
// through the memory_tags index rather than decoding every record.
func (s *Store) ByTag(ctx context.Context, tag string) ([]Memory, error) {
	return s.query(ctx, func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Join("memory_tags ON memory_tags.memory_id = memories.id").
			Where(sq.Eq{"memory_tags.tag": tag})
	})
}

// Search returns memories whose content or description contains term,
// case-insensitively, newest first.
func (s *Store) Search(ctx context.Context, term string) ([]Memory, error) {
	pattern := "%" + term + "%"
	return s.query(ctx, func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.Or{
			sq.Like{"content": pattern},
			sq.Like{"description": pattern},
		})
	})
}

func (s *Store) query(ctx context.Context, refine func(sq.SelectBuilder) sq.SelectBuilder) ([]Memory, error) {
	builder := StatementBuilder().
		Select(prefixColumns("memories", SelectMemoryColumns())...).
		From("memories").
		OrderBy("memories.created_at DESC", "memories.id DESC")
	builder = refine(builder)

	queryStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	return scanMemories(rows)
}

func prefixColumns(table string, columns []string) []string {
	prefixed := make([]string, len(columns))
	for i, c := range columns {
		prefixed[i] = table + "." + c
	}
	return prefixed
}

// encodedRow holds the nullable JSON columns for a memory.
type encodedRow struct {
	description      sql.NullString
	smartSummaryJSON sql.NullString
	tagsJSON         sql.NullString
	relatedJSON      sql.NullString
}

func encodeRow(m Memory) (encodedRow, error) {
	var row encodedRow
	if m.Description != "" {
		row.description = sql.NullString{String: m.Description, Valid: true}
	}
	if m.SmartSummary != nil {
		data, err := json.Marshal(m.SmartSummary)
		if err != nil {
			return row, fmt.Errorf("marshal smart summary: %w", err)
		}
		row.smartSummaryJSON = sql.NullString{String: string(data), Valid: true}
	}
	if m.Tags != nil {
		data, err := json.Marshal(m.Tags)
		if err != nil {
			return row, fmt.Errorf("marshal tags: %w", err)
		}
		row.tagsJSON = sql.NullString{String: string(data), Valid: true}
	}
	if m.RelatedMemoryIDs != nil {
		data, err := json.Marshal(m.RelatedMemoryIDs)
		if err != nil {
			return row, fmt.Errorf("marshal related ids: %w", err)
		}
		row.relatedJSON = sql.NullString{String: string(data), Valid: true}
	}
	return row, nil
}

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	defer func() { _ = rows.Close() }()

	var memories []Memory
	for rows.Next() {
		var (
			m           Memory
			typ         string
			row         encodedRow
			procSummary int
			procAI      int
		)
		if err := rows.Scan(&m.ID, &typ, &m.Content, &row.description, &row.smartSummaryJSON,
			&m.CreatedAt, &row.tagsJSON, &row.relatedJSON, &procSummary, &procAI); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		m.Type = MemoryType(typ)
		m.Description = row.description.String
		m.IsProcessingSummary = procSummary != 0
		m.IsProcessingAi = procAI != 0

		if row.smartSummaryJSON.Valid {
			var summary SmartSummary
			if err := json.Unmarshal([]byte(row.smartSummaryJSON.String), &summary); err == nil {
				m.SmartSummary = &summary
			}
		}
		if row.tagsJSON.Valid {
			_ = json.Unmarshal([]byte(row.tagsJSON.String), &m.Tags)
		}
		if row.relatedJSON.Valid {
			_ = json.Unmarshal([]byte(row.relatedJSON.String), &m.RelatedMemoryIDs)
		}

		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}
	return memories, nil
}

func putManyTx(ctx context.Context, tx *sql.Tx, memories []Memory) error {
	const upsert = `
INSERT INTO memories (id, type, content, description, smart_summary_json,
	created_at, tags_json, related_ids_json, is_processing_summary, is_processing_ai)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	type = excluded.type,
	content = excluded.content,
	description = excluded.description,
	smart_summary_json = excluded.smart_summary_json,
	created_at = excluded.created_at,
	tags_json = excluded.tags_json,
	related_ids_json = excluded.related_ids_json,
	is_processing_summary = excluded.is_processing_summary,
	is_processing_ai = excluded.is_processing_ai
`
	for _, m := range memories {
		row, err := encodeRow(m)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, upsert,
			m.ID, string(m.Type), m.Content, row.description, row.smartSummaryJSON,
			m.CreatedAt, row.tagsJSON, row.relatedJSON,
			boolToInt(m.IsProcessingSummary), boolToInt(m.IsProcessingAi)); err != nil {
			return fmt.Errorf("upsert memory %s: %w", m.ID, err)
		}
		if err := replaceTagIndex(ctx, tx, m.ID, m.Tags); err != nil {
			return err
		}
	}
	return nil
}

func replaceTagIndex(ctx context.Context, tx *sql.Tx, id string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_tags WHERE memory_id = ?`, id); err != nil {
		return fmt.Errorf("clear tag index: %w", err)
	}
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO memory_tags (memory_id, tag) VALUES (?, ?)`, id, tag); err != nil {
			return fmt.Errorf("index tag %q: %w", tag, err)
		}
	}
	return nil
}

// unionTags appends the tags from extra that are not already present,
// preserving the stored order.
func unionTags(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, tag := range existing {
		seen[tag] = struct{}{}
	}
	merged := existing
	for _, tag := range extra {
		if _, ok := seen[tag]; !ok {
			seen[tag] = struct{}{}
			merged = append(merged, tag)
		}
	}
	return merged
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

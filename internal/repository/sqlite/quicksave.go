package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/social-auth/internal/apperror"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/repository"
)

var _ repository.QuickSaveRepository = (*DB)(nil)

// quickSaveSortColumns whitelists the ORDER BY column.
var quickSaveSortColumns = map[string]string{
	repository.SortCreatedAt: "created_at",
	repository.SortUpdatedAt: "updated_at",
}

// CreateQuickSave stores qs.Content as a JSON document.
func (db *DB) CreateQuickSave(ctx context.Context, qs *model.QuickSave) error {
	content, err := json.Marshal(qs.Content)
	if err != nil {
		return fmt.Errorf("sqlite: encoding quick save content: %w", err)
	}

	now := time.Now().UTC()
	qs.ID = xid.New().String()
	qs.CreatedAt = now
	qs.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO quick_saves (id, user_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		qs.ID,
		qs.UserID,
		string(content),
		qs.CreatedAt,
		qs.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating quick save: %w", err)
	}
	return nil
}

// ListQuickSaves returns one page of the owner's quick saves and the total
// number matching the search.
//
// The search runs against the JSON content with json_extract, lower-casing
// both sides for a case-insensitive substring match. LIKE wildcards in the
// search term are escaped so "100%" matches literally.
func (db *DB) ListQuickSaves(ctx context.Context, q repository.QuickSaveQuery) ([]model.QuickSave, int, error) {
	limit, offset := clamp(q.Limit, q.Offset, 10, repository.MaxLimit)

	sortCol, ok := quickSaveSortColumns[q.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}

	where := "user_id = ?"
	args := []any{q.UserID}
	if q.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		where += ` AND (
			LOWER(COALESCE(CAST(json_extract(content, '$.title') AS TEXT), '')) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(CAST(json_extract(content, '$.description') AS TEXT), '')) LIKE ? ESCAPE '\'
		)`
		args = append(args, pattern, pattern)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quick_saves WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting quick saves: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, content, created_at, updated_at
		 FROM quick_saves
		 WHERE `+where+`
		 ORDER BY `+sortCol+` `+dir+`, id `+dir+`
		 LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing quick saves: %w", err)
	}
	defer rows.Close()

	saves := make([]model.QuickSave, 0, limit)
	for rows.Next() {
		var (
			qs      model.QuickSave
			content string
		)
		if err := rows.Scan(&qs.ID, &qs.UserID, &content, &qs.CreatedAt, &qs.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning quick save row: %w", err)
		}
		if err := json.Unmarshal([]byte(content), &qs.Content); err != nil {
			return nil, 0, fmt.Errorf("sqlite: decoding quick save %s: %w", qs.ID, err)
		}
		saves = append(saves, qs)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating quick saves: %w", err)
	}

	return saves, total, nil
}

// DeleteQuickSave deletes by id AND owner. Someone else's id looks exactly
// like a missing one.
func (db *DB) DeleteQuickSave(ctx context.Context, id, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM quick_saves WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting quick save %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("quick save", id)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

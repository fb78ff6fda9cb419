package store

import (
	"context"
	"fmt"

	"github.com/erauner12/genvault/internal/cursorid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const cursorColumns = `id, next_cursor_id, page_number, created_at, updated_at`

func scanCursor(row pgx.Row) (*Cursor, error) {
	var c Cursor
	if err := row.Scan(&c.ID, &c.NextCursorID, &c.PageNumber, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCursors(rows pgx.Rows) ([]Cursor, error) {
	defer rows.Close()
	out := make([]Cursor, 0)
	for rows.Next() {
		c, err := scanCursor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// GetCursor loads a cursor by id
func (s *Store) GetCursor(ctx context.Context, id string) (*Cursor, error) {
	c, err := scanCursor(s.DB.QueryRow(ctx, `SELECT `+cursorColumns+` FROM cursor WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get cursor")
	}
	return c, nil
}

// CursorExists reports whether a page was already imported
func (s *Store) CursorExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cursor WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, mapErr(err, "cursor exists")
	}
	return exists, nil
}

// CreateCursor inserts a page at its rank in the chain
// created_at comes from the id's embedded timestamp; every older cursor
// moves down one page so page numbers stay contiguous
func (s *Store) CreateCursor(ctx context.Context, id string, next *string) (*Cursor, error) {
	createdAt, err := cursorid.Timestamp(id)
	if err != nil {
		return nil, fmt.Errorf("create cursor: %w", err)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, mapErr(err, "begin create cursor")
	}
	defer tx.Rollback(ctx)

	// Serialize rank computation against concurrent inserts
	if _, err := tx.Exec(ctx, `LOCK TABLE cursor IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, mapErr(err, "lock cursor table")
	}

	rows, err := tx.Query(ctx, `SELECT id FROM cursor`)
	if err != nil {
		return nil, mapErr(err, "load cursor ids")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, mapErr(err, "load cursor ids")
	}

	page := 1
	older := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing == id {
			return nil, fmt.Errorf("create cursor %s: %w", id, ErrAlreadyExists)
		}
		if cursorid.Newer(existing, id) {
			page++
		} else {
			older = append(older, existing)
		}
	}

	if len(older) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE cursor SET page_number = page_number + 1, updated_at = CURRENT_TIMESTAMP
			WHERE id = ANY($1) AND page_number IS NOT NULL
		`, older); err != nil {
			return nil, mapErr(err, "shift page numbers")
		}
	}

	c, err := scanCursor(tx.QueryRow(ctx, `
		INSERT INTO cursor (id, next_cursor_id, page_number, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+cursorColumns,
		id, next, page, createdAt))
	if err != nil {
		return nil, mapErr(err, "create cursor")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapErr(err, "commit create cursor")
	}

	log.Ctx(ctx).Debug().
		Str("cursor", id).
		Int("page", page).
		Int("shifted", len(older)).
		Msg("cursor created")

	return c, nil
}

// LatestCursor returns the newest cursor by embedded timestamp
func (s *Store) LatestCursor(ctx context.Context) (*Cursor, error) {
	all, err := s.AllCursors(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, mapErr(pgx.ErrNoRows, "latest cursor")
	}
	return &all[0], nil
}

// AllCursors returns every cursor ordered newest-first by the id timestamp
func (s *Store) AllCursors(ctx context.Context) ([]Cursor, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+cursorColumns+` FROM cursor`)
	if err != nil {
		return nil, mapErr(err, "all cursors")
	}
	cursors, err := collectCursors(rows)
	if err != nil {
		return nil, mapErr(err, "all cursors")
	}
	return sortNewestFirst(cursors), nil
}

// sortNewestFirst orders cursors by their id timestamp
// Ids that don't parse end up last
func sortNewestFirst(cursors []Cursor) []Cursor {
	byID := make(map[string]Cursor, len(cursors))
	ids := make([]string, 0, len(cursors))
	for _, c := range cursors {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}
	cursorid.Sort(ids)

	out := make([]Cursor, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}

// ListCursors returns one page of cursors, newest first
func (s *Store) ListCursors(ctx context.Context, skip, limit int) ([]Cursor, error) {
	skip, limit = clampPage(skip, limit)
	rows, err := s.DB.Query(ctx, `
		SELECT `+cursorColumns+`
		FROM cursor
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, mapErr(err, "list cursors")
	}
	cursors, err := collectCursors(rows)
	return cursors, mapErr(err, "list cursors")
}

// CountCursors returns the number of imported pages
func (s *Store) CountCursors(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM cursor`).Scan(&n); err != nil {
		return 0, mapErr(err, "count cursors")
	}
	return n, nil
}

// SetNextCursor rewrites one link of the chain
func (s *Store) SetNextCursor(ctx context.Context, id string, next *string) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE cursor SET next_cursor_id = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, id, next)
	if err != nil {
		return mapErr(err, "set next cursor")
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, "set next cursor")
	}
	return nil
}

// UpdateCursorFields overwrites the derived columns of one cursor
func (s *Store) UpdateCursorFields(ctx context.Context, id string, f CursorFields) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE cursor SET
			next_cursor_id = $2,
			page_number    = $3,
			created_at     = $4,
			updated_at     = CURRENT_TIMESTAMP
		WHERE id = $1
	`, id, f.NextCursorID, f.PageNumber, f.CreatedAt)
	if err != nil {
		return mapErr(err, "update cursor")
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, "update cursor")
	}
	return nil
}

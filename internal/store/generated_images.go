package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const generatedImageColumns = `id, cursor_id, url, width, height, created_at, updated_at`

func scanGeneratedImage(row pgx.Row) (*GeneratedImage, error) {
	var g GeneratedImage
	if err := row.Scan(&g.ID, &g.CursorID, &g.URL, &g.Width, &g.Height, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// GeneratedImageExists reports whether an upstream image was already imported
func (s *Store) GeneratedImageExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM generated_image WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, mapErr(err, "generated image exists")
	}
	return exists, nil
}

// CreateGeneratedImage inserts one image of a cursor page
func (s *Store) CreateGeneratedImage(ctx context.Context, g GeneratedImage) (*GeneratedImage, error) {
	created, err := scanGeneratedImage(s.DB.QueryRow(ctx, `
		INSERT INTO generated_image (id, cursor_id, url, width, height, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+generatedImageColumns,
		g.ID, g.CursorID, g.URL, g.Width, g.Height, g.CreatedAt))
	if err != nil {
		return nil, mapErr(err, "create generated image")
	}
	return created, nil
}

// ListGeneratedImagesByCursor returns the images of one page in upstream order
func (s *Store) ListGeneratedImagesByCursor(ctx context.Context, cursorID string, skip, limit int) ([]GeneratedImage, error) {
	skip, limit = clampPage(skip, limit)
	rows, err := s.DB.Query(ctx, `
		SELECT `+generatedImageColumns+`
		FROM generated_image
		WHERE cursor_id = $1
		ORDER BY created_at DESC, id
		OFFSET $2 LIMIT $3
	`, cursorID, skip, limit)
	if err != nil {
		return nil, mapErr(err, "list generated images")
	}
	defer rows.Close()

	out := make([]GeneratedImage, 0, limit)
	for rows.Next() {
		g, err := scanGeneratedImage(rows)
		if err != nil {
			return nil, mapErr(err, "scan generated image")
		}
		out = append(out, *g)
	}
	return out, mapErr(rows.Err(), "list generated images")
}

// CountGeneratedImages returns the number of images on a page, or overall when cursorID is ""
func (s *Store) CountGeneratedImages(ctx context.Context, cursorID string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `
		SELECT count(*) FROM generated_image
		WHERE $1::text = '' OR cursor_id = $1::text
	`, cursorID).Scan(&n)
	if err != nil {
		return 0, mapErr(err, "count generated images")
	}
	return n, nil
}

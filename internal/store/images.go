package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const imageColumns = `id, title, description, url, owner_id, created_at, updated_at`

// ImageIDFor derives the stable image id from its URL
// The same URL always maps to the same record
func ImageIDFor(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

func scanImage(row pgx.Row) (*Image, error) {
	var img Image
	if err := row.Scan(&img.ID, &img.Title, &img.Description, &img.URL, &img.OwnerID,
		&img.CreatedAt, &img.UpdatedAt); err != nil {
		return nil, err
	}
	return &img, nil
}

func collectImages(rows pgx.Rows, capHint int) ([]Image, error) {
	defer rows.Close()
	out := make([]Image, 0, capHint)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *img)
	}
	return out, rows.Err()
}

// CreateImage inserts an image for the given owner
// Returns ErrAlreadyExists when the derived id is taken
func (s *Store) CreateImage(ctx context.Context, img Image) (*Image, error) {
	if img.ID == "" {
		img.ID = ImageIDFor(img.URL)
	}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO image (id, title, description, url, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+imageColumns,
		img.ID, img.Title, img.Description, img.URL, img.OwnerID)
	created, err := scanImage(row)
	if err != nil {
		return nil, mapErr(err, "create image")
	}
	return created, nil
}

// GetImage loads an image by id
func (s *Store) GetImage(ctx context.Context, id string) (*Image, error) {
	img, err := scanImage(s.DB.QueryRow(ctx, `SELECT `+imageColumns+` FROM image WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get image")
	}
	return img, nil
}

// ListImages returns every image, newest first
func (s *Store) ListImages(ctx context.Context, skip, limit int) ([]Image, error) {
	skip, limit = clampPage(skip, limit)
	rows, err := s.DB.Query(ctx, `
		SELECT `+imageColumns+`
		FROM image
		ORDER BY created_at DESC, id
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, mapErr(err, "list images")
	}
	imgs, err := collectImages(rows, limit)
	return imgs, mapErr(err, "list images")
}

// ListImagesByOwner returns the images of one user, newest first
func (s *Store) ListImagesByOwner(ctx context.Context, ownerID string, skip, limit int) ([]Image, error) {
	skip, limit = clampPage(skip, limit)
	rows, err := s.DB.Query(ctx, `
		SELECT `+imageColumns+`
		FROM image
		WHERE owner_id = $1
		ORDER BY created_at DESC, id
		OFFSET $2 LIMIT $3
	`, ownerID, skip, limit)
	if err != nil {
		return nil, mapErr(err, "list images by owner")
	}
	imgs, err := collectImages(rows, limit)
	return imgs, mapErr(err, "list images by owner")
}

// UpdateImage applies a partial update
func (s *Store) UpdateImage(ctx context.Context, id string, upd ImageUpdate) (*Image, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE image SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			url         = COALESCE($4, url),
			updated_at  = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING `+imageColumns,
		id, upd.Title, upd.Description, upd.URL)
	img, err := scanImage(row)
	if err != nil {
		return nil, mapErr(err, "update image")
	}
	return img, nil
}

// DeleteImage removes an image
func (s *Store) DeleteImage(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM image WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "delete image")
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, "delete image")
	}
	return nil
}

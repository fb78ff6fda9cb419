package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const settingsColumns = `id, cookie_string, created_at, updated_at`

func scanSettings(row pgx.Row) (*Settings, error) {
	var st Settings
	if err := row.Scan(&st.ID, &st.CookieString, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// CurrentSettings returns the settings row, creating an empty one on first use
func (s *Store) CurrentSettings(ctx context.Context) (*Settings, error) {
	st, err := scanSettings(s.DB.QueryRow(ctx, `
		INSERT INTO settings (id, cookie_string) VALUES ($1, '')
		ON CONFLICT (id) DO UPDATE SET id = excluded.id
		RETURNING `+settingsColumns, CurrentSettingsID))
	if err != nil {
		return nil, mapErr(err, "current settings")
	}
	return st, nil
}

// UpdateCookie stores a new Civitai cookie string
func (s *Store) UpdateCookie(ctx context.Context, cookie string) (*Settings, error) {
	st, err := scanSettings(s.DB.QueryRow(ctx, `
		INSERT INTO settings (id, cookie_string) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			cookie_string = excluded.cookie_string,
			updated_at    = CURRENT_TIMESTAMP
		RETURNING `+settingsColumns, CurrentSettingsID, cookie))
	if err != nil {
		return nil, mapErr(err, "update cookie")
	}
	return st, nil
}

// CivitaiCookie satisfies civitai.CookieSource
func (s *Store) CivitaiCookie(ctx context.Context) (string, error) {
	st, err := s.CurrentSettings(ctx)
	if err != nil {
		return "", err
	}
	return st.CookieString, nil
}

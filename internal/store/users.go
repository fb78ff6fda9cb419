package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, full_name, hashed_password, is_active, is_superuser, created_at, updated_at`

// UserIDFor derives the stable account id from a username
func UserIDFor(username string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToLower(username))).String()
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.HashedPassword,
		&u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user, deriving the id from the username when empty
func (s *Store) CreateUser(ctx context.Context, u User) (*User, error) {
	if u.ID == "" {
		u.ID = UserIDFor(u.Username)
	}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO app_user (id, username, email, full_name, hashed_password, is_active, is_superuser)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		u.ID, u.Username, u.Email, u.FullName, u.HashedPassword, u.IsActive, u.IsSuperuser)
	created, err := scanUser(row)
	if err != nil {
		return nil, mapErr(err, "create user")
	}
	return created, nil
}

// GetUser loads a user by id
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get user")
	}
	return u, nil
}

// GetUserByUsername loads a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE username = $1`, username))
	if err != nil {
		return nil, mapErr(err, "get user by username")
	}
	return u, nil
}

// ListUsers returns users ordered by username
func (s *Store) ListUsers(ctx context.Context, skip, limit int) ([]User, error) {
	skip, limit = clampPage(skip, limit)
	rows, err := s.DB.Query(ctx, `
		SELECT `+userColumns+`
		FROM app_user
		ORDER BY username
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, mapErr(err, "list users")
	}
	defer rows.Close()

	users := make([]User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapErr(err, "scan user")
		}
		users = append(users, *u)
	}
	return users, mapErr(rows.Err(), "list users")
}

// CountUsers returns the number of accounts
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM app_user`).Scan(&n); err != nil {
		return 0, mapErr(err, "count users")
	}
	return n, nil
}

// UpdateUser applies a partial update
func (s *Store) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE app_user SET
			username        = COALESCE($2, username),
			email           = COALESCE($3, email),
			full_name       = COALESCE($4, full_name),
			is_active       = COALESCE($5, is_active),
			is_superuser    = COALESCE($6, is_superuser),
			hashed_password = COALESCE($7, hashed_password),
			updated_at      = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING `+userColumns,
		id, upd.Username, upd.Email, upd.FullName, upd.IsActive, upd.IsSuperuser, upd.HashedPassword)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapErr(err, "update user")
	}
	return u, nil
}

// DeleteUser removes a user and, by cascade, their images
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "delete user")
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, "delete user")
	}
	return nil
}

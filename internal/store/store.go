package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a row doesn't exist
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when an insert hits a unique constraint
	ErrAlreadyExists = errors.New("record already exists")
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation
const uniqueViolation = "23505"

// Store holds the repository methods for every table
type Store struct {
	DB *pgxpool.Pool
}

// New creates a Store backed by the given pool
func New(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// mapErr converts driver errors into package sentinels
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// clampPage normalizes skip/limit query params
func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return skip, limit
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresStore implements Store on top of a sqlx connection pool.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an already-connected pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureUser inserts the user row if absent.
func (s *PostgresStore) EnsureUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}
	return nil
}

// IsElevated reports the VIP flag for the user; unknown users are not elevated.
func (s *PostgresStore) IsElevated(ctx context.Context, userID int64) (bool, error) {
	var elevated bool
	err := s.db.GetContext(ctx, &elevated,
		`SELECT is_vip FROM users WHERE user_id = $1`,
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is elevated %d: %w", userID, err)
	}
	return elevated, nil
}

// IsOperator reports whether the user holds an operator row.
func (s *PostgresStore) IsOperator(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM operators WHERE user_id = $1)`,
		userID,
	)
	if err != nil {
		return false, fmt.Errorf("is operator %d: %w", userID, err)
	}
	return exists, nil
}

// GrantOperator inserts the operator row if absent.
func (s *PostgresStore) GrantOperator(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operators (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("grant operator %d: %w", userID, err)
	}
	return nil
}

// RevokeOperator deletes the operator row; deleting an absent row is a no-op.
func (s *PostgresStore) RevokeOperator(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM operators WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("revoke operator %d: %w", userID, err)
	}
	return nil
}

// Add appends a wallpaper entry and returns its assigned id.
func (s *PostgresStore) Add(ctx context.Context, fileID string, visibility Visibility) (int64, error) {
	if !visibility.Valid() {
		return 0, fmt.Errorf("add wallpaper: invalid visibility %q", visibility)
	}
	var id int64
	err := s.db.GetContext(ctx, &id,
		`INSERT INTO wallpapers (file_id, access) VALUES ($1, $2) RETURNING id`,
		fileID, string(visibility),
	)
	if err != nil {
		return 0, fmt.Errorf("add wallpaper: %w", err)
	}
	return id, nil
}

// ListVisible returns wallpaper file ids in insertion order.
func (s *PostgresStore) ListVisible(ctx context.Context, elevated bool) ([]string, error) {
	query := `SELECT file_id FROM wallpapers WHERE access = $1 ORDER BY id`
	args := []any{string(VisibilityPublic)}
	if elevated {
		query = `SELECT file_id FROM wallpapers ORDER BY id`
		args = nil
	}
	var fileIDs []string
	if err := s.db.SelectContext(ctx, &fileIDs, query, args...); err != nil {
		return nil, fmt.Errorf("list wallpapers: %w", err)
	}
	return fileIDs, nil
}

var _ Store = (*PostgresStore)(nil)

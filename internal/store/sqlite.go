package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements BlockStore backed by a local SQLite file.
// Used in standalone mode where no Postgres instance is available.
// The schema is created on open.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and initializes) a SQLite-backed block store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS blocked_users (
			user_id       TEXT PRIMARY KEY,
			blocked_until TIMESTAMP,
			created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) IsBlocked(ctx context.Context, userID string) (bool, error) {
	var until sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT blocked_until FROM blocked_users WHERE user_id = ?`, userID,
	).Scan(&until)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query block list: %w", err)
	}
	return until.Valid && until.Time.After(time.Now()), nil
}

func (s *SQLiteStore) Block(ctx context.Context, userID string, until time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blocked_users (user_id, blocked_until, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id) DO UPDATE SET blocked_until = excluded.blocked_until, updated_at = CURRENT_TIMESTAMP`,
		userID, until,
	)
	if err != nil {
		return fmt.Errorf("block user %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) Unblock(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM blocked_users WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("unblock user %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PGStore implements BlockStore backed by Postgres. Schema is managed
// by the migrate command (see migrations/).
type PGStore struct {
	db *sql.DB
}

// OpenPG opens a Postgres-backed block store.
func OpenPG(dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PGStore{db: db}, nil
}

func (s *PGStore) IsBlocked(ctx context.Context, userID string) (bool, error) {
	var until sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT blocked_until FROM blocked_users WHERE user_id = $1`, userID,
	).Scan(&until)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query block list: %w", err)
	}
	return until.Valid && until.Time.After(time.Now()), nil
}

func (s *PGStore) Block(ctx context.Context, userID string, until time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blocked_users (user_id, blocked_until, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET blocked_until = $2, updated_at = now()`,
		userID, until,
	)
	if err != nil {
		return fmt.Errorf("block user %s: %w", userID, err)
	}
	return nil
}

func (s *PGStore) Unblock(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM blocked_users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("unblock user %s: %w", userID, err)
	}
	return nil
}

func (s *PGStore) Close() error { return s.db.Close() }

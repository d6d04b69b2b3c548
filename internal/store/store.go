// Package store provides the persistent block-list consulted on every
// inbound event. A blocked user is dropped silently: no response, no
// error. Backends: Postgres (server mode), SQLite (standalone mode),
// and an in-memory store for tests and DB-less operation.
package store

import (
	"context"
	"sync"
	"time"
)

// BlockStore is the block-list lookup and admin surface.
type BlockStore interface {
	// IsBlocked reports whether userID is blocked at the time of call.
	// Blocks are time-bounded: a past blocked_until means not blocked.
	IsBlocked(ctx context.Context, userID string) (bool, error)

	// Block blocks userID until the given time.
	Block(ctx context.Context, userID string, until time.Time) error

	// Unblock removes any block for userID.
	Unblock(ctx context.Context, userID string) error

	Close() error
}

// MemoryStore is an in-memory BlockStore. Used when no database is
// configured and throughout the tests.
type MemoryStore struct {
	mu      sync.RWMutex
	blocked map[string]time.Time
}

// NewMemoryStore creates an empty in-memory block list.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blocked: make(map[string]time.Time)}
}

func (s *MemoryStore) IsBlocked(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	until, ok := s.blocked[userID]
	return ok && until.After(time.Now()), nil
}

func (s *MemoryStore) Block(_ context.Context, userID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked[userID] = until
	return nil
}

func (s *MemoryStore) Unblock(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocked, userID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Package redisstore persists the whole interview state as a single JSON
// blob under one fixed application key.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// Store implements domain.SessionStore on Redis. The engine loads the
// snapshot once at startup and writes it back after every mutation; no
// partial or query access is needed.
type Store struct {
	rdb *redis.Client
	key string
}

// New constructs a snapshot store over the given client and key.
func New(rdb *redis.Client, key string) *Store {
	return &Store{rdb: rdb, key: key}
}

// Load reads the snapshot, returning domain.ErrNotFound when no state has
// been written yet.
func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, fmt.Errorf("op=redisstore.Load: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("op=redisstore.Load: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("op=redisstore.Load: %w", err)
	}
	if snap.Sessions == nil {
		snap.Sessions = map[string]*domain.CandidateSession{}
	}
	return snap, nil
}

// Save overwrites the snapshot.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("op=redisstore.Save: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("op=redisstore.Save: %w", err)
	}
	return nil
}

// Ping probes the backing Redis, used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

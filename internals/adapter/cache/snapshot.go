// Package cache persists the last fully live catalog in redis, so server
// instances warm-start with real data while a provider is down and share
// one refresh cycle through a distributed lock. The whole package is
// optional: without redis the catalog simply lives in process memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coinvert/internals/core/domain"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "coinvert:catalog:snapshot"

// ErrNoSnapshot marks an empty store, as opposed to a transport failure.
var ErrNoSnapshot = errors.New("no catalog snapshot")

type snapshotData struct {
	Entries []domain.CurrencyEntry `json:"entries"`
	SavedAt time.Time              `json:"saved_at"`
}

// SnapshotStore keeps the last known good catalog under a single key.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl, logger: logger}
}

// Save overwrites the stored snapshot. Callers only pass catalogs built
// fully from the providers, never degraded ones.
func (s *SnapshotStore) Save(ctx context.Context, cat *domain.Catalog) error {
	payload, err := json.Marshal(snapshotData{Entries: cat.Entries(), SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshaling catalog snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing catalog snapshot: %w", err)
	}
	s.logger.Debug("catalog snapshot stored", "entries", cat.Len(), "ttl", s.ttl)
	return nil
}

// Load returns the stored catalog, or ErrNoSnapshot when none exists.
func (s *SnapshotStore) Load(ctx context.Context) (*domain.Catalog, error) {
	payload, err := s.client.Get(ctx, snapshotKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("reading catalog snapshot: %w", err)
	}

	var data snapshotData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("decoding catalog snapshot: %w", err)
	}
	if len(data.Entries) == 0 {
		return nil, ErrNoSnapshot
	}

	s.logger.Debug("catalog snapshot loaded", "entries", len(data.Entries), "saved_at", data.SavedAt)
	return domain.NewCatalog(data.Entries), nil
}

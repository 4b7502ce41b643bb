// Package cache keeps the most recent pipeline snapshots in Redis for
// the dashboard and API layer, which never touch PostgreSQL directly.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pxilabs/pxi/internal/domain"
)

const (
	latestKey    = "pxi:snapshot:latest"
	dateKeyFmt   = "pxi:snapshot:%s"
	snapshotTTL  = 72 * time.Hour
)

// SnapshotCache stores serialized snapshots keyed by date plus a rolling
// latest pointer.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache wraps a Redis client.
func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: snapshotTTL}
}

// Store writes the snapshot under its date key and advances the latest
// pointer. Rewrites for the same date simply overwrite.
func (c *SnapshotCache) Store(ctx context.Context, snap domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snap.Date, err)
	}

	key := fmt.Sprintf(dateKeyFmt, snap.Date)
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache snapshot %s: %w", snap.Date, err)
	}
	if err := c.client.Set(ctx, latestKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache latest pointer: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot, or nil on a cache miss.
func (c *SnapshotCache) Latest(ctx context.Context) (*domain.Snapshot, error) {
	return c.get(ctx, latestKey)
}

// At returns the snapshot for a date key, or nil on a cache miss.
func (c *SnapshotCache) At(ctx context.Context, date string) (*domain.Snapshot, error) {
	return c.get(ctx, fmt.Sprintf(dateKeyFmt, date))
}

func (c *SnapshotCache) get(ctx context.Context, key string) (*domain.Snapshot, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &snap, nil
}

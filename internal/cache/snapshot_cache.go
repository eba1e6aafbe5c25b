package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"healthlog/internal/models"

	"go.uber.org/zap"
)

// SnapshotCache keeps the last fetched snapshot per user for the session lifetime
type SnapshotCache struct {
	kv     KVStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshotCache ttl <= 0 stores without expiry
func NewSnapshotCache(kv KVStore, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		kv:     kv,
		ttl:    ttl,
		logger: logger,
	}
}

func snapshotKey(userID string) string {
	return fmt.Sprintf("healthlog:snapshot:%s", userID)
}

// Get returns ErrCacheMiss when nothing usable is cached
func (c *SnapshotCache) Get(ctx context.Context, userID string) (*models.Snapshot, error) {
	key := snapshotKey(userID)
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		// corrupt entries are treated as a miss
		c.logger.Warn("Discarding undecodable snapshot cache entry",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		_ = c.kv.Del(ctx, key)
		return nil, ErrCacheMiss
	}
	return &snap, nil
}

// Put replaces the cached snapshot
func (c *SnapshotCache) Put(ctx context.Context, snap *models.Snapshot) error {
	key := snapshotKey(snap.UserID)

	jsonData, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.kv.Set(ctx, key, string(jsonData), c.ttl); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	c.logger.Debug("Updated snapshot cache",
		zap.String("user_id", snap.UserID),
		zap.String("key", key),
		zap.Int("readings", len(snap.Readings)),
	)
	return nil
}

// Invalidate drops the user's entry
func (c *SnapshotCache) Invalidate(ctx context.Context, userID string) error {
	return c.kv.Del(ctx, snapshotKey(userID))
}

package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/roomstay/internal/infrastructure/redis"
)

const orphanKeyPrefix = "orphan:"

// RedisOrphanQueue implements domain.OrphanQueue using Redis. Each queued
// asset is a key orphan:<assetID> whose value records when it was queued,
// so entries survive restarts until the reaper clears them.
type RedisOrphanQueue struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisOrphanQueue creates a new orphan queue
func NewRedisOrphanQueue(redisClient *redis.Client, logger *slog.Logger) *RedisOrphanQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisOrphanQueue{redis: redisClient, logger: logger}
}

// Enqueue records an asset whose store-side deletion is still owed
func (q *RedisOrphanQueue) Enqueue(ctx context.Context, assetID string) error {
	if err := q.redis.Set(ctx, orphanKeyPrefix+assetID, time.Now().UTC().Format(time.RFC3339), 0); err != nil {
		return fmt.Errorf("failed to enqueue orphan: %w", err)
	}
	q.logger.Warn("media asset orphaned, queued for reaping", slog.String("asset_id", assetID))
	return nil
}

// Pending returns the asset IDs awaiting store-side deletion
func (q *RedisOrphanQueue) Pending(ctx context.Context) ([]string, error) {
	keys, err := q.redis.Keys(ctx, orphanKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to list orphans: %w", err)
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, orphanKeyPrefix))
	}
	return ids, nil
}

// Remove clears an asset from the queue once its deletion is confirmed
func (q *RedisOrphanQueue) Remove(ctx context.Context, assetID string) error {
	if err := q.redis.Delete(ctx, orphanKeyPrefix+assetID); err != nil {
		return fmt.Errorf("failed to remove orphan: %w", err)
	}
	return nil
}

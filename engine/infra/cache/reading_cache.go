package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/orchestrator"
	"github.com/auralab/aura/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL applies when a put passes a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// ReadingCache stores serialized reading envelopes under their
// calculation keys. An undecodable entry is treated as a miss and
// evicted, never surfaced as an error.
type ReadingCache struct {
	client RedisInterface
	ttl    time.Duration
}

func NewReadingCache(client RedisInterface, ttl time.Duration) *ReadingCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ReadingCache{client: client, ttl: ttl}
}

// GetReading fetches and decodes a cached reading. Absent keys and
// corrupt entries report orchestrator.ErrCacheMiss.
func (c *ReadingCache) GetReading(ctx context.Context, key string) (*core.Reading, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, orchestrator.ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	var reading core.Reading
	if err := json.Unmarshal(raw, &reading); err != nil {
		logger.FromContext(ctx).Warn("evicting undecodable cache entry", "key", key, "error", err)
		c.client.Del(ctx, key)
		return nil, orchestrator.ErrCacheMiss
	}
	return &reading, nil
}

// PutReading serializes and stores a reading under key. The caller
// decides what to do with a failure; the orchestrator drops it after
// logging.
func (c *ReadingCache) PutReading(ctx context.Context, key string, reading *core.Reading, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	raw, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	return nil
}

// Invalidate removes specific keys, tolerating absent ones.
func (c *ReadingCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// InvalidateUser scans out every user-scoped key for userID and deletes
// the batch.
func (c *ReadingCache) InvalidateUser(ctx context.Context, userID string) (int, error) {
	pattern := fmt.Sprintf("user:%s:*", userID)
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return removed, fmt.Errorf("cache invalidate user %s: %w", userID, err)
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

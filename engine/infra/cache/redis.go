// Package cache provides the Redis-backed reading cache: connection
// management plus the read-through/write-through store the orchestrator
// consumes.
package cache

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/auralab/aura/pkg/config"
	"github.com/auralab/aura/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisInterface is the slice of the Redis client the reading cache
// uses. Both *redis.Client and test doubles satisfy it.
type RedisInterface interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Close() error
}

const fallbackPingTimeout = 10 * time.Second

// Redis wraps a connected client with idempotent shutdown.
type Redis struct {
	client *redis.Client
	once   sync.Once
}

// NewRedis connects and pings within the configured timeout.
func NewRedis(ctx context.Context, cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}
	client, err := buildClient(cfg)
	if err != nil {
		return nil, err
	}
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = fallbackPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging Redis server (timeout=%s): %w", timeout, err)
	}
	logger.FromContext(ctx).With(
		"cache_driver", "redis",
		"host", cfg.Host,
		"port", cfg.Port,
		"db", cfg.DB,
	).Info("Redis connection established")
	return &Redis{client: client}, nil
}

func buildClient(cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.URL != "" {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing Redis URL: %w", err)
		}
		if cfg.PoolSize > 0 {
			opt.PoolSize = cfg.PoolSize
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password.Value(),
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}), nil
}

// Client exposes the underlying connection for the reading cache.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Close shuts the connection down exactly once.
func (r *Redis) Close() error {
	var err error
	r.once.Do(func() {
		err = r.client.Close()
	})
	return err
}

// HealthCheck verifies connectivity with a ping and a round trip.
func (r *Redis) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	const key = "health:roundtrip"
	if err := r.client.Set(ctx, key, "ok", 10*time.Second).Err(); err != nil {
		return fmt.Errorf("set operation failed: %w", err)
	}
	got, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("get operation failed: %w", err)
	}
	if got != "ok" {
		return fmt.Errorf("get result mismatch: got %q", got)
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		logger.FromContext(ctx).Debug("failed to clean up health key", "key", key, "error", err)
	}
	return nil
}

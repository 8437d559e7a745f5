package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/orchestrator"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*ReadingCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewReadingCache(client, time.Hour), mr
}

func sampleReading() *core.Reading {
	return &core.Reading{
		EngineName:      "numerology",
		ConfidenceScore: 1.0,
		RawData:         core.Output{"life_path": 3.0},
		FormattedOutput: "Life path 3",
		ReadingID:       core.ID("2TestReadingID0000000000000"),
		UserID:          "u-1",
	}
}

func TestReadingCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Should round-trip a reading", func(t *testing.T) {
		c, _ := setupCache(t)
		require.NoError(t, c.PutReading(ctx, "calc:numerology:abc", sampleReading(), time.Hour))

		got, err := c.GetReading(ctx, "calc:numerology:abc")
		require.NoError(t, err)
		assert.Equal(t, "numerology", got.EngineName)
		assert.Equal(t, 3.0, got.RawData["life_path"])
		assert.Equal(t, "Life path 3", got.FormattedOutput)
	})
	t.Run("Should miss on absent keys", func(t *testing.T) {
		c, _ := setupCache(t)
		_, err := c.GetReading(ctx, "calc:numerology:missing")
		assert.True(t, errors.Is(err, orchestrator.ErrCacheMiss))
	})
	t.Run("Should treat undecodable entries as misses and evict them", func(t *testing.T) {
		c, mr := setupCache(t)
		require.NoError(t, mr.Set("calc:numerology:bad", "{not json"))

		_, err := c.GetReading(ctx, "calc:numerology:bad")
		assert.True(t, errors.Is(err, orchestrator.ErrCacheMiss))
		assert.False(t, mr.Exists("calc:numerology:bad"))
	})
	t.Run("Should honor the entry TTL", func(t *testing.T) {
		c, mr := setupCache(t)
		require.NoError(t, c.PutReading(ctx, "calc:tarot:abc", sampleReading(), 30*time.Second))
		assert.InDelta(t, 30*time.Second, mr.TTL("calc:tarot:abc"), float64(time.Second))

		mr.FastForward(time.Minute)
		_, err := c.GetReading(ctx, "calc:tarot:abc")
		assert.True(t, errors.Is(err, orchestrator.ErrCacheMiss))
	})
	t.Run("Should fall back to the default TTL", func(t *testing.T) {
		c, mr := setupCache(t)
		require.NoError(t, c.PutReading(ctx, "calc:tarot:abc", sampleReading(), 0))
		assert.InDelta(t, time.Hour, mr.TTL("calc:tarot:abc"), float64(time.Second))
	})
	t.Run("Should invalidate all user-scoped keys", func(t *testing.T) {
		c, mr := setupCache(t)
		require.NoError(t, mr.Set("user:u-1:numerology:reading:a", "{}"))
		require.NoError(t, mr.Set("user:u-1:tarot:reading:b", "{}"))
		require.NoError(t, mr.Set("user:u-2:tarot:reading:c", "{}"))

		removed, err := c.InvalidateUser(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)
		assert.False(t, mr.Exists("user:u-1:numerology:reading:a"))
		assert.True(t, mr.Exists("user:u-2:tarot:reading:c"))
	})
}

package reaper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	calls atomic.Int64
	rows  int64
	err   error
}

func (f *fakePurger) PurgeExpired(_ context.Context, _ time.Time) (int64, error) {
	f.calls.Add(1)
	return f.rows, f.err
}

func TestReaper(t *testing.T) {
	ctx := context.Background()

	t.Run("Should purge on demand", func(t *testing.T) {
		purger := &fakePurger{rows: 4}
		r := New(purger, DefaultSchedule)
		removed, err := r.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), removed)
		assert.Equal(t, int64(1), purger.calls.Load())
	})
	t.Run("Should surface purge failures", func(t *testing.T) {
		r := New(&fakePurger{err: errors.New("down")}, "")
		_, err := r.RunOnce(ctx)
		require.Error(t, err)
	})
	t.Run("Should reject an invalid schedule", func(t *testing.T) {
		r := New(&fakePurger{}, "not a schedule")
		err := r.Start(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid schedule")
	})
	t.Run("Should start and stop cleanly on a valid schedule", func(t *testing.T) {
		r := New(&fakePurger{}, "@hourly")
		require.NoError(t, r.Start(ctx))
		r.Stop()
	})
	t.Run("Should default the schedule when empty", func(t *testing.T) {
		r := New(&fakePurger{}, "")
		assert.Equal(t, DefaultSchedule, r.schedule)
	})
}

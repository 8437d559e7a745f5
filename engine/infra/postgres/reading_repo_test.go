package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB records Exec calls and serves canned command tags.
type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	tags     []pgconn.CommandTag
	execErr  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if len(f.tags) > 0 {
		tag := f.tags[0]
		f.tags = f.tags[1:]
		return tag, nil
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func sampleReading() *core.Reading {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	expires := now.AddDate(0, 0, 365)
	return &core.Reading{
		EngineName:   "numerology",
		RawData:      core.Output{"life_path": 3.0},
		ReadingID:    core.ID("2TestReadingID0000000000000"),
		UserID:       "u-1",
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    &expires,
		PrivacyLevel: core.PrivacyStandard,
	}
}

func TestTableFor(t *testing.T) {
	t.Run("Should derive the per-engine table name", func(t *testing.T) {
		table, err := tableFor("human_design")
		require.NoError(t, err)
		assert.Equal(t, "engine_human_design_readings", table)
	})
	t.Run("Should reject names unusable as identifiers", func(t *testing.T) {
		for _, name := range []string{"", "1bad", "drop table;--", "UPPER"} {
			_, err := tableFor(name)
			assert.Error(t, err, name)
		}
	})
}

func TestSaveReading(t *testing.T) {
	ctx := context.Background()

	t.Run("Should upsert into the engine's table", func(t *testing.T) {
		db := &fakeDB{}
		repo := NewReadingRepo(db, []string{"numerology"})
		require.NoError(t, repo.SaveReading(ctx, sampleReading()))

		require.Len(t, db.execSQL, 1)
		sql := db.execSQL[0]
		assert.Contains(t, sql, "INSERT INTO engine_numerology_readings")
		assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE")
		assert.Len(t, db.execArgs[0], 8)
		assert.Equal(t, "2TestReadingID0000000000000", db.execArgs[0][0])
	})
	t.Run("Should refuse an unsafe engine name", func(t *testing.T) {
		db := &fakeDB{}
		repo := NewReadingRepo(db, nil)
		reading := sampleReading()
		reading.EngineName = "bad name"
		require.Error(t, repo.SaveReading(ctx, reading))
		assert.Empty(t, db.execSQL)
	})
	t.Run("Should surface exec failures", func(t *testing.T) {
		db := &fakeDB{execErr: errors.New("down")}
		repo := NewReadingRepo(db, nil)
		err := repo.SaveReading(ctx, sampleReading())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "save reading")
	})
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("Should sweep every engine table and sum the removals", func(t *testing.T) {
		db := &fakeDB{tags: []pgconn.CommandTag{
			pgconn.NewCommandTag("DELETE 3"),
			pgconn.NewCommandTag("DELETE 0"),
			pgconn.NewCommandTag("DELETE 2"),
		}}
		repo := NewReadingRepo(db, []string{"numerology", "tarot", "biofield"})

		total, err := repo.PurgeExpired(ctx, time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, db.execSQL, 3)
		for i, engine := range []string{"numerology", "tarot", "biofield"} {
			assert.Contains(t, db.execSQL[i], "engine_"+engine+"_readings")
			assert.True(t, strings.HasPrefix(db.execSQL[i], "DELETE FROM"))
		}
	})
	t.Run("Should stop at the first failing table", func(t *testing.T) {
		db := &fakeDB{execErr: errors.New("down")}
		repo := NewReadingRepo(db, []string{"numerology", "tarot"})
		_, err := repo.PurgeExpired(ctx, time.Now().UTC())
		require.Error(t, err)
		assert.Len(t, db.execSQL, 1)
	})
}

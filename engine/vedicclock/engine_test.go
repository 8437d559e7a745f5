package vedicclock

import (
	"context"
	"testing"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoraAt(t *testing.T) {
	t.Run("Should give the first hora to the day lord", func(t *testing.T) {
		// Sunday 06:30: solar day, Sun hora.
		sunday := time.Date(2024, 1, 14, 6, 30, 0, 0, time.UTC)
		dayLord, hora, index := HoraAt(sunday)
		assert.Equal(t, "sun", dayLord)
		assert.Equal(t, "sun", hora)
		assert.Equal(t, 0, index)
	})
	t.Run("Should advance through the hora sequence hourly", func(t *testing.T) {
		// Sunday 07:30 is the second hora: Venus follows Sun.
		_, hora, index := HoraAt(time.Date(2024, 1, 14, 7, 30, 0, 0, time.UTC))
		assert.Equal(t, "venus", hora)
		assert.Equal(t, 1, index)
	})
	t.Run("Should belong to the previous day before sunrise", func(t *testing.T) {
		// Monday 05:00 still runs on Sunday's wheel.
		dayLord, _, index := HoraAt(time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC))
		assert.Equal(t, "sun", dayLord)
		assert.Equal(t, 23, index)
	})
}

func TestOrganAt(t *testing.T) {
	cases := map[string]struct {
		hour  int
		organ string
	}{
		"Should find the lung window at dawn":          {4, "lung"},
		"Should find the heart window at midday":       {12, "heart"},
		"Should find the kidney window at dusk":        {18, "kidney"},
		"Should find the gallbladder window at 23":     {23, "gallbladder"},
		"Should wrap the gallbladder window past zero": {0, "gallbladder"},
		"Should find the liver window at 2":            {2, "liver"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := OrganAt(time.Date(2024, 1, 15, tc.hour, 30, 0, 0, time.UTC))
			assert.Equal(t, tc.organ, w.Organ)
		})
	}
}

func TestEngine(t *testing.T) {
	eng := New()
	ctx := context.Background()

	t.Run("Should read both clocks for a target moment", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{
			"birth_date":  "1990-05-15",
			"target_time": "2024-01-14T12:30:00Z",
		})
		require.NoError(t, err)
		hora := out["hora"].(map[string]any)
		assert.NotEmpty(t, hora["lord"])
		organ := out["organ_window"].(map[string]any)
		assert.Equal(t, "heart", organ["organ"])
		// 1990-05-15 is a Tuesday.
		assert.Equal(t, "mars", out["birth_day_lord"])
	})
	t.Run("Should read the clock in the birth timezone", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{
			"birth_date":  "1990-05-15",
			"timezone":    "Asia/Kolkata",
			"target_time": "2024-01-14T12:30:00Z",
		})
		require.NoError(t, err)
		organ := out["organ_window"].(map[string]any)
		// 12:30 UTC is 18:00 IST: kidney window.
		assert.Equal(t, "kidney", organ["organ"])
	})
	t.Run("Should reject a malformed target time", func(t *testing.T) {
		_, err := eng.Calculate(ctx, core.Input{
			"birth_date":  "1990-05-15",
			"target_time": "yesterday",
		})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindInvalidInput, core.KindOf(err))
	})
	t.Run("Should default the target to now", func(t *testing.T) {
		eng := New()
		eng.now = func() time.Time { return time.Date(2024, 1, 14, 8, 0, 0, 0, time.UTC) }
		out, err := eng.Calculate(ctx, core.Input{"birth_date": "1990-05-15"})
		require.NoError(t, err)
		organ := out["organ_window"].(map[string]any)
		assert.Equal(t, "stomach", organ["organ"])
	})
	t.Run("Should interpret with hora and organ lines", func(t *testing.T) {
		input := core.Input{"birth_date": "1990-05-15", "target_time": "2024-01-14T12:30:00Z"}
		out, err := eng.Calculate(ctx, input)
		require.NoError(t, err)
		text, err := eng.Interpret(ctx, out, input)
		require.NoError(t, err)
		assert.Contains(t, text, "Hora")
		assert.Contains(t, text, "heart")
	})
}

package biorhythm

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycles(t *testing.T) {
	t.Run("Should be zero on the birth day", func(t *testing.T) {
		for _, c := range append(append([]Cycle{}, CoreCycles...), ExtendedCycles...) {
			assert.InDelta(t, 0, c.Value(0), 1e-9, c.Name)
		}
	})
	t.Run("Should stay within [-100, 100]", func(t *testing.T) {
		for _, c := range CoreCycles {
			for d := 0; d < 200; d++ {
				v := c.Value(d)
				assert.GreaterOrEqual(t, v, -100.0)
				assert.LessOrEqual(t, v, 100.0)
			}
		}
	})
	t.Run("Should sum to approximately zero over two periods", func(t *testing.T) {
		for _, c := range CoreCycles {
			sum := 0.0
			for d := 0; d < 2*c.Period; d++ {
				sum += c.Value(d)
			}
			assert.InDelta(t, 0, sum, 1e-6, c.Name)
		}
	})
	t.Run("Should label phases from value and slope", func(t *testing.T) {
		physical := CoreCycles[0]
		assert.Equal(t, PhaseCritical, physical.PhaseAt(0))
		// Quarter period is the peak of the sinusoid.
		quarter := physical.Period / 4
		assert.Contains(t, []Phase{PhasePeak, PhaseRising}, physical.PhaseAt(quarter))
		threeQuarter := 3 * physical.Period / 4
		assert.Contains(t, []Phase{PhaseValley, PhaseFalling}, physical.PhaseAt(threeQuarter))
	})
}

func TestDaysAlive(t *testing.T) {
	t.Run("Should count 12298 days from 1990-05-15 to 2024-01-15", func(t *testing.T) {
		birth := time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)
		target := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 12298, DaysAlive(birth, target))
	})
	t.Run("Should ignore clock time", func(t *testing.T) {
		birth := time.Date(2000, 1, 1, 23, 59, 0, 0, time.UTC)
		target := time.Date(2000, 1, 2, 0, 1, 0, 0, time.UTC)
		assert.Equal(t, 1, DaysAlive(birth, target))
	})
}

func TestEngine(t *testing.T) {
	eng := New()
	ctx := context.Background()

	t.Run("Should produce the documented snapshot for 2024-01-15", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{
			"birth_date":  "1990-05-15",
			"target_date": "2024-01-15",
		})
		require.NoError(t, err)
		assert.Equal(t, 12298, out["days_alive"])
		cycles := out["cycles"].(map[string]any)
		crossing := 0
		for _, name := range []string{"physical", "emotional", "intellectual"} {
			entry := cycles[name].(map[string]any)
			pct, ok := core.ParseAnyFloat(entry["percentage"])
			require.True(t, ok)
			assert.GreaterOrEqual(t, pct, -100.0)
			assert.LessOrEqual(t, pct, 100.0)
			if math.Abs(pct) < 5 {
				crossing++
			}
		}
		critical, ok := out["critical_day"].(bool)
		require.True(t, ok)
		assert.Equal(t, crossing >= 2, critical)
	})
	t.Run("Should default to a seven day forecast", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{
			"birth_date":  "1990-05-15",
			"target_date": "2024-01-15",
		})
		require.NoError(t, err)
		forecast := out["forecast"].([]map[string]any)
		assert.Len(t, forecast, 7)
	})
	t.Run("Should include extended cycles on request", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{
			"birth_date":              "1990-05-15",
			"target_date":             "2024-01-15",
			"include_extended_cycles": true,
		})
		require.NoError(t, err)
		cycles := out["cycles"].(map[string]any)
		assert.Contains(t, cycles, "spiritual")
		assert.Len(t, cycles, 6)
	})
	t.Run("Should reject an out-of-range forecast", func(t *testing.T) {
		_, err := eng.Calculate(ctx, core.Input{
			"birth_date":    "1990-05-15",
			"forecast_days": 91,
		})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindInvalidInput, core.KindOf(err))
	})
	t.Run("Should reject a target before birth", func(t *testing.T) {
		_, err := eng.Calculate(ctx, core.Input{
			"birth_date":  "1990-05-15",
			"target_date": "1980-01-01",
		})
		require.Error(t, err)
	})
	t.Run("Should render an interpretation with every core cycle", func(t *testing.T) {
		input := core.Input{"birth_date": "1990-05-15", "target_date": "2024-01-15"}
		out, err := eng.Calculate(ctx, input)
		require.NoError(t, err)
		text, err := eng.Interpret(ctx, out, input)
		require.NoError(t, err)
		assert.Contains(t, text, "Physical")
		assert.Contains(t, text, "Emotional")
		assert.Contains(t, text, "Intellectual")
	})
}

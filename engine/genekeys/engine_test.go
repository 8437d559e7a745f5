package genekeys

import (
	"context"
	"testing"

	"github.com/auralab/aura/engine/astro"
	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/refdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullBirthInput() core.Input {
	return core.Input{
		"birth_date": "1990-05-15",
		"birth_time": "14:30",
		"birth_location": map[string]any{
			"latitude":  40.7128,
			"longitude": -74.006,
		},
		"timezone": "America/New_York",
	}
}

func TestEngine(t *testing.T) {
	set := refdata.MustLoad()
	eng := New(astro.NewStub(), set)
	ctx := context.Background()

	t.Run("Should fill all eleven spheres", func(t *testing.T) {
		out, err := eng.Calculate(ctx, fullBirthInput())
		require.NoError(t, err)
		spheres := out["spheres"].(map[string]any)
		assert.Len(t, spheres, 11)
		for _, name := range []string{"life_work", "evolution", "radiance", "purpose", "pearl"} {
			entry, ok := spheres[name].(map[string]any)
			require.True(t, ok, name)
			key := entry["gene_key"].(int)
			assert.GreaterOrEqual(t, key, 1)
			assert.LessOrEqual(t, key, 64)
			assert.NotEmpty(t, entry["shadow"])
			assert.NotEmpty(t, entry["gift"])
			assert.NotEmpty(t, entry["siddhi"])
		}
	})
	t.Run("Should order the sequence by sphere definition", func(t *testing.T) {
		out, err := eng.Calculate(ctx, fullBirthInput())
		require.NoError(t, err)
		sequence := core.ToStringSlice(out["sequence"])
		require.Len(t, sequence, 11)
		assert.Equal(t, "life_work", sequence[0])
		assert.Equal(t, "evolution", sequence[1])
	})
	t.Run("Should split personality and design spheres by role", func(t *testing.T) {
		out, err := eng.Calculate(ctx, fullBirthInput())
		require.NoError(t, err)
		spheres := out["spheres"].(map[string]any)
		lifeWork := spheres["life_work"].(map[string]any)
		radiance := spheres["radiance"].(map[string]any)
		// Both ride the Sun, but at different instants; the design Sun
		// sits 88 degrees of arc earlier.
		assert.Equal(t, "sun", lifeWork["body"])
		assert.Equal(t, "sun", radiance["body"])
		assert.NotEqual(t, lifeWork["gene_key"], radiance["gene_key"])
	})
	t.Run("Should be deterministic", func(t *testing.T) {
		first, err := eng.Calculate(ctx, fullBirthInput())
		require.NoError(t, err)
		second, err := eng.Calculate(ctx, fullBirthInput())
		require.NoError(t, err)
		assert.Equal(t, first["spheres"], second["spheres"])
	})
	t.Run("Should require full birth data", func(t *testing.T) {
		_, err := eng.Calculate(ctx, core.Input{"birth_date": "1990-05-15"})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindInvalidInput, core.KindOf(err))
	})
	t.Run("Should interpret with the spectrum line per sphere", func(t *testing.T) {
		input := fullBirthInput()
		out, err := eng.Calculate(ctx, input)
		require.NoError(t, err)
		text, err := eng.Interpret(ctx, out, input)
		require.NoError(t, err)
		assert.Contains(t, text, "Life Work")
		assert.Contains(t, text, "Shadow:")
		assert.Contains(t, text, "Siddhi:")
	})
}

package humandesign

import (
	"context"
	"regexp"
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

// channelsByGates builds defined channels for unit tests of the type and
// authority derivations.
func channelsByGates(e *Engine, pairs ...[2]int) []DefinedChannel {
	active := map[int]bool{}
	for _, p := range pairs {
		active[p[0]] = true
		active[p[1]] = true
	}
	return e.definedChannels(active)
}

func TestDeriveType(t *testing.T) {
	eng := New(astro.NewStub(), refdata.MustLoad())

	t.Run("Should type an empty bodygraph as Reflector", func(t *testing.T) {
		assert.Equal(t, "Reflector", eng.deriveType(nil, nil))
	})
	t.Run("Should type a defined Sacral as Generator", func(t *testing.T) {
		// 3-60 joins Sacral and Root; no path to the Throat.
		channels := channelsByGates(eng, [2]int{3, 60})
		centers := eng.definedCenters(channels)
		assert.Equal(t, "Generator", eng.deriveType(centers, channels))
	})
	t.Run("Should type Sacral-to-Throat as Manifesting Generator", func(t *testing.T) {
		// 20-34 connects the Sacral motor straight to the Throat.
		channels := channelsByGates(eng, [2]int{20, 34})
		centers := eng.definedCenters(channels)
		assert.Equal(t, "Manifesting Generator", eng.deriveType(centers, channels))
	})
	t.Run("Should type a motor-to-Throat without Sacral as Manifestor", func(t *testing.T) {
		// 21-45 connects the Heart motor to the Throat.
		channels := channelsByGates(eng, [2]int{21, 45})
		centers := eng.definedCenters(channels)
		assert.Equal(t, "Manifestor", eng.deriveType(centers, channels))
	})
	t.Run("Should type defined centers without motor-to-Throat as Projector", func(t *testing.T) {
		// 17-62 joins Ajna and Throat; no motor involved.
		channels := channelsByGates(eng, [2]int{17, 62})
		centers := eng.definedCenters(channels)
		assert.Equal(t, "Projector", eng.deriveType(centers, channels))
	})
	t.Run("Should reach the Throat through an intermediate center", func(t *testing.T) {
		// Root-Solar Plexus (19-49) plus Solar Plexus-Throat (35-36).
		channels := channelsByGates(eng, [2]int{19, 49}, [2]int{35, 36})
		centers := eng.definedCenters(channels)
		assert.Equal(t, "Manifestor", eng.deriveType(centers, channels))
	})
}

func TestDeriveAuthority(t *testing.T) {
	eng := New(astro.NewStub(), refdata.MustLoad())

	t.Run("Should rank Solar Plexus above Sacral", func(t *testing.T) {
		assert.Equal(t, "Emotional", eng.deriveAuthority("Generator", []string{"Sacral", "Solar Plexus"}))
	})
	t.Run("Should fall through the hierarchy", func(t *testing.T) {
		assert.Equal(t, "Sacral", eng.deriveAuthority("Generator", []string{"Sacral", "Root"}))
		assert.Equal(t, "Splenic", eng.deriveAuthority("Projector", []string{"Spleen", "Throat"}))
		assert.Equal(t, "Ego", eng.deriveAuthority("Manifestor", []string{"Heart", "Throat"}))
		assert.Equal(t, "Self-Projected", eng.deriveAuthority("Projector", []string{"G", "Throat"}))
		assert.Equal(t, "Mental", eng.deriveAuthority("Projector", []string{"Ajna", "Throat"}))
	})
	t.Run("Should give Reflectors lunar authority", func(t *testing.T) {
		assert.Equal(t, "Lunar", eng.deriveAuthority("Reflector", nil))
	})
}

func TestDeriveDefinition(t *testing.T) {
	eng := New(astro.NewStub(), refdata.MustLoad())

	t.Run("Should report single definition for one island", func(t *testing.T) {
		channels := channelsByGates(eng, [2]int{3, 60})
		centers := eng.definedCenters(channels)
		assert.Equal(t, "Single", eng.deriveDefinition(centers, channels))
	})
	t.Run("Should report a split for two islands", func(t *testing.T) {
		channels := channelsByGates(eng, [2]int{3, 60}, [2]int{4, 63})
		centers := eng.definedCenters(channels)
		assert.Equal(t, "Split", eng.deriveDefinition(centers, channels))
	})
}

func TestEngine(t *testing.T) {
	eng := New(astro.NewStub(), refdata.MustLoad())
	ctx := context.Background()

	t.Run("Should compute a structurally complete bodygraph", func(t *testing.T) {
		out, err := eng.Calculate(ctx, fullBirthInput())
		require.NoError(t, err)

		hdType := out["type"].(string)
		assert.Contains(t, []string{"Generator", "Manifesting Generator", "Manifestor", "Projector", "Reflector"}, hdType)
		assert.Equal(t, strategies[hdType], out["strategy"])
		assert.Regexp(t, regexp.MustCompile(`^[1-6]/[1-6] .+/.+$`), out["profile"])

		personality := out["personality_gates"].(map[string]any)
		design := out["design_gates"].(map[string]any)
		assert.Len(t, personality, 13)
		assert.Len(t, design, 13)

		defined := core.ToStringSlice(out["defined_centers"])
		open := core.ToStringSlice(out["open_centers"])
		assert.Len(t, append(defined, open...), 9)

		cross := out["incarnation_cross"].(map[string]any)
		gates := core.ToIntSlice(cross["gates"])
		require.Len(t, gates, 4)
		for _, g := range gates {
			assert.GreaterOrEqual(t, g, 1)
			assert.LessOrEqual(t, g, 64)
		}
		assert.NotEmpty(t, cross["name"])
	})
	t.Run("Should be deterministic", func(t *testing.T) {
		first, err := eng.Calculate(ctx, fullBirthInput())
		require.NoError(t, err)
		second, err := eng.Calculate(ctx, fullBirthInput())
		require.NoError(t, err)
		assert.Equal(t, first["type"], second["type"])
		assert.Equal(t, first["personality_gates"], second["personality_gates"])
	})
	t.Run("Should require full birth data", func(t *testing.T) {
		_, err := eng.Calculate(ctx, core.Input{"birth_date": "1990-05-15"})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindInvalidInput, core.KindOf(err))
	})
	t.Run("Should interpret with strategy and authority", func(t *testing.T) {
		input := fullBirthInput()
		out, err := eng.Calculate(ctx, input)
		require.NoError(t, err)
		text, err := eng.Interpret(ctx, out, input)
		require.NoError(t, err)
		assert.Contains(t, text, "Strategy")
		assert.Contains(t, text, "Authority")
		assert.Contains(t, text, "Profile")
	})
}

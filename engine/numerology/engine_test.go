package numerology

import (
	"context"
	"testing"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	t.Run("Should reduce to a single digit", func(t *testing.T) {
		assert.Equal(t, 3, Reduce(30, true).Value)
		assert.Equal(t, 9, Reduce(999, false).Value)
	})
	t.Run("Should preserve master numbers when asked", func(t *testing.T) {
		for _, m := range []int{11, 22, 33, 44} {
			r := Reduce(m, true)
			assert.Equal(t, m, r.Value)
			assert.True(t, r.Master)
		}
	})
	t.Run("Should reduce master numbers when preservation is off", func(t *testing.T) {
		assert.Equal(t, 2, Reduce(11, false).Value)
		assert.Equal(t, 8, Reduce(44, false).Value)
	})
	t.Run("Should preserve masters reached as intermediate sums", func(t *testing.T) {
		// 29 -> 11, which halts under preservation
		r := Reduce(29, true)
		assert.Equal(t, 11, r.Value)
		assert.True(t, r.Master)
	})
	t.Run("Should flag karmic debt intermediates", func(t *testing.T) {
		for _, d := range []int{13, 14, 16, 19} {
			r := Reduce(d, false)
			assert.Equal(t, d, r.KarmicDebt)
		}
		assert.Zero(t, Reduce(12, false).KarmicDebt)
	})
}

func TestPrimitives(t *testing.T) {
	birth := time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Should compute life path 3 for 1990-05-15", func(t *testing.T) {
		r := LifePath(birth)
		assert.Equal(t, 3, r.Value)
	})
	t.Run("Should preserve the master expression of John Smith", func(t *testing.T) {
		// J+O+H+N = 20, S+M+I+T+H = 24: the sum 44 halts reduction.
		r := Expression("John Smith", SystemPythagorean)
		assert.Equal(t, 44, r.Value)
		assert.True(t, r.Master)
	})
	t.Run("Should split vowels and consonants with Y as consonant", func(t *testing.T) {
		parts := SplitName("Mary Jane")
		assert.Equal(t, []rune{'A', 'A', 'E'}, parts.Vowels)
		assert.Equal(t, []rune{'M', 'R', 'Y', 'J', 'N'}, parts.Consonants)
	})
	t.Run("Should compute soul urge and personality for John Smith", func(t *testing.T) {
		// vowels O+I = 15 -> 6; consonants sum 29 -> 11 (master)
		assert.Equal(t, 6, SoulUrge("John Smith", SystemPythagorean).Value)
		p := Personality("John Smith", SystemPythagorean)
		assert.Equal(t, 11, p.Value)
		assert.True(t, p.Master)
	})
	t.Run("Should reduce personal year without master preservation", func(t *testing.T) {
		// 05 15 2024 -> 0+5+1+5+2+0+2+4 = 19 -> 10 -> 1
		r := PersonalYear(birth, 2024)
		assert.Equal(t, 1, r.Value)
		assert.False(t, r.Master)
	})
	t.Run("Should differ between systems", func(t *testing.T) {
		assert.NotEqual(t,
			Expression("John Smith", SystemPythagorean).Intermediates[0],
			Expression("John Smith", SystemChaldean).Intermediates[0])
	})
}

func TestEngine(t *testing.T) {
	eng := New()
	ctx := context.Background()

	t.Run("Should expose name and schemas", func(t *testing.T) {
		assert.Equal(t, "numerology", eng.Name())
		require.NotNil(t, eng.InputSchema())
		require.NotNil(t, eng.OutputSchema())
	})
	t.Run("Should calculate the full chart for John Smith", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{
			"full_name":    "John Smith",
			"birth_date":   "1990-05-15",
			"system":       "pythagorean",
			"current_year": 2024,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, out["life_path"])
		assert.Equal(t, 44, out["expression"])
		assert.Equal(t, 6, out["soul_urge"])
		assert.Equal(t, 11, out["personality"])
		bridges := out["bridges"].(map[string]any)
		assert.Equal(t, 41, bridges["life_expression_bridge"])
		assert.Equal(t, 5, bridges["soul_personality_bridge"])
		assert.ElementsMatch(t, []int{44, 11, 11}, out["master_numbers"])
	})
	t.Run("Should reject a missing name", func(t *testing.T) {
		_, err := eng.Calculate(ctx, core.Input{"birth_date": "1990-05-15"})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindInvalidInput, core.KindOf(err))
	})
	t.Run("Should reject an unknown system", func(t *testing.T) {
		_, err := eng.Calculate(ctx, core.Input{
			"full_name":  "A",
			"birth_date": "2000-01-01",
			"system":     "kabbalah",
		})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindInvalidInput, core.KindOf(err))
	})
	t.Run("Should render a deterministic interpretation", func(t *testing.T) {
		input := core.Input{"full_name": "John Smith", "birth_date": "1990-05-15", "current_year": 2024}
		out, err := eng.Calculate(ctx, input)
		require.NoError(t, err)
		text, err := eng.Interpret(ctx, out, input)
		require.NoError(t, err)
		assert.Contains(t, text, "Life Path")
		assert.Contains(t, text, "John Smith")
		again, err := eng.Interpret(ctx, out, input)
		require.NoError(t, err)
		assert.Equal(t, text, again)
	})
	t.Run("Should contribute recommendations and themes", func(t *testing.T) {
		input := core.Input{"full_name": "John Smith", "birth_date": "1990-05-15", "current_year": 2024}
		out, err := eng.Calculate(ctx, input)
		require.NoError(t, err)
		assert.NotEmpty(t, eng.Recommendations(out, input))
		assert.Contains(t, eng.ArchetypalThemes(out, input), "life_path_3")
	})
}

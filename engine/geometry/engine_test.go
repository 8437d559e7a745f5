package geometry

import (
	"context"
	"math"
	"testing"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/refdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerators(t *testing.T) {
	t.Run("Should place mandala points on concentric layers", func(t *testing.T) {
		fig := Mandala(Point{}, 1.0, 8, 3)
		assert.Equal(t, "mandala", fig.Kind)
		assert.Len(t, fig.Points, 24)
		for _, pt := range fig.Points {
			r := math.Hypot(pt.X, pt.Y)
			assert.LessOrEqual(t, r, 1.0+1e-9)
		}
	})
	t.Run("Should build the seven circle seed of life at one layer", func(t *testing.T) {
		fig := FlowerOfLife(Point{}, 1.0, 1)
		assert.Len(t, fig.Circles, 7)
		for _, c := range fig.Circles {
			assert.InDelta(t, 1.0, c.Radius, 1e-9)
		}
	})
	t.Run("Should interlock nine triangles in the sri yantra", func(t *testing.T) {
		fig := SriYantra(Point{}, 1.0)
		assert.Len(t, fig.Polygons, 9)
		for _, p := range fig.Polygons {
			assert.Len(t, p.Points, 3)
		}
	})
	t.Run("Should grow the golden spiral monotonically", func(t *testing.T) {
		fig := GoldenSpiral(Point{}, 1.0, 3)
		require.NotEmpty(t, fig.Points)
		prev := -1.0
		for _, pt := range fig.Points {
			r := math.Hypot(pt.X, pt.Y)
			assert.Greater(t, r, prev)
			prev = r
		}
	})
	t.Run("Should emit the canonical platonic vertex counts", func(t *testing.T) {
		expected := map[string]int{
			"tetrahedron":  4,
			"hexahedron":   8,
			"octahedron":   6,
			"dodecahedron": 20,
			"icosahedron":  12,
		}
		for name, count := range expected {
			fig, err := PlatonicSolid(name, 1.0)
			require.NoError(t, err)
			assert.Len(t, fig.Points, count, name)
		}
		_, err := PlatonicSolid("teapot", 1.0)
		require.Error(t, err)
	})
	t.Run("Should find the vesica lens when circles overlap", func(t *testing.T) {
		fig := VesicaPiscis(Point{}, 1.0, 1.0)
		require.Len(t, fig.Points, 2)
		assert.InDelta(t, fig.Points[0].Y, -fig.Points[1].Y, 1e-9)
		none := VesicaPiscis(Point{}, 1.0, 3.0)
		assert.Empty(t, none.Points)
	})
}

func TestEngine(t *testing.T) {
	set := refdata.MustLoad()
	eng := New(set)
	ctx := context.Background()

	t.Run("Should select a template by intention keywords", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{"intention": "abundance and manifestation"})
		require.NoError(t, err)
		tmpl := out["template"].(map[string]any)
		assert.Equal(t, "sri_yantra", tmpl["name"])
	})
	t.Run("Should fall back to the mandala for unmatched intentions", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{"intention": "unspecified longing"})
		require.NoError(t, err)
		tmpl := out["template"].(map[string]any)
		assert.Equal(t, "mandala", tmpl["name"])
	})
	t.Run("Should honor an explicit pattern type", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{
			"intention":    "growth",
			"pattern_type": "platonic_solid",
			"parameters":   map[string]any{"solid": "icosahedron"},
		})
		require.NoError(t, err)
		assert.Equal(t, "water", out["element"])
		assert.Equal(t, 20, out["faces"])
	})
	t.Run("Should personalize mandala petals from the life path", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{
			"intention":  "centering",
			"birth_date": "1990-05-15",
		})
		require.NoError(t, err)
		pers := out["personalization"].(map[string]any)
		assert.Equal(t, 3, pers["life_path"])
		tmpl := out["template"].(map[string]any)
		params := tmpl["parameters"].(map[string]any)
		assert.Equal(t, 3, params["petals"])
	})
	t.Run("Should reject a missing intention", func(t *testing.T) {
		_, err := eng.Calculate(ctx, core.Input{})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindInvalidInput, core.KindOf(err))
	})
	t.Run("Should reject an unknown solid parameter", func(t *testing.T) {
		_, err := eng.Calculate(ctx, core.Input{
			"intention":    "grounding",
			"pattern_type": "platonic_solid",
			"parameters":   map[string]any{"solid": "teapot"},
		})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindInvalidInput, core.KindOf(err))
	})
	t.Run("Should interpret with the intention echoed", func(t *testing.T) {
		input := core.Input{"intention": "union with my partner"}
		out, err := eng.Calculate(ctx, input)
		require.NoError(t, err)
		text, err := eng.Interpret(ctx, out, input)
		require.NoError(t, err)
		assert.Contains(t, text, "union with my partner")
	})
}

package tarot

import (
	"context"
	"testing"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/refdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(refdata.MustLoad())
}

func TestDeck(t *testing.T) {
	eng := newEngine(t)

	t.Run("Should assemble the full 78 card deck", func(t *testing.T) {
		assert.Len(t, eng.cards, 78)
	})
	t.Run("Should contain no duplicate card names", func(t *testing.T) {
		seen := map[string]bool{}
		for _, c := range eng.cards {
			assert.False(t, seen[c.Name], c.Name)
			seen[c.Name] = true
		}
	})
}

func TestEngine(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	t.Run("Should draw three cards by default", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{"question": "What should I focus on?"})
		require.NoError(t, err)
		cards := out["cards"].([]DrawnCard)
		require.Len(t, cards, 3)
		assert.Equal(t, "past", cards[0].Position)
		assert.Equal(t, "present", cards[1].Position)
		assert.Equal(t, "future", cards[2].Position)
	})
	t.Run("Should be deterministic for the same question and spread", func(t *testing.T) {
		input := core.Input{"question": "Will this venture thrive?", "spread": "celtic_cross"}
		first, err := eng.Calculate(ctx, input)
		require.NoError(t, err)
		second, err := eng.Calculate(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, first["cards"], second["cards"])
	})
	t.Run("Should vary the draw between questions", func(t *testing.T) {
		a, err := eng.Calculate(ctx, core.Input{"question": "Question A", "spread": "celtic_cross"})
		require.NoError(t, err)
		b, err := eng.Calculate(ctx, core.Input{"question": "Question B", "spread": "celtic_cross"})
		require.NoError(t, err)
		assert.NotEqual(t, a["cards"], b["cards"])
	})
	t.Run("Should draw ten distinct cards in the celtic cross", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{"question": "Show me everything", "spread": "celtic_cross"})
		require.NoError(t, err)
		cards := out["cards"].([]DrawnCard)
		require.Len(t, cards, 10)
		seen := map[string]bool{}
		for _, d := range cards {
			assert.False(t, seen[d.Card.Name], d.Card.Name)
			seen[d.Card.Name] = true
		}
	})
	t.Run("Should keep every card upright when reversals are off", func(t *testing.T) {
		out, err := eng.Calculate(ctx, core.Input{
			"question":       "Steady reading please",
			"spread":         "celtic_cross",
			"allow_reversed": false,
		})
		require.NoError(t, err)
		for _, d := range out["cards"].([]DrawnCard) {
			assert.False(t, d.IsReversed)
		}
	})
	t.Run("Should reject an unknown spread", func(t *testing.T) {
		_, err := eng.Calculate(ctx, core.Input{"question": "hm", "spread": "pentagram"})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindInvalidInput, core.KindOf(err))
	})
	t.Run("Should reject a missing question", func(t *testing.T) {
		_, err := eng.Calculate(ctx, core.Input{})
		require.Error(t, err)
	})
	t.Run("Should interpret each position on its own line", func(t *testing.T) {
		input := core.Input{"question": "What is unfolding?", "spread": "relationship"}
		out, err := eng.Calculate(ctx, input)
		require.NoError(t, err)
		text, err := eng.Interpret(ctx, out, input)
		require.NoError(t, err)
		for _, pos := range []string{"You", "Partner", "Connection", "Challenge", "Potential"} {
			assert.Contains(t, text, pos)
		}
	})
}

package refdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should load every embedded table without error", func(t *testing.T) {
		s, err := Load()
		require.NoError(t, err)
		require.NotNil(t, s)
	})
	t.Run("Should expose a complete 64-gate official sequence", func(t *testing.T) {
		s := MustLoad()
		assert.Len(t, s.HDGates.OfficialSequence, 64)
		seen := make(map[int]bool)
		for _, g := range s.HDGates.OfficialSequence {
			assert.GreaterOrEqual(t, g, 1)
			assert.LessOrEqual(t, g, 64)
			assert.False(t, seen[g], "gate %d repeated", g)
			seen[g] = true
		}
	})
	t.Run("Should carry the documented role offsets", func(t *testing.T) {
		s := MustLoad()
		assert.InDelta(t, 45.6, s.HDGates.RoleOffsets["personality_sun"], 1e-9)
		assert.InDelta(t, 45.5, s.HDGates.RoleOffsets["personality_earth"], 1e-9)
		assert.InDelta(t, 43.5, s.HDGates.RoleOffsets["design_sun"], 1e-9)
		assert.InDelta(t, 43.5, s.HDGates.RoleOffsets["design_earth"], 1e-9)
	})
	t.Run("Should normalize dasha lords to lowercase everywhere", func(t *testing.T) {
		s := MustLoad()
		assert.Equal(t, "ketu", s.Nakshatra.DashaSeq[0])
		assert.Equal(t, 20.0, s.Nakshatra.DashaYears["venus"])
		for _, nk := range s.Nakshatra.Nakshatras {
			assert.Equal(t, strings.ToLower(nk.Lord), nk.Lord, "nakshatra %s lord not lowercase", nk.Name)
		}
	})
	t.Run("Should sum the Vimshottari periods to 120 years", func(t *testing.T) {
		s := MustLoad()
		total := 0.0
		for _, lord := range s.Nakshatra.DashaSeq {
			total += s.Nakshatra.DashaYears[lord]
		}
		assert.Equal(t, 120.0, total)
	})
	t.Run("Should assemble a 78-card tarot deck", func(t *testing.T) {
		s := MustLoad()
		assert.Equal(t, 78, s.Tarot.DeckSize())
	})
	t.Run("Should resolve hexagrams and gene keys by number", func(t *testing.T) {
		s := MustLoad()
		h, err := s.Hexagrams.ByNumber(1)
		require.NoError(t, err)
		assert.Equal(t, "The Creative", h.Name)
		k, err := s.GeneKeys.ByNumber(64)
		require.NoError(t, err)
		assert.Equal(t, "Illumination", k.Siddhi)
		_, err = s.Hexagrams.ByNumber(65)
		assert.Error(t, err)
	})
	t.Run("Should map every gate to exactly one incarnation cross", func(t *testing.T) {
		s := MustLoad()
		for g := 1; g <= 64; g++ {
			c, err := s.Crosses.ByGate(g)
			require.NoError(t, err)
			assert.NotEmpty(t, c.Name)
		}
	})
	t.Run("Should map every gate to a center", func(t *testing.T) {
		s := MustLoad()
		for g := 1; g <= 64; g++ {
			assert.NotEmpty(t, s.HDCenters.CenterOf(g), "gate %d has no center", g)
		}
	})
}

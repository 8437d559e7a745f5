package astro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwissEphemeris(t *testing.T) {
	t.Run("Should satisfy the ephemeris facade", func(t *testing.T) {
		var eph Ephemeris = NewSwissEphemeris("")
		assert.NotNil(t, eph)
		assert.NoError(t, eph.Close())
	})
	t.Run("Should map every queryable body to a planet number", func(t *testing.T) {
		for _, b := range Bodies() {
			if b == Earth || b == SouthNode {
				// Derived bodies are computed from the sun and north node.
				continue
			}
			_, ok := swissBody[b]
			assert.True(t, ok, "body %s has no planet mapping", b)
		}
	})
}

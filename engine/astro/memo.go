package astro

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// jdQuantum rounds Julian days for memo keys: 1e-7 day is under 10 ms,
// far below the precision any engine consumes.
const jdQuantum = 1e7

// Memoized wraps an ephemeris with an in-process position cache and a
// bounded memo of design-time searches. Chart engines repeatedly query
// identical instants (same birth data across engines in one workflow), so
// the memo turns a workflow's ephemeris cost into a single query set.
type Memoized struct {
	inner     Ephemeris
	positions *ristretto.Cache[string, map[Body]Position]
	designs   *lru.Cache[string, float64]
}

// NewMemoized builds the memo layer. maxDesigns bounds the design-time
// memo; positions are bounded by cost (entry count) inside ristretto.
func NewMemoized(inner Ephemeris, maxDesigns int) (*Memoized, error) {
	positions, err := ristretto.NewCache(&ristretto.Config[string, map[Body]Position]{
		NumCounters: 100_000,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("astro: position cache: %w", err)
	}
	if maxDesigns <= 0 {
		maxDesigns = 1024
	}
	designs, err := lru.New[string, float64](maxDesigns)
	if err != nil {
		return nil, fmt.Errorf("astro: design memo: %w", err)
	}
	return &Memoized{inner: inner, positions: positions, designs: designs}, nil
}

func (m *Memoized) PositionsAt(ctx context.Context, jd float64, bodies []Body, sidereal bool) (map[Body]Position, error) {
	key := positionKey(jd, bodies, sidereal)
	if cached, ok := m.positions.Get(key); ok {
		return clonePositions(cached), nil
	}
	fresh, err := m.inner.PositionsAt(ctx, jd, bodies, sidereal)
	if err != nil {
		return nil, err
	}
	m.positions.SetWithTTL(key, clonePositions(fresh), 1, time.Hour)
	return fresh, nil
}

// DesignTime runs the 88-degree search through the memo.
func (m *Memoized) DesignTime(ctx context.Context, birthJD, birthSunLongitude float64) (float64, bool, error) {
	key := fmt.Sprintf("%d:%d", int64(birthJD*jdQuantum), int64(birthSunLongitude*jdQuantum))
	if jd, ok := m.designs.Get(key); ok {
		return jd, true, nil
	}
	jd, converged, err := DesignTime(ctx, m.inner, birthJD, birthSunLongitude)
	if err != nil {
		return 0, false, err
	}
	if converged {
		m.designs.Add(key, jd)
	}
	return jd, converged, nil
}

func (m *Memoized) Close() error {
	m.positions.Close()
	return m.inner.Close()
}

func positionKey(jd float64, bodies []Body, sidereal bool) string {
	names := make([]string, len(bodies))
	for i, b := range bodies {
		names[i] = string(b)
	}
	sort.Strings(names)
	mode := "t"
	if sidereal {
		mode = "s"
	}
	return fmt.Sprintf("%d:%s:%s", int64(jd*jdQuantum), mode, strings.Join(names, ","))
}

func clonePositions(src map[Body]Position) map[Body]Position {
	dst := make(map[Body]Position, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

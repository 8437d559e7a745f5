package astro

import (
	"context"
	"fmt"
	"sync"

	swisseph "github.com/tejzpr/go-swisseph"
)

// swissBody maps engine bodies to Swiss Ephemeris planet numbers. Earth
// and the south node are derived, not queried.
var swissBody = map[Body]int32{
	Sun:       swisseph.Sun,
	Moon:      swisseph.Moon,
	Mercury:   swisseph.Mercury,
	Venus:     swisseph.Venus,
	Mars:      swisseph.Mars,
	Jupiter:   swisseph.Jupiter,
	Saturn:    swisseph.Saturn,
	Uranus:    swisseph.Uranus,
	Neptune:   swisseph.Neptune,
	Pluto:     swisseph.Pluto,
	NorthNode: swisseph.TrueNode,
}

// SwissEphemeris adapts the Swiss Ephemeris bindings to the facade. The
// underlying library is stateful (ephemeris path, sidereal mode), so all
// calls serialise through one mutex; concurrency fan-out happens above
// this seam at the orchestrator.
type SwissEphemeris struct {
	mu sync.Mutex
}

// NewSwissEphemeris points the library at the ephemeris data files and
// fixes the sidereal mode to Lahiri.
func NewSwissEphemeris(dataPath string) *SwissEphemeris {
	if dataPath != "" {
		swisseph.SetEphePath(dataPath)
	}
	swisseph.SetSidMode(swisseph.SidmLahiri, 0, 0)
	return &SwissEphemeris{}
}

func (e *SwissEphemeris) PositionsAt(ctx context.Context, jd float64, bodies []Body, sidereal bool) (map[Body]Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	flags := int32(swisseph.FlagSwieph | swisseph.FlagSpeed)
	if sidereal {
		flags |= int32(swisseph.FlagSidereal)
	}
	out := make(map[Body]Position, len(bodies))
	for _, b := range bodies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := b
		if b == Earth {
			src = Sun
		}
		if b == SouthNode {
			src = NorthNode
		}
		if _, done := out[src]; done {
			continue
		}
		planet, ok := swissBody[src]
		if !ok {
			return nil, fmt.Errorf("astro: unsupported body %q", b)
		}
		res := swisseph.CalcUT(jd, planet, flags)
		if res.Flag < 0 {
			return nil, fmt.Errorf("astro: swisseph calc for %s at jd %f: %s", src, jd, res.Error)
		}
		out[src] = Position{
			LongitudeDeg: NormalizeDeg(res.Data[0]),
			LatitudeDeg:  res.Data[1],
			DistanceAU:   res.Data[2],
			LongSpeedDeg: res.Data[3],
			LatSpeedDeg:  res.Data[4],
		}
	}
	Derive(out, bodies)
	for b := range out {
		if !containsBody(bodies, b) {
			delete(out, b)
		}
	}
	return out, nil
}

// Close releases the ephemeris file handles.
func (e *SwissEphemeris) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	swisseph.Close()
	return nil
}

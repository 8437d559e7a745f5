package astro

import (
	"context"
)

// Stub is a deterministic mean-motion ephemeris. Each body advances
// linearly from its epoch longitude at its mean daily rate. It backs
// tests and serves as the documented degraded mode when no Swiss
// Ephemeris data is available: positions are coarse but every invariant
// (normalised longitudes, steady solar arc) holds.
type Stub struct {
	// EpochJD anchors the epoch longitudes; defaults to J2000.
	EpochJD float64
	// EpochLongitudes overrides per-body epoch longitudes.
	EpochLongitudes map[Body]float64
	// Ayanamsa subtracted in sidereal mode; Lahiri value at J2000.
	Ayanamsa float64
}

// Mean daily motions in degrees. Nodes regress.
var meanMotion = map[Body]float64{
	Sun:       0.9856473,
	Moon:      13.1763966,
	Mercury:   1.3833,
	Venus:     1.2,
	Mars:      0.5240,
	Jupiter:   0.0831,
	Saturn:    0.0334,
	Uranus:    0.0117,
	Neptune:   0.006,
	Pluto:     0.004,
	NorthNode: -0.0529539,
}

// Approximate J2000 longitudes; arbitrary but fixed so tests are
// reproducible.
var epochLongitude = map[Body]float64{
	Sun:       280.46,
	Moon:      218.32,
	Mercury:   252.25,
	Venus:     181.98,
	Mars:      355.43,
	Jupiter:   34.35,
	Saturn:    50.08,
	Uranus:    314.05,
	Neptune:   304.35,
	Pluto:     238.93,
	NorthNode: 125.04,
}

// NewStub returns a stub anchored at J2000 with the Lahiri ayanamsa.
func NewStub() *Stub {
	return &Stub{EpochJD: J2000, Ayanamsa: 23.85}
}

func (s *Stub) PositionsAt(_ context.Context, jd float64, bodies []Body, sidereal bool) (map[Body]Position, error) {
	epoch := s.EpochJD
	if epoch == 0 {
		epoch = J2000
	}
	days := jd - epoch
	out := make(map[Body]Position, len(bodies))
	for _, b := range bodies {
		src := b
		if b == Earth {
			src = Sun
		}
		if b == SouthNode {
			src = NorthNode
		}
		rate, ok := meanMotion[src]
		if !ok {
			continue
		}
		if _, done := out[src]; done {
			continue
		}
		lon0 := epochLongitude[src]
		if s.EpochLongitudes != nil {
			if v, ok := s.EpochLongitudes[src]; ok {
				lon0 = v
			}
		}
		lon := NormalizeDeg(lon0 + rate*days)
		if sidereal {
			lon = NormalizeDeg(lon - s.Ayanamsa)
		}
		out[src] = Position{
			LongitudeDeg: lon,
			DistanceAU:   1,
			LongSpeedDeg: rate,
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

func (s *Stub) Close() error { return nil }

func containsBody(bodies []Body, b Body) bool {
	for _, e := range bodies {
		if e == b {
			return true
		}
	}
	return false
}

// Package astro provides the astronomical primitives shared by the
// birth-data engines: Julian-day conversion, an ephemeris facade with a
// Swiss Ephemeris adapter, nakshatra and Human Design gate mapping, and
// the 88-degree solar-arc design-time search. Everything external lives
// behind the Ephemeris interface so engines stay testable with a stub.
package astro

import (
	"context"
	"fmt"
	"math"
)

// Body names a celestial body in engine vocabulary. Earth and the south
// node are derived bodies: Earth is the Sun reflected 180 degrees, the
// south node the north node reflected.
type Body string

const (
	Sun       Body = "sun"
	Earth     Body = "earth"
	Moon      Body = "moon"
	Mercury   Body = "mercury"
	Venus     Body = "venus"
	Mars      Body = "mars"
	Jupiter   Body = "jupiter"
	Saturn    Body = "saturn"
	Uranus    Body = "uranus"
	Neptune   Body = "neptune"
	Pluto     Body = "pluto"
	NorthNode Body = "north_node"
	SouthNode Body = "south_node"
)

// Bodies is the standard body set used for Human Design and Gene Keys
// charts, in wheel order.
func Bodies() []Body {
	return []Body{
		Sun, Earth, Moon, Mercury, Venus, Mars, Jupiter,
		Saturn, Uranus, Neptune, Pluto, NorthNode, SouthNode,
	}
}

// Position is an ecliptic position with motion. Longitude is always
// normalised to [0, 360).
type Position struct {
	LongitudeDeg  float64 `json:"longitude_deg"`
	LatitudeDeg   float64 `json:"latitude_deg"`
	DistanceAU    float64 `json:"distance_au"`
	LongSpeedDeg  float64 `json:"longitude_speed_deg_per_day"`
	LatSpeedDeg   float64 `json:"latitude_speed_deg_per_day"`
}

// Ephemeris is the facade over the external astronomical library. The
// sidereal flag applies the Lahiri ayanamsa.
type Ephemeris interface {
	PositionsAt(ctx context.Context, jd float64, bodies []Body, sidereal bool) (map[Body]Position, error)
	Close() error
}

// SunLongitudeAt resolves the tropical Sun longitude at jd through any
// ephemeris.
func SunLongitudeAt(ctx context.Context, eph Ephemeris, jd float64) (float64, error) {
	pos, err := eph.PositionsAt(ctx, jd, []Body{Sun}, false)
	if err != nil {
		return 0, err
	}
	p, ok := pos[Sun]
	if !ok {
		return 0, fmt.Errorf("astro: ephemeris returned no sun position at jd %f", jd)
	}
	return p.LongitudeDeg, nil
}

// NormalizeDeg wraps an angle into [0, 360).
func NormalizeDeg(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// WrapDiff returns the signed shortest angular difference target-current
// in (-180, 180].
func WrapDiff(target, current float64) float64 {
	return math.Mod(target-current+540, 360) - 180
}

// Derive fills in the derived bodies (earth, south node) from their
// sources when the caller asked for them and the ephemeris returned only
// primaries.
func Derive(positions map[Body]Position, bodies []Body) {
	for _, b := range bodies {
		switch b {
		case Earth:
			if _, ok := positions[Earth]; !ok {
				if sun, ok := positions[Sun]; ok {
					positions[Earth] = reflect180(sun)
				}
			}
		case SouthNode:
			if _, ok := positions[SouthNode]; !ok {
				if node, ok := positions[NorthNode]; ok {
					positions[SouthNode] = reflect180(node)
				}
			}
		}
	}
}

func reflect180(p Position) Position {
	return Position{
		LongitudeDeg: NormalizeDeg(p.LongitudeDeg + 180),
		LatitudeDeg:  -p.LatitudeDeg,
		DistanceAU:   p.DistanceAU,
		LongSpeedDeg: p.LongSpeedDeg,
		LatSpeedDeg:  -p.LatSpeedDeg,
	}
}

package astro

import (
	"context"
	"math"
)

const (
	// DesignArcDeg is the solar arc separating the design activation from
	// birth.
	DesignArcDeg = 88.0

	designSearchLoDays = 100.0
	designSearchHiDays = 80.0
	designToleranceDeg = 0.001
	// ~8 seconds expressed in days
	designIntervalMin = 8.0 / SecondsPerDay
	designFallbackDay = 88.0
)

// DesignTime locates the design instant: the unique earlier time at which
// the Sun's ecliptic longitude was birthSunLongitude - 88 degrees (mod
// 360). The search bisects [birthJD-100d, birthJD-80d] on the wrap-safe
// longitude difference. When the search fails to converge the documented
// fallback of birth minus 88 days is returned along with converged=false.
func DesignTime(ctx context.Context, eph Ephemeris, birthJD, birthSunLongitude float64) (jd float64, converged bool, err error) {
	target := NormalizeDeg(birthSunLongitude - DesignArcDeg)
	lo := birthJD - designSearchLoDays
	hi := birthJD - designSearchHiDays
	for hi-lo > designIntervalMin {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		mid := (lo + hi) / 2
		current, err := SunLongitudeAt(ctx, eph, mid)
		if err != nil {
			return 0, false, err
		}
		diff := WrapDiff(target, current)
		if math.Abs(diff) < designToleranceDeg {
			return mid, true, nil
		}
		// The Sun moves forward in longitude, so a positive remaining
		// difference means the target lies later than mid.
		if diff > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	mid := (lo + hi) / 2
	current, serr := SunLongitudeAt(ctx, eph, mid)
	if serr == nil && math.Abs(WrapDiff(target, current)) < designToleranceDeg {
		return mid, true, nil
	}
	return birthJD - designFallbackDay, false, nil
}

package astro

import (
	"fmt"
	"math"
	"time"
)

// SecondsPerDay is the length of a Julian day in seconds.
const SecondsPerDay = 86400.0

// J2000 is the Julian day of the standard epoch 2000 January 1.5 TT.
const J2000 = 2451545.0

// JulianDay converts a timezone-aware time to its Julian day. The time is
// first brought to UTC, then the Gregorian-calendar formula is applied.
func JulianDay(t time.Time) float64 {
	u := t.UTC()
	year := u.Year()
	month := int(u.Month())
	day := u.Day()
	if month <= 2 {
		year--
		month += 12
	}
	a := year / 100
	b := 2 - a + a/4
	dayFrac := float64(day) +
		(float64(u.Hour())+
			float64(u.Minute())/60+
			(float64(u.Second())+float64(u.Nanosecond())/1e9)/3600)/24
	return math.Floor(365.25*float64(year+4716)) +
		math.Floor(30.6001*float64(month+1)) +
		dayFrac + float64(b) - 1524.5
}

// FromJulianDay converts a Julian day back to UTC. Inverse of JulianDay
// to sub-second precision over the supported range.
func FromJulianDay(jd float64) time.Time {
	z := math.Floor(jd + 0.5)
	f := jd + 0.5 - z
	a := z
	if z >= 2299161 {
		alpha := math.Floor((z - 1867216.25) / 36524.25)
		a = z + 1 + alpha - math.Floor(alpha/4)
	}
	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	e := math.Floor((b - d) / 30.6001)

	day := b - d - math.Floor(30.6001*e) + f
	month := e - 1
	if e >= 14 {
		month = e - 13
	}
	year := c - 4716
	if month <= 2 {
		year = c - 4715
	}

	dayInt := math.Floor(day)
	daySecs := (day - dayInt) * SecondsPerDay
	secs := math.Floor(daySecs)
	nanos := math.Round((daySecs - secs) * 1e9)
	return time.Date(int(year), time.Month(month), int(dayInt), 0, 0, 0, 0, time.UTC).
		Add(time.Duration(secs)*time.Second + time.Duration(nanos)*time.Nanosecond)
}

// LocalCivilTime resolves a local birth date and clock time in an IANA
// zone to an absolute instant.
func LocalCivilTime(date time.Time, clock string, zone string) (time.Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("astro: unknown timezone %q: %w", zone, err)
	}
	hour, minute, sec := 12, 0, 0
	if clock != "" {
		parsed, err := parseClock(clock)
		if err != nil {
			return time.Time{}, err
		}
		hour, minute, sec = parsed[0], parsed[1], parsed[2]
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, sec, 0, loc), nil
}

func parseClock(clock string) ([3]int, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return [3]int{t.Hour(), t.Minute(), t.Second()}, nil
		}
	}
	return [3]int{}, fmt.Errorf("astro: invalid clock time %q, want HH:MM or HH:MM:SS", clock)
}

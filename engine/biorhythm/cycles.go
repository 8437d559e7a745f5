// Package biorhythm implements the biorhythm engine and its sinusoidal
// cycle primitives.
package biorhythm

import (
	"math"
	"time"
)

// Cycle is one biorhythm sinusoid with an integer day period.
type Cycle struct {
	Name   string `json:"name"`
	Period int    `json:"period_days"`
	Core   bool   `json:"core"`
}

// CoreCycles are always computed.
var CoreCycles = []Cycle{
	{Name: "physical", Period: 23, Core: true},
	{Name: "emotional", Period: 28, Core: true},
	{Name: "intellectual", Period: 33, Core: true},
}

// ExtendedCycles are added on request.
var ExtendedCycles = []Cycle{
	{Name: "intuitive", Period: 38},
	{Name: "aesthetic", Period: 43},
	{Name: "spiritual", Period: 53},
}

// criticalBandPct is the zero band: within it a cycle counts as crossing.
const criticalBandPct = 5.0

// peakBandPct marks the flat top and bottom of the sinusoid.
const peakBandPct = 95.0

// Phase labels a point on a cycle.
type Phase string

const (
	PhaseCritical Phase = "critical"
	PhaseRising   Phase = "rising"
	PhasePeak     Phase = "peak"
	PhaseFalling  Phase = "falling"
	PhaseValley   Phase = "valley"
)

// Value returns the cycle percentage in [-100, 100] at daysAlive.
func (c Cycle) Value(daysAlive int) float64 {
	return math.Sin(2*math.Pi*float64(daysAlive)/float64(c.Period)) * 100
}

// Derivative returns the instantaneous slope (percent per day).
func (c Cycle) Derivative(daysAlive int) float64 {
	omega := 2 * math.Pi / float64(c.Period)
	return math.Cos(omega*float64(daysAlive)) * 100 * omega
}

// PhaseAt labels the cycle position from value and slope: the zero band
// is critical, then rising/peak/falling above zero with the mirrored
// valley rules below.
func (c Cycle) PhaseAt(daysAlive int) Phase {
	v := c.Value(daysAlive)
	d := c.Derivative(daysAlive)
	switch {
	case math.Abs(v) < criticalBandPct:
		return PhaseCritical
	case v > 0 && d > 0:
		return PhaseRising
	case v > 0:
		if v > peakBandPct {
			return PhasePeak
		}
		return PhaseFalling
	case d < 0:
		if v < -peakBandPct {
			return PhaseValley
		}
		return PhaseFalling
	default:
		return PhaseRising
	}
}

// DaysAlive counts whole days between birth date and target date,
// comparing calendar days in UTC.
func DaysAlive(birth, target time.Time) int {
	b := time.Date(birth.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(b).Hours() / 24)
}

// IsCriticalDay reports whether at least two of the given cycles sit in
// the zero band on the given day.
func IsCriticalDay(cycles []Cycle, daysAlive int) bool {
	crossing := 0
	for _, c := range cycles {
		if math.Abs(c.Value(daysAlive)) < criticalBandPct {
			crossing++
		}
	}
	return crossing >= 2
}

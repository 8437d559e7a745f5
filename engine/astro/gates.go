package astro

import (
	"math"

	"github.com/auralab/aura/engine/refdata"
)

const (
	gateArcDeg  = 5.625              // 360 / 64
	lineArcDeg  = gateArcDeg / 6     // 0.9375
	colorArcDeg = lineArcDeg / 6     // 0.15625
	toneArcDeg  = colorArcDeg / 6    // 0.0260416...
	baseArcDeg  = toneArcDeg / 5     // 0.0052083...
)

// ChartRole distinguishes the two activation sets of a chart.
type ChartRole string

const (
	RolePersonality ChartRole = "personality"
	RoleDesign      ChartRole = "design"
)

// Gate is one Human Design activation: a gate number on the wheel with
// its line/color/tone/base refinement and the body that activates it.
type Gate struct {
	Number int    `json:"number"`
	Line   int    `json:"line"`
	Color  int    `json:"color"`
	Tone   int    `json:"tone"`
	Base   int    `json:"base"`
	Body   string `json:"body"`
}

// GateMapper converts ecliptic longitudes into Human Design gates using
// the official wheel sequence and the per-role longitude offsets, both
// loaded from reference data.
type GateMapper struct {
	sequence []int
	offsets  map[string]float64
	keywords *refdata.HDGates
}

// NewGateMapper builds a mapper over a loaded wheel table.
func NewGateMapper(gates *refdata.HDGates) *GateMapper {
	return &GateMapper{
		sequence: gates.OfficialSequence,
		offsets:  gates.RoleOffsets,
		keywords: gates,
	}
}

// Offset returns the longitude shift applied before indexing the wheel.
// Sun and Earth carry distinct calibrations; every other body borrows the
// Sun offset of its role.
func (m *GateMapper) Offset(role ChartRole, body Body) float64 {
	key := string(role) + "_sun"
	if body == Earth {
		key = string(role) + "_earth"
	}
	return m.offsets[key]
}

// Map converts a raw ecliptic longitude into the activated gate for the
// given role and body.
func (m *GateMapper) Map(longitudeDeg float64, role ChartRole, body Body) Gate {
	shifted := NormalizeDeg(longitudeDeg + m.Offset(role, body))
	position := clampInt(int(math.Floor(shifted/gateArcDeg)), 0, 63)
	within := math.Mod(shifted, gateArcDeg)
	line := clampInt(int(math.Floor(within/lineArcDeg))+1, 1, 6)
	withinLine := math.Mod(within, lineArcDeg)
	color := clampInt(int(math.Floor(withinLine/colorArcDeg))+1, 1, 6)
	withinColor := math.Mod(withinLine, colorArcDeg)
	tone := clampInt(int(math.Floor(withinColor/toneArcDeg))+1, 1, 6)
	withinTone := math.Mod(withinColor, toneArcDeg)
	base := clampInt(int(math.Floor(withinTone/baseArcDeg))+1, 1, 5)
	return Gate{
		Number: m.sequence[position],
		Line:   line,
		Color:  color,
		Tone:   tone,
		Base:   base,
		Body:   string(body),
	}
}

// Keyword returns the keyword for a gate number.
func (m *GateMapper) Keyword(gate int) string {
	return m.keywords.Keyword(gate)
}

// LongitudeFor returns a longitude that maps to the given gate number and
// line under the given role. Inverse of Map, used by tests and by the
// geometry engine when it renders a wheel position for a gate.
func (m *GateMapper) LongitudeFor(gateNumber, line int, role ChartRole, body Body) (float64, bool) {
	for position, g := range m.sequence {
		if g != gateNumber {
			continue
		}
		shifted := float64(position)*gateArcDeg + (float64(line-1)+0.5)*lineArcDeg
		return NormalizeDeg(shifted - m.Offset(role, body)), true
	}
	return 0, false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

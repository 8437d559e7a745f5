package astro

import (
	"context"
	"fmt"

	"github.com/auralab/aura/engine/core"
)

// Chart is the full gate activation set of a birth moment: every body
// mapped at the personality (birth) and design (88 degrees of solar arc
// earlier) instants.
type Chart struct {
	BirthUTC        string              `json:"birth_utc"`
	PersonalityJD   float64             `json:"personality_jd"`
	DesignJD        float64             `json:"design_jd"`
	DesignConverged bool                `json:"design_converged"`
	Personality     map[Body]Position   `json:"-"`
	Design          map[Body]Position   `json:"-"`
	PersonalityGate map[Body]Gate       `json:"personality_gates"`
	DesignGate      map[Body]Gate       `json:"design_gates"`
}

// ComputeChart resolves birth data into the two activation sets. The
// design instant is located by the 88-degree solar-arc search against
// the same ephemeris.
func ComputeChart(ctx context.Context, eph Ephemeris, mapper *GateMapper, birth *core.BirthData) (*Chart, error) {
	local, err := LocalCivilTime(birth.Date, birth.Clock, birth.Timezone)
	if err != nil {
		return nil, fmt.Errorf("resolve birth instant: %w", err)
	}
	birthJD := JulianDay(local)

	bodies := Bodies()
	personality, err := eph.PositionsAt(ctx, birthJD, bodies, false)
	if err != nil {
		return nil, fmt.Errorf("personality positions: %w", err)
	}
	designJD, converged, err := DesignTime(ctx, eph, birthJD, personality[Sun].LongitudeDeg)
	if err != nil {
		return nil, fmt.Errorf("design search: %w", err)
	}
	design, err := eph.PositionsAt(ctx, designJD, bodies, false)
	if err != nil {
		return nil, fmt.Errorf("design positions: %w", err)
	}

	chart := &Chart{
		BirthUTC:        local.UTC().Format("2006-01-02T15:04:05Z"),
		PersonalityJD:   birthJD,
		DesignJD:        designJD,
		DesignConverged: converged,
		Personality:     personality,
		Design:          design,
		PersonalityGate: make(map[Body]Gate, len(bodies)),
		DesignGate:      make(map[Body]Gate, len(bodies)),
	}
	for _, b := range bodies {
		chart.PersonalityGate[b] = mapper.Map(personality[b].LongitudeDeg, RolePersonality, b)
		chart.DesignGate[b] = mapper.Map(design[b].LongitudeDeg, RoleDesign, b)
	}
	return chart, nil
}

// Gate returns the activation for a body in the requested role.
func (c *Chart) Gate(role ChartRole, body Body) (Gate, bool) {
	set := c.PersonalityGate
	if role == RoleDesign {
		set = c.DesignGate
	}
	g, ok := set[body]
	return g, ok
}

// ActiveGates returns the deduplicated gate numbers across both roles.
func (c *Chart) ActiveGates() []int {
	seen := map[int]bool{}
	out := []int{}
	for _, set := range []map[Body]Gate{c.PersonalityGate, c.DesignGate} {
		for _, g := range set {
			if !seen[g.Number] {
				seen[g.Number] = true
				out = append(out, g.Number)
			}
		}
	}
	return out
}

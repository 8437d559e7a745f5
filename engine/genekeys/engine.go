// Package genekeys implements the Gene Keys engine: the activation
// sequence of spheres computed from the Human Design wheel positions and
// read through the shadow/gift/siddhi spectrum.
package genekeys

import (
	"context"
	"fmt"
	"strings"

	"github.com/auralab/aura/engine/astro"
	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/refdata"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the Gene Keys engine.
const EngineName = "gene_keys"

// Engine computes the hologenetic profile spheres.
type Engine struct {
	eph    astro.Ephemeris
	mapper *astro.GateMapper
	keys   *refdata.GeneKeyTable
}

func New(eph astro.Ephemeris, set *refdata.Set) *Engine {
	return &Engine{
		eph:    eph,
		mapper: astro.NewGateMapper(&set.HDGates),
		keys:   &set.GeneKeys,
	}
}

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Computes the Gene Keys hologenetic profile: the activation-sequence spheres with their shadow, gift, and siddhi frequencies"
}

func (e *Engine) InputSchema() *schema.Schema {
	return core.InputSchema(core.BirthDataProperties(), "birth_date", "birth_time", "birth_location")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"spheres":      map[string]any{"type": "object"},
		"sequence":     map[string]any{"type": "array"},
		"prime_gifts":  map[string]any{"type": "array"},
		"design_jd":    map[string]any{"type": "number"},
		"birth_utc":    map[string]any{"type": "string"},
	})
}

func (e *Engine) Calculate(ctx context.Context, input core.Input) (core.Output, error) {
	birth, err := core.DecodeBirthData(input, EngineName, true)
	if err != nil {
		return nil, err
	}
	chart, err := astro.ComputeChart(ctx, e.eph, e.mapper, birth)
	if err != nil {
		return nil, core.DependencyUnavailableError(EngineName, "ephemeris", err)
	}

	spheres := map[string]any{}
	sequence := []string{}
	gifts := []string{}
	for _, sphere := range e.keys.Spheres {
		role := astro.RolePersonality
		if sphere.Design {
			role = astro.RoleDesign
		}
		gate, ok := chart.Gate(role, astro.Body(sphere.Body))
		if !ok {
			return nil, core.InternalError(EngineName,
				fmt.Errorf("no %s activation for body %s", role, sphere.Body))
		}
		key, err := e.keys.ByNumber(gate.Number)
		if err != nil {
			return nil, core.InternalError(EngineName, err)
		}
		spheres[sphere.Name] = map[string]any{
			"description": sphere.Description,
			"body":        sphere.Body,
			"design":      sphere.Design,
			"gene_key":    key.Number,
			"line":        gate.Line,
			"shadow":      key.Shadow,
			"gift":        key.Gift,
			"siddhi":      key.Siddhi,
		}
		sequence = append(sequence, sphere.Name)
		gifts = append(gifts, key.Gift)
	}

	return core.Output{
		"spheres":     spheres,
		"sequence":    sequence,
		"prime_gifts": gifts[:min(4, len(gifts))],
		"birth_utc":   chart.BirthUTC,
		"design_jd":   chart.DesignJD,
	}, nil
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("🧬 Gene Keys Profile\n")
	spheres, _ := raw["spheres"].(map[string]any)
	sequence := core.ToStringSlice(raw["sequence"])
	for _, name := range sequence {
		entry, ok := spheres[name].(map[string]any)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n💠 %s — Gene Key %v (line %v)\n", sphereTitle(name), entry["gene_key"], entry["line"])
		fmt.Fprintf(&b, "   %v\n", entry["description"])
		fmt.Fprintf(&b, "   Shadow: %v → Gift: %v → Siddhi: %v\n", entry["shadow"], entry["gift"], entry["siddhi"])
	}
	b.WriteString("\nContemplate each sphere in sequence; the pathway from shadow to gift is walked, not forced.\n")
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{
		"Begin contemplation with your Life's Work sphere and stay with it for several weeks",
	}
	if spheres, ok := raw["spheres"].(map[string]any); ok {
		if lw, ok := spheres["life_work"].(map[string]any); ok {
			recs = append(recs, fmt.Sprintf("Watch for the %v shadow in daily reactions: it is the doorway to the %v gift", lw["shadow"], lw["gift"]))
		}
	}
	return recs
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{}
	for _, gift := range core.ToStringSlice(raw["prime_gifts"]) {
		themes = append(themes, strings.ToLower(gift))
	}
	return themes
}

func sphereTitle(name string) string {
	switch name {
	case "iq", "eq", "sq":
		return strings.ToUpper(name)
	}
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

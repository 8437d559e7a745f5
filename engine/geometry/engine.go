package geometry

import (
	"context"
	"fmt"
	"strings"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/numerology"
	"github.com/auralab/aura/engine/refdata"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the sacred-geometry engine.
const EngineName = "sacred_geometry"

// Engine selects a geometry template from the stated intention and
// generates the matching figure, personalised by birth data when given.
type Engine struct {
	templates *refdata.GeometryTemplates
}

func New(set *refdata.Set) *Engine {
	return &Engine{templates: &set.Geometry}
}

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Generates sacred-geometry patterns (mandala, Flower of Life, Sri Yantra, golden spiral, Platonic solids, Vesica Piscis) matched to an intention and personalised by birth data"
}

func (e *Engine) InputSchema() *schema.Schema {
	props := map[string]any{
		"intention": map[string]any{"type": "string", "minLength": 1},
		"pattern_type": map[string]any{
			"type": "string",
			"enum": []any{"mandala", "flower_of_life", "sri_yantra", "golden_spiral", "platonic_solid", "vesica_piscis"},
		},
		"birth_date": map[string]any{"type": "string"},
		"parameters": map[string]any{"type": "object"},
	}
	return core.InputSchema(props, "intention")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"template":        map[string]any{"type": "object"},
		"figure":          map[string]any{"type": "object"},
		"personalization": map[string]any{"type": "object"},
	})
}

func (e *Engine) Calculate(_ context.Context, input core.Input) (core.Output, error) {
	intention, _ := input["intention"].(string)
	if strings.TrimSpace(intention) == "" {
		return nil, core.InvalidInputError(EngineName, "intention", "intention is required", nil)
	}

	tmpl := e.selectTemplate(intention)
	if forced, _ := input["pattern_type"].(string); forced != "" {
		chosen, err := e.templateByName(forced)
		if err != nil {
			return nil, core.InvalidInputError(EngineName, "pattern_type", err.Error(), err)
		}
		tmpl = chosen
	}

	params := map[string]any{}
	for k, v := range tmpl.Defaults {
		params[k] = v
	}
	if overrides, ok := input["parameters"].(map[string]any); ok {
		for k, v := range overrides {
			params[k] = v
		}
	}

	personalization := map[string]any{}
	if raw, ok := input["birth_date"]; ok && raw != nil {
		birth, err := core.ParseDate(raw)
		if err != nil {
			return nil, core.InvalidInputError(EngineName, "birth_date", err.Error(), err)
		}
		lp := numerology.LifePath(birth)
		personalization["life_path"] = lp.Value
		personalization["birth_date"] = birth.Format(core.BirthDateLayout)
		if tmpl.Name == "mandala" {
			// Petal count follows the life path, floored at 3 for a
			// drawable figure.
			petals := lp.Value
			if petals > 9 {
				petals = sumDigits(petals)
			}
			if petals < 3 {
				petals += 9
			}
			params["petals"] = petals
			personalization["petals_from_life_path"] = petals
		}
	}

	fig, err := e.generate(tmpl.Name, params)
	if err != nil {
		return nil, err
	}

	out := core.Output{
		"template": map[string]any{
			"name":        tmpl.Name,
			"description": tmpl.Description,
			"intentions":  tmpl.Intentions,
			"parameters":  params,
		},
		"figure":          fig,
		"personalization": personalization,
		"intention":       intention,
	}
	if tmpl.Name == "platonic_solid" {
		name := fmt.Sprint(params["solid"])
		if solid, ok := e.templates.Platonic[name]; ok {
			out["element"] = solid.Element
			out["faces"] = solid.Faces
		}
	}
	return out, nil
}

// selectTemplate scores templates by intention keyword overlap; the
// mandala is the fallback.
func (e *Engine) selectTemplate(intention string) refdata.GeometryTemplate {
	lowered := strings.ToLower(intention)
	best := e.templates.Templates[0]
	bestScore := 0
	for _, tmpl := range e.templates.Templates {
		score := 0
		for _, kw := range tmpl.Intentions {
			if strings.Contains(lowered, kw) {
				score++
			}
		}
		if score > bestScore {
			best = tmpl
			bestScore = score
		}
	}
	return best
}

func (e *Engine) templateByName(name string) (refdata.GeometryTemplate, error) {
	for _, tmpl := range e.templates.Templates {
		if tmpl.Name == name {
			return tmpl, nil
		}
	}
	return refdata.GeometryTemplate{}, fmt.Errorf("unknown pattern type %q", name)
}

func (e *Engine) generate(name string, params map[string]any) (Figure, error) {
	center := Point{}
	num := func(key string, def float64) float64 {
		if v, ok := core.ParseAnyFloat(params[key]); ok {
			return v
		}
		return def
	}
	count := func(key string, def int) int {
		if v, ok := core.ParseAnyInt(params[key]); ok && v > 0 {
			return v
		}
		return def
	}
	switch name {
	case "mandala":
		return Mandala(center, num("radius", 1), count("petals", 12), count("layers", 4)), nil
	case "flower_of_life":
		return FlowerOfLife(center, num("unit_radius", 1), count("layers", 3)), nil
	case "sri_yantra":
		return SriYantra(center, num("size", 1)), nil
	case "golden_spiral":
		return GoldenSpiral(center, num("scale", 1), count("turns", 4)), nil
	case "platonic_solid":
		solid := fmt.Sprint(params["solid"])
		fig, err := PlatonicSolid(solid, num("scale", 1))
		if err != nil {
			return Figure{}, core.InvalidInputError(EngineName, "parameters.solid", err.Error(), err)
		}
		return fig, nil
	case "vesica_piscis":
		return VesicaPiscis(center, num("radius", 1), num("separation", 1)), nil
	default:
		return Figure{}, core.InternalError(EngineName, fmt.Errorf("no generator for template %q", name))
	}
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, input core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("🔯 Sacred Geometry Reading\n")
	tmpl, _ := raw["template"].(map[string]any)
	if tmpl != nil {
		fmt.Fprintf(&b, "Pattern: %s\n%s\n\n", tmpl["name"], tmpl["description"])
	}
	if intention, _ := raw["intention"].(string); intention != "" {
		fmt.Fprintf(&b, "🎯 Intention: %s\n", intention)
	}
	if element, ok := raw["element"].(string); ok {
		fmt.Fprintf(&b, "🌬️  Elemental resonance: %s\n", element)
	}
	if pers, ok := raw["personalization"].(map[string]any); ok {
		if lp, ok := core.ParseAnyInt(pers["life_path"]); ok {
			fmt.Fprintf(&b, "🛤️  Tuned to Life Path %d\n", lp)
		}
	}
	b.WriteString("\nMeditate on the figure daily, tracing it from the centre outward while holding your intention.\n")
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{"Place the pattern where you will see it at the start of each day"}
	if tmpl, ok := raw["template"].(map[string]any); ok {
		switch tmpl["name"] {
		case "mandala":
			recs = append(recs, "Color the mandala from centre to edge as a moving meditation")
		case "golden_spiral":
			recs = append(recs, "Trace the spiral with your eyes while breathing in a slow phi-like rhythm")
		case "vesica_piscis":
			recs = append(recs, "Contemplate the shared lens as the meeting space in your relationships")
		}
	}
	return recs
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{}
	if tmpl, ok := raw["template"].(map[string]any); ok {
		themes = append(themes, fmt.Sprintf("geometry_%s", tmpl["name"]))
		if intentions, ok := tmpl["intentions"].([]string); ok {
			themes = append(themes, intentions...)
		}
	}
	return themes
}

func sumDigits(n int) int {
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}

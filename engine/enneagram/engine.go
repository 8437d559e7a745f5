// Package enneagram implements the Enneagram engine: type resolution
// from questionnaire scores or a birth-data heuristic, with wing, arrow,
// and instinct analysis.
package enneagram

import (
	"context"
	"fmt"
	"strings"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/numerology"
	"github.com/auralab/aura/engine/refdata"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the Enneagram engine.
const EngineName = "enneagram"

// Engine resolves Enneagram types.
type Engine struct {
	table *refdata.EnneagramTable
}

func New(set *refdata.Set) *Engine {
	return &Engine{table: &set.Enneagram}
}

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Determines the Enneagram type from questionnaire scores or a birth-date heuristic, with wing, integration/disintegration arrows, and instinctual variant"
}

func (e *Engine) InputSchema() *schema.Schema {
	props := map[string]any{
		"type_scores": map[string]any{
			"type":        "object",
			"description": "Questionnaire scores keyed by type number 1-9",
		},
		"known_type": map[string]any{"type": "integer", "minimum": 1, "maximum": 9},
		"birth_date": map[string]any{"type": "string"},
		"instinct": map[string]any{
			"type": "string",
			"enum": []any{"sp", "so", "sx"},
		},
	}
	return core.InputSchema(props)
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"type":           map[string]any{"type": "object"},
		"wing":           map[string]any{"type": "object"},
		"arrows":         map[string]any{"type": "object"},
		"instinct":       map[string]any{"type": "object"},
		"determined_by":  map[string]any{"type": "string"},
		"tritype_center": map[string]any{"type": "string"},
	})
}

func (e *Engine) Calculate(_ context.Context, input core.Input) (core.Output, error) {
	typeNumber, wingNumber, method, err := e.resolveType(input)
	if err != nil {
		return nil, err
	}
	primary, err := e.table.ByNumber(typeNumber)
	if err != nil {
		return nil, core.InternalError(EngineName, err)
	}
	if wingNumber == 0 {
		wingNumber = primary.Wings[0]
	}
	wing, err := e.table.ByNumber(wingNumber)
	if err != nil {
		return nil, core.InternalError(EngineName, err)
	}
	integration, err := e.table.ByNumber(primary.Integration)
	if err != nil {
		return nil, core.InternalError(EngineName, err)
	}
	disintegration, err := e.table.ByNumber(primary.Disintegration)
	if err != nil {
		return nil, core.InternalError(EngineName, err)
	}

	instinctCode, _ := input["instinct"].(string)
	if instinctCode == "" {
		instinctCode = "sp"
	}
	var instinct refdata.EnneagramInstinct
	found := false
	for _, i := range e.table.Instincts {
		if i.Code == instinctCode {
			instinct = i
			found = true
		}
	}
	if !found {
		return nil, core.InvalidInputError(EngineName, "instinct",
			fmt.Sprintf("unknown instinct %q", instinctCode), nil)
	}

	return core.Output{
		"type": map[string]any{
			"number":       primary.Number,
			"name":         primary.Name,
			"center":       primary.Center,
			"basic_fear":   primary.BasicFear,
			"basic_desire": primary.BasicDesire,
			"keywords":     primary.Keywords,
		},
		"wing": map[string]any{
			"number":   wing.Number,
			"name":     wing.Name,
			"notation": fmt.Sprintf("%dw%d", primary.Number, wing.Number),
		},
		"arrows": map[string]any{
			"integration": map[string]any{
				"number": integration.Number,
				"name":   integration.Name,
			},
			"disintegration": map[string]any{
				"number": disintegration.Number,
				"name":   disintegration.Name,
			},
		},
		"instinct": map[string]any{
			"code":  instinct.Code,
			"name":  instinct.Name,
			"focus": instinct.Focus,
		},
		"determined_by":  method,
		"tritype_center": primary.Center,
	}, nil
}

// resolveType picks the type from, in priority order: an explicitly
// known type, the highest questionnaire score, or the birth-date
// heuristic (life path folded into 1..9).
func (e *Engine) resolveType(input core.Input) (typeNumber, wing int, method string, err error) {
	if raw, ok := input["known_type"]; ok && raw != nil {
		n, ok := core.ParseAnyInt(raw)
		if !ok || n < 1 || n > 9 {
			return 0, 0, "", core.InvalidInputError(EngineName, "known_type", "must be an integer in [1, 9]", nil)
		}
		return n, 0, "self_reported", nil
	}
	if scores, ok := input["type_scores"].(map[string]any); ok && len(scores) > 0 {
		best, bestScore := 0, -1.0
		for key, raw := range scores {
			n, ok := core.ParseAnyInt(key)
			if !ok || n < 1 || n > 9 {
				return 0, 0, "", core.InvalidInputError(EngineName, "type_scores",
					fmt.Sprintf("score key %q is not a type number", key), nil)
			}
			score, ok := core.ParseAnyFloat(raw)
			if !ok {
				return 0, 0, "", core.InvalidInputError(EngineName, "type_scores",
					fmt.Sprintf("score for type %d is not numeric", n), nil)
			}
			// Ties break toward the lower type number.
			if score > bestScore || (score == bestScore && n < best) {
				best, bestScore = n, score
			}
		}
		wing := e.wingFromScores(best, scores)
		return best, wing, "questionnaire", nil
	}
	if raw, ok := input["birth_date"]; ok && raw != nil {
		birth, err := core.ParseDate(raw)
		if err != nil {
			return 0, 0, "", core.InvalidInputError(EngineName, "birth_date", err.Error(), err)
		}
		lp := numerology.LifePath(birth)
		n := lp.Value
		for n > 9 {
			n = numerology.Reduce(n, false).Value
		}
		return n, 0, "birth_date_heuristic", nil
	}
	return 0, 0, "", core.InvalidInputError(EngineName, "type_scores",
		"one of known_type, type_scores, or birth_date is required", nil)
}

// wingFromScores picks the higher-scoring adjacent type.
func (e *Engine) wingFromScores(typeNumber int, scores map[string]any) int {
	primary, err := e.table.ByNumber(typeNumber)
	if err != nil {
		return 0
	}
	bestWing, bestScore := 0, -1.0
	for _, w := range primary.Wings {
		score, _ := core.ParseAnyFloat(scores[fmt.Sprintf("%d", w)])
		if score > bestScore {
			bestWing, bestScore = w, score
		}
	}
	return bestWing
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("⭕ Enneagram Reading\n")
	if t, ok := raw["type"].(map[string]any); ok {
		fmt.Fprintf(&b, "Type %v — %v (%v center)\n", t["number"], t["name"], t["center"])
		fmt.Fprintf(&b, "😨 Basic fear: %v\n", t["basic_fear"])
		fmt.Fprintf(&b, "💛 Basic desire: %v\n", t["basic_desire"])
	}
	if w, ok := raw["wing"].(map[string]any); ok {
		fmt.Fprintf(&b, "🪽 Wing: %v (%v)\n", w["notation"], w["name"])
	}
	if arrows, ok := raw["arrows"].(map[string]any); ok {
		if in, ok := arrows["integration"].(map[string]any); ok {
			fmt.Fprintf(&b, "⬆️  Growth moves toward Type %v — %v\n", in["number"], in["name"])
		}
		if dis, ok := arrows["disintegration"].(map[string]any); ok {
			fmt.Fprintf(&b, "⬇️  Stress pulls toward Type %v — %v\n", dis["number"], dis["name"])
		}
	}
	if inst, ok := raw["instinct"].(map[string]any); ok {
		fmt.Fprintf(&b, "🧭 Instinct: %v — %v\n", inst["name"], inst["focus"])
	}
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{}
	if arrows, ok := raw["arrows"].(map[string]any); ok {
		if in, ok := arrows["integration"].(map[string]any); ok {
			recs = append(recs, fmt.Sprintf("In growth, borrow the healthy habits of Type %v consciously", in["number"]))
		}
		if dis, ok := arrows["disintegration"].(map[string]any); ok {
			recs = append(recs, fmt.Sprintf("Under stress, watch for Type %v patterns surfacing unbidden", dis["number"]))
		}
	}
	if method, _ := raw["determined_by"].(string); method == "birth_date_heuristic" {
		recs = append(recs, "Confirm this heuristic typing with an assessment; birth-date typing is a starting hypothesis only")
	}
	return recs
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{}
	if t, ok := raw["type"].(map[string]any); ok {
		themes = append(themes, fmt.Sprintf("type_%v", t["number"]))
		if keywords, ok := t["keywords"].([]string); ok {
			themes = append(themes, keywords...)
		}
	}
	return themes
}

func (e *Engine) Confidence(raw core.Output, _ core.Input) float64 {
	switch raw["determined_by"] {
	case "self_reported":
		return 1.0
	case "questionnaire":
		return 0.9
	default:
		return 0.5
	}
}

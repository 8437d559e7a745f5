package numerology

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the numerology engine.
const EngineName = "numerology"

var numberMeanings = map[int]string{
	1: "leadership, independence, new beginnings",
	2: "partnership, diplomacy, balance",
	3: "creativity, communication, expression",
	4: "structure, stability, diligent work",
	5: "freedom, change, adventure",
	6: "nurturing, responsibility, harmony",
	7: "introspection, analysis, spirituality",
	8: "power, abundance, material mastery",
	9: "completion, compassion, universal love",

	11: "intuition, illumination, spiritual insight",
	22: "the master builder, large-scale manifestation",
	33: "the master teacher, selfless service",
	44: "the master healer, disciplined power",
}

// Engine computes the core numerology chart from a full birth name and
// birth date.
type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Calculates Life Path, Expression, Soul Urge, Personality, Maturity, and Personal Year numbers with master-number and karmic-debt detection"
}

func (e *Engine) InputSchema() *schema.Schema {
	props := map[string]any{
		"full_name":  map[string]any{"type": "string", "minLength": 1},
		"birth_date": map[string]any{"type": "string"},
		"system": map[string]any{
			"type": "string",
			"enum": []any{"pythagorean", "chaldean"},
		},
		"current_year": map[string]any{"type": "integer", "minimum": 1, "maximum": 9999},
	}
	return core.InputSchema(props, "full_name", "birth_date")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"life_path":      map[string]any{"type": "integer"},
		"expression":     map[string]any{"type": "integer"},
		"soul_urge":      map[string]any{"type": "integer"},
		"personality":    map[string]any{"type": "integer"},
		"maturity":       map[string]any{"type": "integer"},
		"personal_year":  map[string]any{"type": "integer"},
		"bridges":        map[string]any{"type": "object"},
		"master_numbers": map[string]any{"type": "array"},
		"karmic_debt":    map[string]any{"type": "array"},
		"name_analysis":  map[string]any{"type": "object"},
	})
}

func (e *Engine) Calculate(_ context.Context, input core.Input) (core.Output, error) {
	fullName, _ := input["full_name"].(string)
	if strings.TrimSpace(fullName) == "" {
		return nil, core.InvalidInputError(EngineName, "full_name", "full_name is required", nil)
	}
	birth, err := core.DecodeBirthData(input, EngineName, false)
	if err != nil {
		return nil, err
	}
	systemRaw, _ := input["system"].(string)
	system, err := ParseSystem(systemRaw)
	if err != nil {
		return nil, core.InvalidInputError(EngineName, "system", err.Error(), err)
	}
	currentYear := time.Now().UTC().Year()
	if raw, ok := input["current_year"]; ok && raw != nil {
		year, ok := core.ParseAnyInt(raw)
		if !ok || year < 1 {
			return nil, core.InvalidInputError(EngineName, "current_year", "must be a positive integer", nil)
		}
		currentYear = year
	}

	lifePath := LifePath(birth.Date)
	expression := Expression(fullName, system)
	soulUrge := SoulUrge(fullName, system)
	personality := Personality(fullName, system)
	maturity := Maturity(lifePath.Value, expression.Value)
	personalYear := PersonalYear(birth.Date, currentYear)

	masters := []int{}
	karmic := []int{}
	for _, r := range []Reduction{lifePath, expression, soulUrge, personality, maturity} {
		if r.Master {
			masters = append(masters, r.Value)
		}
		if r.KarmicDebt != 0 {
			karmic = append(karmic, r.KarmicDebt)
		}
	}

	parts := SplitName(fullName)
	return core.Output{
		"life_path":     lifePath.Value,
		"expression":    expression.Value,
		"soul_urge":     soulUrge.Value,
		"personality":   personality.Value,
		"maturity":      maturity.Value,
		"personal_year": personalYear.Value,
		"bridges": map[string]any{
			"life_expression_bridge":  Bridge(lifePath.Value, expression.Value),
			"soul_personality_bridge": Bridge(soulUrge.Value, personality.Value),
		},
		"master_numbers": masters,
		"karmic_debt":    karmic,
		"name_analysis": map[string]any{
			"full_name":       fullName,
			"system":          string(system),
			"letter_count":    len(parts.Letters),
			"vowel_count":     len(parts.Vowels),
			"consonant_count": len(parts.Consonants),
			"reductions": map[string]any{
				"life_path":   lifePath,
				"expression":  expression,
				"soul_urge":   soulUrge,
				"personality": personality,
			},
		},
		"target_year": currentYear,
	}, nil
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, input core.Input) (string, error) {
	name, _ := input["full_name"].(string)
	var b strings.Builder
	b.WriteString("🔢 Numerology Reading\n")
	fmt.Fprintf(&b, "━━━ %s ━━━\n\n", name)
	writeNumberLine(&b, "🛤️  Life Path", raw["life_path"])
	writeNumberLine(&b, "🎯 Expression", raw["expression"])
	writeNumberLine(&b, "💖 Soul Urge", raw["soul_urge"])
	writeNumberLine(&b, "🎭 Personality", raw["personality"])
	writeNumberLine(&b, "🌳 Maturity", raw["maturity"])
	writeNumberLine(&b, "📅 Personal Year", raw["personal_year"])
	if masters := core.ToIntSlice(raw["master_numbers"]); len(masters) > 0 {
		fmt.Fprintf(&b, "\n✨ Master numbers present: %s — amplified spiritual potential\n", joinInts(masters))
	}
	if debts := core.ToIntSlice(raw["karmic_debt"]); len(debts) > 0 {
		fmt.Fprintf(&b, "⚖️  Karmic debt numbers: %s — lessons carried forward\n", joinInts(debts))
	}
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{}
	if lp, ok := core.ParseAnyInt(raw["life_path"]); ok {
		recs = append(recs, fmt.Sprintf("Align major decisions with your Life Path %d themes: %s", lp, numberMeanings[lp]))
	}
	if py, ok := core.ParseAnyInt(raw["personal_year"]); ok {
		recs = append(recs, fmt.Sprintf("This Personal Year %d favors %s", py, numberMeanings[py]))
	}
	if debts := core.ToIntSlice(raw["karmic_debt"]); len(debts) > 0 {
		recs = append(recs, "Work consciously with your karmic debt lessons rather than repeating old patterns")
	}
	return recs
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{}
	if lp, ok := core.ParseAnyInt(raw["life_path"]); ok {
		themes = append(themes, fmt.Sprintf("life_path_%d", lp))
	}
	for _, m := range core.ToIntSlice(raw["master_numbers"]) {
		themes = append(themes, fmt.Sprintf("master_%d", m))
	}
	return themes
}

func writeNumberLine(b *strings.Builder, label string, v any) {
	n, ok := core.ParseAnyInt(v)
	if !ok {
		return
	}
	meaning := numberMeanings[n]
	if meaning == "" {
		meaning = "a unique vibration"
	}
	fmt.Fprintf(b, "%s: %d — %s\n", label, n, meaning)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}

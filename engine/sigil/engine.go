// Package sigil implements the sigil-forge engine: it condenses an
// intention statement into a drawable glyph description.
package sigil

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/geometry"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the sigil-forge engine.
const EngineName = "sigil_forge"

// Layout names accepted by the forge.
const (
	LayoutRadial = "radial"
	LayoutSpiral = "spiral"
	LayoutGrid   = "grid"
)

// Engine turns an intention into a sigil: condensed letters mapped to
// alphabet positions, placed on a layout, connected, and decorated.
type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Forges a personal sigil from an intention statement by condensing its letters and arranging them on a radial, spiral, or grid layout"
}

func (e *Engine) InputSchema() *schema.Schema {
	props := map[string]any{
		"intention": map[string]any{"type": "string", "minLength": 1},
		"layout": map[string]any{
			"type": "string",
			"enum": []any{LayoutRadial, LayoutSpiral, LayoutGrid},
		},
		"remove_vowels": map[string]any{"type": "boolean"},
	}
	return core.InputSchema(props, "intention")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"condensed_letters": map[string]any{"type": "array"},
		"letter_positions":  map[string]any{"type": "array"},
		"layout":            map[string]any{"type": "string"},
		"figure":            map[string]any{"type": "object"},
		"activation":        map[string]any{"type": "string"},
	})
}

func (e *Engine) Calculate(_ context.Context, input core.Input) (core.Output, error) {
	intention, _ := input["intention"].(string)
	if strings.TrimSpace(intention) == "" {
		return nil, core.InvalidInputError(EngineName, "intention", "intention is required", nil)
	}
	layout, _ := input["layout"].(string)
	if layout == "" {
		layout = LayoutRadial
	}
	switch layout {
	case LayoutRadial, LayoutSpiral, LayoutGrid:
	default:
		return nil, core.InvalidInputError(EngineName, "layout",
			fmt.Sprintf("layout must be one of %s, %s, %s", LayoutRadial, LayoutSpiral, LayoutGrid), nil)
	}
	removeVowels, _ := input["remove_vowels"].(bool)

	letters := Condense(intention, removeVowels)
	if len(letters) == 0 {
		return nil, core.InvalidInputError(EngineName, "intention", "intention contains no letters", nil)
	}
	positions := Positions(letters)
	fig := Place(positions, layout)

	return core.Output{
		"intention":         intention,
		"condensed_letters": lettersToStrings(letters),
		"letter_positions":  positions,
		"letter_count":      len(letters),
		"layout":            layout,
		"figure":            fig,
		"activation":        "Gaze at the sigil until the intention dissolves, then release it and forget the working",
	}, nil
}

// Condense drops non-letters, uppercases, removes duplicate letters
// preserving first occurrence, and optionally strips vowels.
func Condense(intention string, removeVowels bool) []rune {
	seen := map[rune]bool{}
	out := []rune{}
	for _, r := range strings.ToUpper(intention) {
		if !unicode.IsLetter(r) || r > 'Z' || r < 'A' {
			continue
		}
		if removeVowels && strings.ContainsRune("AEIOU", r) {
			continue
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// Positions maps letters to their 1-based alphabet positions.
func Positions(letters []rune) []int {
	out := make([]int, len(letters))
	for i, r := range letters {
		out[i] = int(r-'A') + 1
	}
	return out
}

// Place arranges the letter positions on the named layout, connects
// consecutive anchors with lines, and decorates with the invariant small
// circles at the centre and at the first and last anchors.
func Place(positions []int, layout string) geometry.Figure {
	fig := geometry.Figure{
		Kind: "sigil",
		Meta: map[string]any{"layout": layout, "anchors": len(positions)},
	}
	anchors := make([]geometry.Point, len(positions))
	switch layout {
	case LayoutSpiral:
		for i, p := range positions {
			theta := 2 * math.Pi * float64(i) / 8
			r := 0.2 + 0.8*float64(i)/float64(len(positions))
			anchors[i] = spin(r*scaleFor(p), theta)
		}
	case LayoutGrid:
		cols := int(math.Ceil(math.Sqrt(float64(len(positions)))))
		for i := range positions {
			row, col := i/cols, i%cols
			anchors[i] = geometry.Point{
				X: float64(col) - float64(cols-1)/2,
				Y: float64(cols-1)/2 - float64(row),
			}
		}
	default: // radial: each letter at its alphabet angle
		for i, p := range positions {
			theta := 2 * math.Pi * float64(p-1) / 26
			anchors[i] = spin(1.0, theta)
		}
	}
	fig.Points = anchors
	for i := 1; i < len(anchors); i++ {
		fig.Lines = append(fig.Lines, geometry.Line{From: anchors[i-1], To: anchors[i]})
	}
	fig.Circles = append(fig.Circles, geometry.Circle{Center: geometry.Point{}, Radius: 0.05})
	if len(anchors) > 0 {
		fig.Circles = append(fig.Circles,
			geometry.Circle{Center: anchors[0], Radius: 0.08},
			geometry.Circle{Center: anchors[len(anchors)-1], Radius: 0.08})
	}
	return fig
}

func scaleFor(position int) float64 {
	return 0.6 + 0.4*float64(position)/26
}

func spin(r, theta float64) geometry.Point {
	return geometry.Point{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

func lettersToStrings(letters []rune) []string {
	out := make([]string, len(letters))
	for i, r := range letters {
		out[i] = string(r)
	}
	return out
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("🕯️ Sigil Forge\n")
	if intention, _ := raw["intention"].(string); intention != "" {
		fmt.Fprintf(&b, "Intention: %s\n", intention)
	}
	if letters := core.ToStringSlice(raw["condensed_letters"]); len(letters) > 0 {
		fmt.Fprintf(&b, "🔤 Condensed essence: %s\n", strings.Join(letters, "·"))
	}
	fmt.Fprintf(&b, "📐 Layout: %s\n", raw["layout"])
	if activation, _ := raw["activation"].(string); activation != "" {
		fmt.Fprintf(&b, "\n✨ Activation: %s\n", activation)
	}
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	return []string{
		"Draw the sigil by hand at least once: the act of drawing is part of the charge",
		"Destroy or hide the original statement once the sigil is fixed",
	}
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{"manifestation", "will"}
	if layout, _ := raw["layout"].(string); layout != "" {
		themes = append(themes, fmt.Sprintf("sigil_%s", layout))
	}
	return themes
}

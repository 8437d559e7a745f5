// Package biofield implements the biofield-analysis engine. Like face
// reading it is consent-gated and never persists raw image bytes; the
// field metrics are derived deterministically from the image digest
// until a capture device is attached.
package biofield

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the biofield engine.
const EngineName = "biofield"

// defaultCoherence is the simulation midpoint of the coherence scale.
const defaultCoherence = 0.75

var auraColors = []struct {
	Color   string
	Meaning string
}{
	{"red", "vitality, grounding, physical drive"},
	{"orange", "creativity, emotional flow"},
	{"yellow", "intellect, confidence, clarity"},
	{"green", "healing, balance, heart opening"},
	{"blue", "communication, calm, truth"},
	{"indigo", "intuition, inner vision"},
	{"violet", "spiritual connection, transcendence"},
	{"white", "purity, integration, protection"},
}

var chakras = []struct {
	Name     string
	Sanskrit string
}{
	{"root", "Muladhara"},
	{"sacral", "Svadhisthana"},
	{"solar_plexus", "Manipura"},
	{"heart", "Anahata"},
	{"throat", "Vishuddha"},
	{"third_eye", "Ajna"},
	{"crown", "Sahasrara"},
}

// Engine derives biofield metrics from a consented aura photograph.
type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Analyses the biofield from a consented aura photograph: dominant aura colors, seven-chakra activation, coherence, and stability metrics"
}

// RequiresConsent marks this engine as biometric.
func (e *Engine) RequiresConsent() bool { return true }

func (e *Engine) InputSchema() *schema.Schema {
	props := map[string]any{
		"image_base64":     map[string]any{"type": "string", "minLength": 1},
		"include_chakras":  map[string]any{"type": "boolean"},
		"baseline_reading": map[string]any{"type": "string"},
	}
	return core.InputSchema(props, "image_base64")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"aura_colors":     map[string]any{"type": "array"},
		"chakras":         map[string]any{"type": "object"},
		"field_coherence": map[string]any{"type": "number"},
		"field_stability": map[string]any{"type": "number"},
		"field_radius":    map[string]any{"type": "number"},
		"image_digest":    map[string]any{"type": "string"},
		"simulation":      map[string]any{"type": "boolean"},
	})
}

func (e *Engine) Calculate(_ context.Context, input core.Input) (core.Output, error) {
	encoded, _ := input["image_base64"].(string)
	if strings.TrimSpace(encoded) == "" {
		return nil, core.InvalidInputError(EngineName, "image_base64", "image_base64 is required", nil)
	}
	imageBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, core.InvalidInputError(EngineName, "image_base64", "not valid base64", err)
	}
	if len(imageBytes) < 64 {
		return nil, core.InvalidInputError(EngineName, "image_base64", "image too small to analyse", nil)
	}
	includeChakras := true
	if v, ok := input["include_chakras"].(bool); ok {
		includeChakras = v
	}

	digest := sha256.Sum256(imageBytes)
	pick := func(i, n int) int {
		v := binary.BigEndian.Uint16([]byte{digest[(2*i)%32], digest[(2*i+1)%32]})
		return int(v) % n
	}
	frac := func(i int) float64 {
		return float64(pick(i, 1000)) / 1000
	}

	primary := auraColors[pick(0, len(auraColors))]
	secondary := auraColors[(pick(0, len(auraColors))+1+pick(1, len(auraColors)-1))%len(auraColors)]
	colors := []map[string]any{
		{"color": primary.Color, "meaning": primary.Meaning, "prominence": 0.5 + frac(2)/2},
		{"color": secondary.Color, "meaning": secondary.Meaning, "prominence": frac(3) / 2},
	}

	// Metrics hover around the simulation midpoint.
	coherence := clamp01(defaultCoherence + (frac(4)-0.5)*0.4)
	stability := clamp01(defaultCoherence + (frac(5)-0.5)*0.5)

	out := core.Output{
		"aura_colors":     colors,
		"field_coherence": round3(coherence),
		"field_stability": round3(stability),
		"field_radius":    round3(0.5 + frac(6)*1.5),
		"image_digest":    fmt.Sprintf("%x", digest),
		"simulation":      true,
	}
	if includeChakras {
		chakraOut := map[string]any{}
		lowest, lowestActivation := "", 2.0
		for i, c := range chakras {
			activation := clamp01(0.3 + frac(7+i)*0.7)
			chakraOut[c.Name] = map[string]any{
				"sanskrit":   c.Sanskrit,
				"activation": round3(activation),
				"balanced":   activation >= 0.5,
			}
			if activation < lowestActivation {
				lowest, lowestActivation = c.Name, activation
			}
		}
		out["chakras"] = chakraOut
		out["weakest_chakra"] = lowest
	}
	return out, nil
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("✨ Biofield Analysis\n")
	if colors, ok := raw["aura_colors"].([]map[string]any); ok && len(colors) > 0 {
		fmt.Fprintf(&b, "🌈 Primary aura: %v — %v\n", colors[0]["color"], colors[0]["meaning"])
		if len(colors) > 1 {
			fmt.Fprintf(&b, "   Secondary: %v — %v\n", colors[1]["color"], colors[1]["meaning"])
		}
	}
	if coherence, ok := core.ParseAnyFloat(raw["field_coherence"]); ok {
		fmt.Fprintf(&b, "🧿 Field coherence: %.0f%%\n", coherence*100)
	}
	if stability, ok := core.ParseAnyFloat(raw["field_stability"]); ok {
		fmt.Fprintf(&b, "⚖️  Field stability: %.0f%%\n", stability*100)
	}
	if chakraMap, ok := raw["chakras"].(map[string]any); ok {
		b.WriteString("\nChakra activation:\n")
		names := make([]string, 0, len(chakraMap))
		for name := range chakraMap {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			c, ok := chakraMap[name].(map[string]any)
			if !ok {
				continue
			}
			activation, _ := core.ParseAnyFloat(c["activation"])
			fmt.Fprintf(&b, "  %s (%v): %.0f%%\n", name, c["sanskrit"], activation*100)
		}
	}
	b.WriteString("\n🔒 The photograph was analysed in memory and discarded; only field metrics are kept.\n")
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{}
	if coherence, ok := core.ParseAnyFloat(raw["field_coherence"]); ok && coherence < 0.6 {
		recs = append(recs, "Field coherence is low: prioritise sleep, hydration, and time away from screens")
	}
	if weakest, _ := raw["weakest_chakra"].(string); weakest != "" {
		recs = append(recs, fmt.Sprintf("Give focused attention to your %s chakra this week", strings.ReplaceAll(weakest, "_", " ")))
	}
	if len(recs) == 0 {
		recs = append(recs, "Your field reads well balanced; maintain your current practices")
	}
	return recs
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{}
	if colors, ok := raw["aura_colors"].([]map[string]any); ok {
		for _, c := range colors {
			if name, ok := c["color"].(string); ok {
				themes = append(themes, "aura_"+name)
			}
		}
	}
	return themes
}

// Confidence is capped while the engine runs in simulation.
func (e *Engine) Confidence(raw core.Output, _ core.Input) float64 {
	if sim, _ := raw["simulation"].(bool); sim {
		return 0.55
	}
	return 0.8
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}

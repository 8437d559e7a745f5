// Package facereading implements the face-reading engine (Mien Shiang).
// It is consent-gated: raw image bytes never leave Calculate, only
// derived features appear in the output.
package facereading

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the face-reading engine.
const EngineName = "face_reading"

// The five elemental face archetypes of Mien Shiang.
var faceShapes = []struct {
	Shape   string
	Element string
	Traits  []string
}{
	{"oval", "water", []string{"adaptable", "reflective", "deep-feeling"}},
	{"round", "earth", []string{"nurturing", "steady", "community-minded"}},
	{"square", "metal", []string{"disciplined", "precise", "principled"}},
	{"oblong", "wood", []string{"ambitious", "visionary", "driven"}},
	{"heart", "fire", []string{"charismatic", "expressive", "passionate"}},
}

// The three horizontal zones read in order.
var zones = []struct {
	Name   string
	Domain string
}{
	{"upper", "intellect and early life"},
	{"middle", "will and adult years"},
	{"lower", "instinct and later life"},
}

var featureNames = []string{"forehead", "eyebrows", "eyes", "nose", "mouth", "chin", "ears"}

var featureQualities = []string{"broad", "refined", "prominent", "soft", "angular", "balanced"}

// Engine derives Mien Shiang features. Without a vision model attached
// it runs in simulation: features are derived deterministically from the
// image digest so repeat readings of the same image agree.
type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Reads facial features in the Mien Shiang tradition: elemental face shape, three-zone analysis, and per-feature qualities derived from a consented photograph"
}

// RequiresConsent marks this engine as biometric: without explicit
// data-processing consent the orchestrator refuses the run.
func (e *Engine) RequiresConsent() bool { return true }

func (e *Engine) InputSchema() *schema.Schema {
	props := map[string]any{
		"image_base64": map[string]any{"type": "string", "minLength": 1},
		"analysis_focus": map[string]any{
			"type": "string",
			"enum": []any{"general", "career", "relationships", "health"},
		},
	}
	return core.InputSchema(props, "image_base64")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"face_shape": map[string]any{"type": "object"},
		"zones":      map[string]any{"type": "object"},
		"features":   map[string]any{"type": "object"},
		"image_digest": map[string]any{
			"type":        "string",
			"description": "SHA-256 of the submitted image; the image itself is never stored",
		},
		"simulation": map[string]any{"type": "boolean"},
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
	focus, _ := input["analysis_focus"].(string)
	if focus == "" {
		focus = "general"
	}

	// Derived features only from here on. The digest is the sole trace
	// of the submitted image.
	digest := sha256.Sum256(imageBytes)
	draw := newDigestDrawer(digest)

	shape := faceShapes[draw.pick(len(faceShapes))]
	zoneOut := map[string]any{}
	dominantZone := zones[draw.pick(len(zones))].Name
	for _, z := range zones {
		strength := 0.5 + float64(draw.pick(50))/100
		if z.Name == dominantZone {
			strength = 0.8 + float64(draw.pick(20))/100
		}
		zoneOut[z.Name] = map[string]any{
			"domain":   z.Domain,
			"strength": strength,
			"dominant": z.Name == dominantZone,
		}
	}
	features := map[string]any{}
	for _, name := range featureNames {
		features[name] = featureQualities[draw.pick(len(featureQualities))]
	}

	return core.Output{
		"face_shape": map[string]any{
			"shape":   shape.Shape,
			"element": shape.Element,
			"traits":  shape.Traits,
		},
		"zones":          zoneOut,
		"features":       features,
		"dominant_zone":  dominantZone,
		"analysis_focus": focus,
		"image_digest":   fmt.Sprintf("%x", digest),
		"simulation":     true,
	}, nil
}

// digestDrawer deals successive bytes of the digest as bounded picks.
type digestDrawer struct {
	digest [32]byte
	cursor int
}

func newDigestDrawer(digest [32]byte) *digestDrawer {
	return &digestDrawer{digest: digest}
}

func (d *digestDrawer) pick(n int) int {
	v := binary.BigEndian.Uint16([]byte{d.digest[d.cursor%32], d.digest[(d.cursor+1)%32]})
	d.cursor += 2
	return int(v) % n
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("👤 Face Reading (Mien Shiang)\n")
	if shape, ok := raw["face_shape"].(map[string]any); ok {
		fmt.Fprintf(&b, "Face shape: %v — %v element\n", shape["shape"], shape["element"])
		if traits, ok := shape["traits"].([]string); ok {
			fmt.Fprintf(&b, "Essence: %s\n", strings.Join(traits, ", "))
		}
	}
	if zones, ok := raw["zones"].(map[string]any); ok {
		b.WriteString("\nThree zones:\n")
		for _, name := range []string{"upper", "middle", "lower"} {
			z, ok := zones[name].(map[string]any)
			if !ok {
				continue
			}
			marker := ""
			if dominant, _ := z["dominant"].(bool); dominant {
				marker = " ⭐"
			}
			fmt.Fprintf(&b, "  %s — %v%s\n", name, z["domain"], marker)
		}
	}
	b.WriteString("\n🔒 Your photograph was analysed in memory and discarded; only derived features are kept.\n")
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{}
	if zone, _ := raw["dominant_zone"].(string); zone != "" {
		for _, z := range zones {
			if z.Name == zone {
				recs = append(recs, fmt.Sprintf("Your dominant %s zone points to strength in %s; build on it deliberately", z.Name, z.Domain))
			}
		}
	}
	return recs
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{}
	if shape, ok := raw["face_shape"].(map[string]any); ok {
		if element, ok := shape["element"].(string); ok {
			themes = append(themes, "element_"+element)
		}
	}
	return themes
}

// Confidence is capped while the engine runs in simulation.
func (e *Engine) Confidence(raw core.Output, _ core.Input) float64 {
	if sim, _ := raw["simulation"].(bool); sim {
		return 0.6
	}
	return 0.85
}

// Package synthesis folds the outputs of several engines into one
// cross-engine document: shared numbers, archetypal resonance, temporal
// and energy correlations, unified themes, a field signature, and
// reality patches. It is a pure function over the output map and never
// calls engines.
package synthesis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/auralab/aura/engine/core"
	"github.com/tidwall/gjson"
)

// defaultCoherence stands in for engines that do not report their own
// field coherence.
const defaultCoherence = 0.75

// Options tunes a synthesis pass. A nil or zero Options synthesizes
// everything.
type Options struct {
	// Themes restricts the unified-theme scan to the named themes.
	// Empty means all.
	Themes []string
}

var archetypeBags = map[string][]string{
	"leadership":     {"manifestor", "emperor", "mars", "authority", "pioneer"},
	"intuition":      {"high priestess", "moon", "spleen", "intuitive", "psychic"},
	"transformation": {"death", "tower", "shadow", "phoenix", "rebirth", "disintegration"},
	"communication":  {"magician", "mercury", "throat", "messenger", "expression"},
	"nurturing":      {"empress", "venus", "caregiver", "heart", "compassion"},
	"wisdom":         {"hermit", "jupiter", "sage", "crown", "siddhi"},
	"discipline":     {"saturn", "hierophant", "root", "structure", "mastery"},
	"creativity":     {"sacral", "creative", "artist", "generator", "wands"},
}

var themeBags = map[string][]string{
	"purpose":       {"purpose", "mission", "life_path", "incarnation", "dharma", "calling"},
	"relationships": {"relationship", "partner", "love", "connection", "harmony", "venus"},
	"career":        {"career", "work", "achievement", "ambition", "success", "recognition"},
	"growth":        {"growth", "evolution", "expansion", "learning", "gift", "integration"},
	"challenges":    {"challenge", "shadow", "obstacle", "tension", "blocked", "fear"},
	"gifts":         {"gift", "talent", "strength", "siddhi", "blessing", "genius"},
}

// numberSignificance resolves the significance line for a repeated
// number. Master-number families share their root meaning.
func numberSignificance(n float64) string {
	switch n {
	case 1, 11, 111:
		return "New beginnings, leadership, manifestation"
	case 2, 22, 222:
		return "Partnership, cooperation, balance"
	case 3, 33, 333:
		return "Creativity, communication, expression"
	default:
		return fmt.Sprintf("Numerical resonance: %s", formatNumber(n))
	}
}

// Synthesize produces the cross-engine synthesis document for one
// request's outputs.
func Synthesize(outputs map[string]core.Output, opts Options) core.Output {
	texts := stringify(outputs)

	patterns, frequencies := numericalPatterns(outputs)
	coherence, stability := fieldMetrics(outputs)

	doc := core.Output{
		"engines_synthesized":  sortedKeys(outputs),
		"numerical_patterns":   patterns,
		"archetypal_resonance": archetypalResonance(texts),
		"correlations": map[string]any{
			"temporal": temporalCorrelations(outputs),
			"energy":   energyCorrelations(outputs),
		},
		"unified_themes":  unifiedThemes(texts, opts.Themes),
		"field_signature": fieldSignature(coherence, frequencies, len(outputs)),
		"reality_patches": realityPatches(coherence, stability),
	}
	return doc
}

// stringify lowercases each engine's raw output as JSON text for
// keyword scans.
func stringify(outputs map[string]core.Output) map[string]string {
	texts := make(map[string]string, len(outputs))
	for name, out := range outputs {
		raw, err := json.Marshal(out)
		if err != nil {
			continue
		}
		texts[name] = strings.ToLower(string(raw))
	}
	return texts
}

// numericalPatterns walks every output's numeric leaves and reports
// numbers seen by two or more engines. The second return value is the
// total frequency per number, used for the dominant frequency.
func numericalPatterns(outputs map[string]core.Output) ([]map[string]any, map[float64]int) {
	sources := map[float64]map[string]int{}
	for name, out := range outputs {
		raw, err := json.Marshal(out)
		if err != nil {
			continue
		}
		collectNumbers(gjson.ParseBytes(raw), name, sources)
	}

	frequencies := make(map[float64]int, len(sources))
	patterns := []map[string]any{}
	for n, perEngine := range sources {
		total := 0
		engines := make([]string, 0, len(perEngine))
		for engine, count := range perEngine {
			total += count
			engines = append(engines, engine)
		}
		frequencies[n] = total
		if len(perEngine) < 2 {
			continue
		}
		sort.Strings(engines)
		patterns = append(patterns, map[string]any{
			"number":       n,
			"frequency":    total,
			"engines":      engines,
			"significance": numberSignificance(n),
		})
	}
	sort.Slice(patterns, func(i, j int) bool {
		fi := patterns[i]["frequency"].(int)
		fj := patterns[j]["frequency"].(int)
		if fi != fj {
			return fi > fj
		}
		return patterns[i]["number"].(float64) < patterns[j]["number"].(float64)
	})
	return patterns, frequencies
}

func collectNumbers(value gjson.Result, engine string, sources map[float64]map[string]int) {
	switch {
	case value.IsObject() || value.IsArray():
		value.ForEach(func(_, child gjson.Result) bool {
			collectNumbers(child, engine, sources)
			return true
		})
	case value.Type == gjson.Number:
		n := value.Num
		if sources[n] == nil {
			sources[n] = map[string]int{}
		}
		sources[n][engine]++
	}
}

// archetypalResonance reports each archetype whose keyword bag touches
// the stringified output of two or more engines.
func archetypalResonance(texts map[string]string) []map[string]any {
	resonance := []map[string]any{}
	for _, archetype := range sortedKeys(archetypeBags) {
		engines := []string{}
		for _, name := range sortedKeys(texts) {
			if containsAny(texts[name], archetypeBags[archetype]) {
				engines = append(engines, name)
			}
		}
		if len(engines) < 2 {
			continue
		}
		resonance = append(resonance, map[string]any{
			"archetype": archetype,
			"strength":  len(engines),
			"engines":   engines,
		})
	}
	sort.Slice(resonance, func(i, j int) bool {
		si := resonance[i]["strength"].(int)
		sj := resonance[j]["strength"].(int)
		if si != sj {
			return si > sj
		}
		return resonance[i]["archetype"].(string) < resonance[j]["archetype"].(string)
	})
	return resonance
}

// temporalCorrelations pulls rhythm and period data from the engines
// that carry it.
func temporalCorrelations(outputs map[string]core.Output) map[string]any {
	correlations := map[string]any{}
	if bio, ok := outputs["biorhythm"]; ok {
		if cycles, ok := bio["cycles"]; ok {
			correlations["biorhythm_cycles"] = cycles
		}
	}
	if vim, ok := outputs["vimshottari"]; ok {
		if current, ok := vim["current_periods"]; ok {
			correlations["dasha_periods"] = current
		}
	}
	if vc, ok := outputs["vedicclock_tcm"]; ok {
		if organ, ok := vc["organ_window"]; ok {
			correlations["organ_window"] = organ
		}
		if hora, ok := vc["hora"]; ok {
			correlations["hora"] = hora
		}
	}
	return correlations
}

// energyCorrelations pulls center, vibration, and field data from the
// engines that carry it.
func energyCorrelations(outputs map[string]core.Output) map[string]any {
	correlations := map[string]any{}
	if hd, ok := outputs["human_design"]; ok {
		if centers, ok := hd["defined_centers"]; ok {
			correlations["defined_centers"] = centers
		}
		if auth, ok := hd["authority"]; ok {
			correlations["authority"] = auth
		}
	}
	if num, ok := outputs["numerology"]; ok {
		vibrations := map[string]any{}
		for _, key := range []string{"life_path", "expression", "soul_urge"} {
			if v, ok := num[key]; ok {
				vibrations[key] = v
			}
		}
		if len(vibrations) > 0 {
			correlations["numerology_vibrations"] = vibrations
		}
	}
	if bf, ok := outputs["biofield"]; ok {
		for _, key := range []string{"field_coherence", "field_stability", "primary_color"} {
			if v, ok := bf[key]; ok {
				correlations[key] = v
			}
		}
	}
	return correlations
}

// unifiedThemes scans every engine's stringified output against the
// fixed theme bags, capturing the matched keywords as the excerpt.
func unifiedThemes(texts map[string]string, only []string) map[string]any {
	selected := sortedKeys(themeBags)
	if len(only) > 0 {
		selected = []string{}
		for _, name := range only {
			if _, ok := themeBags[name]; ok {
				selected = append(selected, name)
			}
		}
		sort.Strings(selected)
	}

	themes := map[string]any{}
	for _, theme := range selected {
		engines := []string{}
		excerpts := map[string]any{}
		for _, name := range sortedKeys(texts) {
			matched := matchingKeywords(texts[name], themeBags[theme])
			if len(matched) == 0 {
				continue
			}
			engines = append(engines, name)
			excerpts[name] = matched
		}
		themes[theme] = map[string]any{
			"present":  len(engines) > 0,
			"engines":  engines,
			"excerpts": excerpts,
		}
	}
	return themes
}

// fieldMetrics averages the per-engine coherence and stability scores,
// defaulting absent scores.
func fieldMetrics(outputs map[string]core.Output) (coherence, stability float64) {
	if len(outputs) == 0 {
		return defaultCoherence, defaultCoherence
	}
	var cSum, sSum float64
	for _, out := range outputs {
		c := defaultCoherence
		if v, ok := core.ParseAnyFloat(out["field_coherence"]); ok {
			c = v
		}
		s := defaultCoherence
		if v, ok := core.ParseAnyFloat(out["field_stability"]); ok {
			s = v
		}
		cSum += c
		sSum += s
	}
	n := float64(len(outputs))
	return cSum / n, sSum / n
}

func fieldSignature(coherence float64, frequencies map[float64]int, engineCount int) map[string]any {
	var dominant float64
	best := -1
	for n, count := range frequencies {
		if count > best || (count == best && n < dominant) {
			dominant = n
			best = count
		}
	}

	direction := "consolidation"
	if coherence >= 0.6 {
		direction = "expansion"
	}
	velocity := round3(coherence * math.Min(1, float64(engineCount)/6))

	return map[string]any{
		"field_coherence":    round3(coherence),
		"dominant_frequency": dominant,
		"evolution_vector": map[string]any{
			"direction": direction,
			"velocity":  velocity,
		},
	}
}

// realityPatches emits deterministic adjustment suggestions. Low
// coherence and low stability each add their remediation set; one
// acceleration patch is always present.
func realityPatches(coherence, stability float64) []string {
	patches := []string{}
	if coherence < 0.6 {
		patches = append(patches,
			"Coherence enhancement: 10 minutes of rhythmic breathing at 6 breaths per minute",
			"Coherence enhancement: reduce decision load until the field settles",
		)
	}
	if stability < 0.6 {
		patches = append(patches,
			"Stability enhancement: grounding practice, barefoot contact with earth",
			"Stability enhancement: fixed sleep and meal anchors for 7 days",
		)
	}
	patches = append(patches,
		"Evolution acceleration: act on the strongest synthesis theme within 48 hours")
	return patches
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func matchingKeywords(text string, keywords []string) []string {
	matched := []string{}
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

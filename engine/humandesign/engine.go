// Package humandesign implements the Human Design engine: the full
// bodygraph computed from the personality and design activation sets.
package humandesign

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/auralab/aura/engine/astro"
	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/refdata"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the Human Design engine.
const EngineName = "human_design"

var strategies = map[string]string{
	"Generator":             "To respond",
	"Manifesting Generator": "To respond, then inform",
	"Manifestor":            "To inform before acting",
	"Projector":             "To wait for the invitation",
	"Reflector":             "To wait a lunar cycle",
}

var notSelfThemes = map[string]string{
	"Generator":             "Frustration",
	"Manifesting Generator": "Frustration and anger",
	"Manifestor":            "Anger",
	"Projector":             "Bitterness",
	"Reflector":             "Disappointment",
}

// Engine computes bodygraphs.
type Engine struct {
	eph     astro.Ephemeris
	mapper  *astro.GateMapper
	centers *refdata.HDCenters
	crosses *refdata.CrossTable
	gates   *refdata.HDGates
}

func New(eph astro.Ephemeris, set *refdata.Set) *Engine {
	return &Engine{
		eph:     eph,
		mapper:  astro.NewGateMapper(&set.HDGates),
		centers: &set.HDCenters,
		crosses: &set.Crosses,
		gates:   &set.HDGates,
	}
}

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Computes the Human Design bodygraph: gate activations for thirteen bodies at birth and design, defined centers and channels, Type, Strategy, Authority, Profile, and Incarnation Cross"
}

func (e *Engine) InputSchema() *schema.Schema {
	return core.InputSchema(core.BirthDataProperties(), "birth_date", "birth_time", "birth_location")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"type":              map[string]any{"type": "string"},
		"strategy":          map[string]any{"type": "string"},
		"authority":         map[string]any{"type": "string"},
		"profile":           map[string]any{"type": "string"},
		"definition":        map[string]any{"type": "string"},
		"not_self_theme":    map[string]any{"type": "string"},
		"defined_centers":   map[string]any{"type": "array"},
		"open_centers":      map[string]any{"type": "array"},
		"defined_channels":  map[string]any{"type": "array"},
		"personality_gates": map[string]any{"type": "object"},
		"design_gates":      map[string]any{"type": "object"},
		"incarnation_cross": map[string]any{"type": "object"},
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

	active := map[int]bool{}
	for _, g := range chart.ActiveGates() {
		active[g] = true
	}

	channels := e.definedChannels(active)
	definedCenters := e.definedCenters(channels)
	openCenters := e.openCenters(definedCenters)
	hdType := e.deriveType(definedCenters, channels)
	authority := e.deriveAuthority(hdType, definedCenters)
	definition := e.deriveDefinition(definedCenters, channels)

	pSun := chart.PersonalityGate[astro.Sun]
	dSun := chart.DesignGate[astro.Sun]
	profile := fmt.Sprintf("%d/%d %s/%s",
		pSun.Line, dSun.Line,
		e.crosses.LineName(pSun.Line), e.crosses.LineName(dSun.Line))

	crossGates := []int{
		pSun.Number,
		chart.PersonalityGate[astro.Earth].Number,
		dSun.Number,
		chart.DesignGate[astro.Earth].Number,
	}
	crossOut := map[string]any{"gates": crossGates}
	if cross, err := e.crosses.ByGate(pSun.Number); err == nil {
		crossOut["name"] = cross.Name
		crossOut["theme"] = cross.Theme
	}

	return core.Output{
		"type":              hdType,
		"strategy":          strategies[hdType],
		"authority":         authority,
		"profile":           profile,
		"definition":        definition,
		"not_self_theme":    notSelfThemes[hdType],
		"defined_centers":   definedCenters,
		"open_centers":      openCenters,
		"defined_channels":  channels,
		"personality_gates": gateMap(chart.PersonalityGate),
		"design_gates":      gateMap(chart.DesignGate),
		"incarnation_cross": crossOut,
		"birth_utc":         chart.BirthUTC,
		"design_converged":  chart.DesignConverged,
	}, nil
}

// DefinedChannel is a fully activated gate pair.
type DefinedChannel struct {
	Gates   [2]int `json:"gates"`
	Name    string `json:"name"`
	Centers string `json:"centers"`
}

func (e *Engine) definedChannels(active map[int]bool) []DefinedChannel {
	out := []DefinedChannel{}
	for _, ch := range e.centers.Channels {
		if active[ch.Gates[0]] && active[ch.Gates[1]] {
			out = append(out, DefinedChannel{
				Gates: ch.Gates,
				Name:  ch.Name,
				Centers: fmt.Sprintf("%s-%s",
					e.centers.CenterOf(ch.Gates[0]), e.centers.CenterOf(ch.Gates[1])),
			})
		}
	}
	return out
}

func (e *Engine) definedCenters(channels []DefinedChannel) []string {
	defined := map[string]bool{}
	for _, ch := range channels {
		defined[e.centers.CenterOf(ch.Gates[0])] = true
		defined[e.centers.CenterOf(ch.Gates[1])] = true
	}
	out := make([]string, 0, len(defined))
	for name := range defined {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) openCenters(defined []string) []string {
	definedSet := map[string]bool{}
	for _, c := range defined {
		definedSet[c] = true
	}
	out := []string{}
	for name := range e.centers.Centers {
		if !definedSet[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// deriveType applies the classical hierarchy: Reflector with nothing
// defined, Sacral rules the Generator family, a motor reaching the
// Throat without Sacral makes a Manifestor, Projector otherwise.
func (e *Engine) deriveType(definedCenters []string, channels []DefinedChannel) string {
	if len(definedCenters) == 0 {
		return "Reflector"
	}
	definedSet := map[string]bool{}
	for _, c := range definedCenters {
		definedSet[c] = true
	}
	motorToThroat := e.motorReachesThroat(channels)
	if definedSet["Sacral"] {
		if motorToThroat {
			return "Manifesting Generator"
		}
		return "Generator"
	}
	if motorToThroat {
		return "Manifestor"
	}
	return "Projector"
}

// motorReachesThroat walks the center graph induced by the defined
// channels looking for a path from any motor to the Throat.
func (e *Engine) motorReachesThroat(channels []DefinedChannel) bool {
	adjacent := map[string][]string{}
	for _, ch := range channels {
		a := e.centers.CenterOf(ch.Gates[0])
		b := e.centers.CenterOf(ch.Gates[1])
		if a == b {
			continue
		}
		adjacent[a] = append(adjacent[a], b)
		adjacent[b] = append(adjacent[b], a)
	}
	for _, motor := range e.centers.MotorCenters {
		visited := map[string]bool{}
		queue := []string{motor}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if current == "Throat" {
				return true
			}
			if visited[current] {
				continue
			}
			visited[current] = true
			queue = append(queue, adjacent[current]...)
		}
	}
	return false
}

// deriveAuthority follows the inner-authority hierarchy.
func (e *Engine) deriveAuthority(hdType string, definedCenters []string) string {
	if hdType == "Reflector" {
		return "Lunar"
	}
	defined := map[string]bool{}
	for _, c := range definedCenters {
		defined[c] = true
	}
	switch {
	case defined["Solar Plexus"]:
		return "Emotional"
	case defined["Sacral"]:
		return "Sacral"
	case defined["Spleen"]:
		return "Splenic"
	case defined["Heart"]:
		return "Ego"
	case defined["G"]:
		return "Self-Projected"
	default:
		return "Mental"
	}
}

// deriveDefinition counts the connected components of the defined
// center graph.
func (e *Engine) deriveDefinition(definedCenters []string, channels []DefinedChannel) string {
	if len(definedCenters) == 0 {
		return "None"
	}
	adjacent := map[string][]string{}
	for _, ch := range channels {
		a := e.centers.CenterOf(ch.Gates[0])
		b := e.centers.CenterOf(ch.Gates[1])
		adjacent[a] = append(adjacent[a], b)
		adjacent[b] = append(adjacent[b], a)
	}
	visited := map[string]bool{}
	components := 0
	for _, start := range definedCenters {
		if visited[start] {
			continue
		}
		components++
		queue := []string{start}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if visited[current] {
				continue
			}
			visited[current] = true
			queue = append(queue, adjacent[current]...)
		}
	}
	switch components {
	case 1:
		return "Single"
	case 2:
		return "Split"
	case 3:
		return "Triple Split"
	default:
		return "Quadruple Split"
	}
}

func gateMap(gates map[astro.Body]astro.Gate) map[string]any {
	out := make(map[string]any, len(gates))
	for body, g := range gates {
		out[string(body)] = map[string]any{
			"gate":  g.Number,
			"line":  g.Line,
			"color": g.Color,
			"tone":  g.Tone,
			"base":  g.Base,
		}
	}
	return out
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("🔺 Human Design Bodygraph\n")
	fmt.Fprintf(&b, "Type: %v\n", raw["type"])
	fmt.Fprintf(&b, "🧭 Strategy: %v\n", raw["strategy"])
	fmt.Fprintf(&b, "⚓ Authority: %v\n", raw["authority"])
	fmt.Fprintf(&b, "👣 Profile: %v\n", raw["profile"])
	fmt.Fprintf(&b, "🔗 Definition: %v\n", raw["definition"])
	if cross, ok := raw["incarnation_cross"].(map[string]any); ok {
		if name, ok := cross["name"].(string); ok {
			fmt.Fprintf(&b, "✝️  Incarnation Cross: %s %v\n", name, cross["gates"])
		}
	}
	if defined := core.ToStringSlice(raw["defined_centers"]); len(defined) > 0 {
		fmt.Fprintf(&b, "\n🟩 Defined centers: %s\n", strings.Join(defined, ", "))
	}
	if open := core.ToStringSlice(raw["open_centers"]); len(open) > 0 {
		fmt.Fprintf(&b, "⬜ Open centers: %s\n", strings.Join(open, ", "))
	}
	if channels, ok := raw["defined_channels"].([]DefinedChannel); ok && len(channels) > 0 {
		b.WriteString("\nChannels:\n")
		for _, ch := range channels {
			fmt.Fprintf(&b, "  %d-%d %s (%s)\n", ch.Gates[0], ch.Gates[1], ch.Name, ch.Centers)
		}
	}
	if theme, ok := raw["not_self_theme"].(string); ok && theme != "" {
		fmt.Fprintf(&b, "\n⚠️  Not-self theme to watch: %s\n", theme)
	}
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{}
	if strategy, ok := raw["strategy"].(string); ok && strategy != "" {
		recs = append(recs, fmt.Sprintf("Live your strategy: %s", strings.ToLower(strategy)))
	}
	if authority, ok := raw["authority"].(string); ok && authority != "" {
		recs = append(recs, fmt.Sprintf("Make decisions through your %s authority rather than mental pressure", strings.ToLower(authority)))
	}
	if theme, ok := raw["not_self_theme"].(string); ok && theme != "" {
		recs = append(recs, fmt.Sprintf("Treat %s as a signpost that you are off strategy", strings.ToLower(theme)))
	}
	return recs
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{}
	if hdType, ok := raw["type"].(string); ok {
		themes = append(themes, strings.ToLower(strings.ReplaceAll(hdType, " ", "_")))
	}
	if profile, ok := raw["profile"].(string); ok && len(profile) >= 3 {
		themes = append(themes, "line_"+profile[:1], "line_"+profile[2:3])
	}
	return themes
}

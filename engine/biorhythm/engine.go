package biorhythm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the biorhythm engine.
const EngineName = "biorhythm"

const (
	defaultForecastDays = 7
	maxForecastDays     = 90
)

// Engine computes biorhythm snapshots, forecasts, and critical days.
type Engine struct {
	// now is stubbed in tests.
	now func() time.Time
}

func New() *Engine { return &Engine{now: time.Now} }

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Tracks the physical, emotional, and intellectual cycles with optional extended cycles, a daily forecast, and critical-day detection"
}

func (e *Engine) InputSchema() *schema.Schema {
	props := map[string]any{
		"birth_date":              map[string]any{"type": "string"},
		"target_date":             map[string]any{"type": "string"},
		"include_extended_cycles": map[string]any{"type": "boolean"},
		"forecast_days":           map[string]any{"type": "integer", "minimum": 1, "maximum": maxForecastDays},
	}
	return core.InputSchema(props, "birth_date")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"days_alive":    map[string]any{"type": "integer"},
		"target_date":   map[string]any{"type": "string"},
		"cycles":        map[string]any{"type": "object"},
		"critical_day":  map[string]any{"type": "boolean"},
		"forecast":      map[string]any{"type": "array"},
		"critical_days": map[string]any{"type": "array"},
	})
}

func (e *Engine) Calculate(_ context.Context, input core.Input) (core.Output, error) {
	birth, err := core.DecodeBirthData(input, EngineName, false)
	if err != nil {
		return nil, err
	}
	target := e.now().UTC()
	if raw, ok := input["target_date"]; ok && raw != nil {
		parsed, err := core.ParseDate(raw)
		if err != nil {
			return nil, core.InvalidInputError(EngineName, "target_date", err.Error(), err)
		}
		target = parsed
	}
	if target.Before(birth.Date) {
		return nil, core.InvalidInputError(EngineName, "target_date", "target_date precedes birth_date", nil)
	}
	forecastDays := defaultForecastDays
	if raw, ok := input["forecast_days"]; ok && raw != nil {
		days, ok := core.ParseAnyInt(raw)
		if !ok || days < 1 || days > maxForecastDays {
			return nil, core.InvalidInputError(EngineName, "forecast_days",
				fmt.Sprintf("must be an integer in [1, %d]", maxForecastDays), nil)
		}
		forecastDays = days
	}
	includeExtended, _ := input["include_extended_cycles"].(bool)

	cycles := append([]Cycle{}, CoreCycles...)
	if includeExtended {
		cycles = append(cycles, ExtendedCycles...)
	}

	daysAlive := DaysAlive(birth.Date, target)
	snapshot := cycleSnapshot(cycles, daysAlive)

	forecast := make([]map[string]any, 0, forecastDays)
	criticalDays := []string{}
	for offset := 0; offset < forecastDays; offset++ {
		day := target.AddDate(0, 0, offset)
		d := daysAlive + offset
		entry := map[string]any{
			"date":       day.Format(core.BirthDateLayout),
			"days_alive": d,
			"cycles":     cycleSnapshot(cycles, d),
		}
		if IsCriticalDay(cycles, d) {
			entry["critical_day"] = true
			criticalDays = append(criticalDays, day.Format(core.BirthDateLayout))
		} else {
			entry["critical_day"] = false
		}
		forecast = append(forecast, entry)
	}

	return core.Output{
		"days_alive":    daysAlive,
		"target_date":   target.Format(core.BirthDateLayout),
		"cycles":        snapshot,
		"critical_day":  IsCriticalDay(cycles, daysAlive),
		"forecast":      forecast,
		"critical_days": criticalDays,
		"extended":      includeExtended,
	}, nil
}

func cycleSnapshot(cycles []Cycle, daysAlive int) map[string]any {
	out := make(map[string]any, len(cycles))
	for _, c := range cycles {
		out[c.Name] = map[string]any{
			"percentage":  round2(c.Value(daysAlive)),
			"phase":       string(c.PhaseAt(daysAlive)),
			"period_days": c.Period,
		}
	}
	return out
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("🌊 Biorhythm Reading\n")
	if d, ok := core.ParseAnyInt(raw["days_alive"]); ok {
		fmt.Fprintf(&b, "Day %d of your journey — %s\n\n", d, raw["target_date"])
	}
	if cycles, ok := raw["cycles"].(map[string]any); ok {
		for _, name := range []string{"physical", "emotional", "intellectual", "intuitive", "aesthetic", "spiritual"} {
			entry, ok := cycles[name].(map[string]any)
			if !ok {
				continue
			}
			pct, _ := core.ParseAnyFloat(entry["percentage"])
			fmt.Fprintf(&b, "%s %s: %+.1f%% (%s)\n", cycleEmoji(name), capitalize(name), pct, entry["phase"])
		}
	}
	if critical, _ := raw["critical_day"].(bool); critical {
		b.WriteString("\n⚠️  Critical day: two or more cycles are crossing zero. Move deliberately.\n")
	}
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{}
	cycles, ok := raw["cycles"].(map[string]any)
	if !ok {
		return recs
	}
	for name, v := range cycles {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		switch Phase(fmt.Sprint(entry["phase"])) {
		case PhaseCritical:
			recs = append(recs, fmt.Sprintf("Your %s cycle is crossing zero: avoid high-stakes %s demands today", name, name))
		case PhasePeak:
			recs = append(recs, fmt.Sprintf("Your %s cycle is peaking: schedule demanding %s work now", name, name))
		case PhaseValley:
			recs = append(recs, fmt.Sprintf("Your %s cycle is in its valley: prioritize rest and recovery", name))
		}
	}
	if days := core.ToStringSlice(raw["critical_days"]); len(days) > 0 {
		recs = append(recs, fmt.Sprintf("Critical days ahead: %s", strings.Join(days, ", ")))
	}
	return recs
}

func (e *Engine) Confidence(raw core.Output, _ core.Input) float64 {
	// Confidence decays slightly for forecasts reaching far ahead.
	forecast, ok := raw["forecast"].([]map[string]any)
	if !ok || len(forecast) <= defaultForecastDays {
		return 1.0
	}
	return math.Max(0.8, 1.0-float64(len(forecast)-defaultForecastDays)*0.002)
}

func cycleEmoji(name string) string {
	switch name {
	case "physical":
		return "💪"
	case "emotional":
		return "💗"
	case "intellectual":
		return "🧠"
	case "intuitive":
		return "🔮"
	case "aesthetic":
		return "🎨"
	default:
		return "✨"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

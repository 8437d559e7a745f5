// Package vimshottari implements the Vimshottari dasha engine: the
// 120-year planetary period timeline anchored to the Moon nakshatra at
// birth.
package vimshottari

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/auralab/aura/engine/astro"
	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/refdata"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the Vimshottari engine.
const EngineName = "vimshottari"

// cycleYears is the full dasha cycle length.
const cycleYears = 120.0

// daysPerYear converts dasha years to calendar time.
const daysPerYear = 365.25

var lordSignifications = map[string]string{
	"ketu":    "detachment, loss, spiritual severance",
	"venus":   "comfort, love, artistry, wealth",
	"sun":     "authority, recognition, vitality",
	"moon":    "emotion, home, public life",
	"mars":    "drive, conflict, property",
	"rahu":    "obsession, foreign influence, sudden gains",
	"jupiter": "wisdom, fortune, children, expansion",
	"saturn":  "labor, discipline, delay, maturity",
	"mercury": "intellect, commerce, communication",
}

// Period is one dasha span at any nesting depth.
type Period struct {
	Lord  string    `json:"lord"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Years float64   `json:"years"`
}

// Engine computes dasha timelines.
type Engine struct {
	eph   astro.Ephemeris
	table *refdata.NakshatraTable
	now   func() time.Time
}

func New(eph astro.Ephemeris, set *refdata.Set) *Engine {
	return &Engine{eph: eph, table: &set.Nakshatra, now: time.Now}
}

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Computes the 120-year Vimshottari dasha timeline from the birth Moon nakshatra, with the current Mahadasha, Antardasha, and Pratyantardasha"
}

func (e *Engine) InputSchema() *schema.Schema {
	props := core.BirthDataProperties()
	props["target_date"] = map[string]any{"type": "string"}
	return core.InputSchema(props, "birth_date", "birth_time", "birth_location")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"moon_nakshatra":  map[string]any{"type": "object"},
		"birth_balance":   map[string]any{"type": "object"},
		"mahadashas":      map[string]any{"type": "array"},
		"current_periods": map[string]any{"type": "object"},
	})
}

func (e *Engine) Calculate(ctx context.Context, input core.Input) (core.Output, error) {
	birth, err := core.DecodeBirthData(input, EngineName, true)
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

	local, err := astro.LocalCivilTime(birth.Date, birth.Clock, birth.Timezone)
	if err != nil {
		return nil, core.InvalidInputError(EngineName, "birth_time", err.Error(), err)
	}
	birthUTC := local.UTC()
	jd := astro.JulianDay(local)
	positions, err := e.eph.PositionsAt(ctx, jd, []astro.Body{astro.Moon}, true)
	if err != nil {
		return nil, core.DependencyUnavailableError(EngineName, "ephemeris", err)
	}
	nak := astro.NakshatraAt(positions[astro.Moon].LongitudeDeg, e.table)

	balanceYears := e.table.DashaYears[nak.Lord] * (1 - nak.Fraction)
	mahadashas := e.timeline(nak.Lord, balanceYears, birthUTC)

	out := core.Output{
		"moon_nakshatra": map[string]any{
			"name":           nak.Name,
			"lord":           nak.Lord,
			"pada":           nak.Pada,
			"degrees_within": nak.DegreesWithin,
			"deity":          nak.Deity,
			"symbol":         nak.Symbol,
		},
		"birth_balance": map[string]any{
			"lord":             nak.Lord,
			"remaining_years":  round2(balanceYears),
			"elapsed_fraction": round2(nak.Fraction),
		},
		"mahadashas":  mahadashas,
		"target_date": target.Format(core.BirthDateLayout),
	}

	maha, ok := periodCovering(mahadashas, target)
	if ok {
		antars := e.Subdivide(maha)
		antar, _ := periodCovering(antars, target)
		pratyantars := e.Subdivide(antar)
		pratyantar, _ := periodCovering(pratyantars, target)
		out["current_periods"] = map[string]any{
			"mahadasha":       periodMap(maha),
			"antardasha":      periodMap(antar),
			"pratyantardasha": periodMap(pratyantar),
		}
	}
	return out, nil
}

// timeline lays out Mahadashas from the birth balance until the 120-year
// cycle from birth is covered.
func (e *Engine) timeline(startLord string, balanceYears float64, birthUTC time.Time) []Period {
	seq := e.table.DashaSeq
	startIdx := 0
	for i, lord := range seq {
		if lord == startLord {
			startIdx = i
		}
	}
	periods := []Period{}
	cursor := birthUTC
	horizon := addYears(birthUTC, cycleYears)
	years := balanceYears
	for i := 0; cursor.Before(horizon); i++ {
		lord := seq[(startIdx+i)%len(seq)]
		if i > 0 {
			years = e.table.DashaYears[lord]
		}
		end := addYears(cursor, years)
		periods = append(periods, Period{Lord: lord, Start: cursor, End: end, Years: round2(years)})
		cursor = end
	}
	return periods
}

// Subdivide nests a period into its nine proportional sub-periods,
// starting from the period's own lord. Sequence and period lengths come
// from the same nakshatra table that anchors the Mahadasha timeline, so
// lord names stay in one canonical casing.
func (e *Engine) Subdivide(p Period) []Period {
	return subdivideWith(p, e.table.DashaSeq, e.table.DashaYears)
}

func subdivideWith(p Period, seq []string, years map[string]float64) []Period {
	startIdx := 0
	for i, lord := range seq {
		if lord == p.Lord {
			startIdx = i
		}
	}
	total := p.End.Sub(p.Start)
	out := make([]Period, 0, len(seq))
	cursor := p.Start
	for i := 0; i < len(seq); i++ {
		lord := seq[(startIdx+i)%len(seq)]
		span := time.Duration(float64(total) * years[lord] / cycleYears)
		end := cursor.Add(span)
		if i == len(seq)-1 {
			end = p.End
		}
		out = append(out, Period{
			Lord:  lord,
			Start: cursor,
			End:   end,
			Years: round2(end.Sub(cursor).Hours() / 24 / daysPerYear),
		})
		cursor = end
	}
	return out
}

func periodCovering(periods []Period, at time.Time) (Period, bool) {
	for _, p := range periods {
		if !at.Before(p.Start) && at.Before(p.End) {
			return p, true
		}
	}
	return Period{}, false
}

func periodMap(p Period) map[string]any {
	return map[string]any{
		"lord":          p.Lord,
		"start":         p.Start.Format(core.BirthDateLayout),
		"end":           p.End.Format(core.BirthDateLayout),
		"years":         p.Years,
		"signification": lordSignifications[p.Lord],
	}
}

func addYears(t time.Time, years float64) time.Time {
	return t.Add(time.Duration(years * daysPerYear * 24 * float64(time.Hour)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("🌙 Vimshottari Dasha Reading\n")
	if nak, ok := raw["moon_nakshatra"].(map[string]any); ok {
		fmt.Fprintf(&b, "Moon nakshatra: %v (pada %v), ruled by %v\n", nak["name"], nak["pada"], nak["lord"])
	}
	if balance, ok := raw["birth_balance"].(map[string]any); ok {
		fmt.Fprintf(&b, "⏳ Balance at birth: %v years of the %v period remained\n",
			balance["remaining_years"], balance["lord"])
	}
	if current, ok := raw["current_periods"].(map[string]any); ok {
		b.WriteString("\nCurrent periods:\n")
		for _, level := range []string{"mahadasha", "antardasha", "pratyantardasha"} {
			p, ok := current[level].(map[string]any)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "  %s: %v (%v → %v) — %v\n",
				level, p["lord"], p["start"], p["end"], p["signification"])
		}
	}
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{}
	if current, ok := raw["current_periods"].(map[string]any); ok {
		if maha, ok := current["mahadasha"].(map[string]any); ok {
			recs = append(recs, fmt.Sprintf("Work with the themes of your %v Mahadasha: %v", maha["lord"], maha["signification"]))
		}
		if antar, ok := current["antardasha"].(map[string]any); ok {
			recs = append(recs, fmt.Sprintf("The %v Antardasha colors this phase until %v", antar["lord"], antar["end"]))
		}
	}
	return recs
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{}
	if current, ok := raw["current_periods"].(map[string]any); ok {
		if maha, ok := current["mahadasha"].(map[string]any); ok {
			themes = append(themes, fmt.Sprintf("dasha_%v", maha["lord"]))
		}
	}
	if nak, ok := raw["moon_nakshatra"].(map[string]any); ok {
		if name, ok := nak["name"].(string); ok {
			themes = append(themes, strings.ToLower(name))
		}
	}
	return themes
}

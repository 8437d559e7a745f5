// Package vedicclock implements the VedicClock-TCM engine: the vedic
// planetary hora and the Chinese organ clock read together for a target
// moment, personalised by birth data.
package vedicclock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the VedicClock-TCM engine.
const EngineName = "vedicclock_tcm"

// horaSequence is the planetary-hour order. The first hora of a day
// belongs to the day's lord; subsequent hours follow this cycle.
var horaSequence = []string{"sun", "venus", "mercury", "moon", "saturn", "jupiter", "mars"}

// dayLords indexes time.Weekday.
var dayLords = [7]string{"sun", "moon", "mars", "mercury", "jupiter", "venus", "saturn"}

var horaQualities = map[string]string{
	"sun":     "authority, vitality, visibility",
	"moon":    "nurture, rest, emotional work",
	"mars":    "courage, exertion, decisive action",
	"mercury": "communication, trade, study",
	"jupiter": "wisdom, teaching, expansion",
	"venus":   "art, pleasure, relationship",
	"saturn":  "discipline, structure, endings",
}

// organWindows is the TCM organ clock: twelve two-hour windows starting
// with the Lung window at 03:00.
var organWindows = []struct {
	StartHour int
	Organ     string
	Element   string
	Theme     string
}{
	{3, "lung", "metal", "breath, inspiration, letting in"},
	{5, "large_intestine", "metal", "release, elimination, letting go"},
	{7, "stomach", "earth", "nourishment, intake"},
	{9, "spleen", "earth", "digestion of food and thought"},
	{11, "heart", "fire", "joy, circulation, connection"},
	{13, "small_intestine", "fire", "sorting the pure from the impure"},
	{15, "bladder", "water", "storage, reserves"},
	{17, "kidney", "water", "deep vitality, will"},
	{19, "pericardium", "fire", "protection of the heart, intimacy"},
	{21, "triple_burner", "fire", "regulation, warmth distribution"},
	{23, "gallbladder", "wood", "decision, courage"},
	{1, "liver", "wood", "planning, detoxification, dreaming"},
}

// Engine reads both clocks for a moment.
type Engine struct {
	now func() time.Time
}

func New() *Engine { return &Engine{now: time.Now} }

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Reads the vedic planetary hora and the TCM organ clock for a target moment, flagging alignment with the birth day lord"
}

func (e *Engine) InputSchema() *schema.Schema {
	props := core.BirthDataProperties()
	props["target_time"] = map[string]any{
		"type":        "string",
		"description": "RFC3339 moment to read; defaults to now",
	}
	return core.InputSchema(props, "birth_date")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"hora":          map[string]any{"type": "object"},
		"organ_window":  map[string]any{"type": "object"},
		"day_lord":      map[string]any{"type": "string"},
		"birth_day_lord": map[string]any{"type": "string"},
		"alignment":     map[string]any{"type": "object"},
		"target_time":   map[string]any{"type": "string"},
	})
}

func (e *Engine) Calculate(_ context.Context, input core.Input) (core.Output, error) {
	birth, err := core.DecodeBirthData(input, EngineName, false)
	if err != nil {
		return nil, err
	}
	loc := time.UTC
	if birth.Timezone != "" {
		parsed, err := time.LoadLocation(birth.Timezone)
		if err != nil {
			return nil, core.InvalidInputError(EngineName, "timezone",
				fmt.Sprintf("unknown IANA timezone %q", birth.Timezone), err)
		}
		loc = parsed
	}

	target := e.now()
	if raw, ok := input["target_time"]; ok && raw != nil {
		s, _ := raw.(string)
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, core.InvalidInputError(EngineName, "target_time", "must be RFC3339", err)
		}
		target = parsed
	}
	local := target.In(loc)

	dayLord, hora, horaIndex := HoraAt(local)
	organ := OrganAt(local)
	birthDayLord := dayLords[birth.Date.Weekday()]

	aligned := hora == birthDayLord
	return core.Output{
		"target_time": local.Format(time.RFC3339),
		"day_lord":    dayLord,
		"hora": map[string]any{
			"lord":    hora,
			"index":   horaIndex,
			"quality": horaQualities[hora],
		},
		"organ_window": map[string]any{
			"organ":      organ.Organ,
			"element":    organ.Element,
			"theme":      organ.Theme,
			"start_hour": organ.StartHour,
			"end_hour":   (organ.StartHour + 2) % 24,
		},
		"birth_day_lord": birthDayLord,
		"alignment": map[string]any{
			"hora_matches_birth_lord": aligned,
			"note":                    alignmentNote(aligned, hora),
		},
	}, nil
}

// HoraAt returns the day lord, the ruling hora lord, and the hora index
// for a local moment. The vedic day runs sunrise to sunrise; this reads
// the clock against a fixed 06:00 sunrise, the convention used when no
// ephemeris-grade sunrise is needed.
func HoraAt(local time.Time) (dayLord, horaLord string, horaIndex int) {
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 6, 0, 0, 0, local.Location())
	if local.Before(dayStart) {
		dayStart = dayStart.AddDate(0, 0, -1)
	}
	horaIndex = int(local.Sub(dayStart).Hours())
	dayLord = dayLords[dayStart.Weekday()]
	start := 0
	for i, lord := range horaSequence {
		if lord == dayLord {
			start = i
		}
	}
	horaLord = horaSequence[(start+horaIndex)%len(horaSequence)]
	return dayLord, horaLord, horaIndex
}

// OrganAt returns the TCM organ window covering a local moment.
func OrganAt(local time.Time) struct {
	StartHour int
	Organ     string
	Element   string
	Theme     string
} {
	hour := local.Hour()
	for _, w := range organWindows {
		end := (w.StartHour + 2) % 24
		if w.StartHour < end {
			if hour >= w.StartHour && hour < end {
				return w
			}
		} else if hour >= w.StartHour || hour < end {
			return w
		}
	}
	return organWindows[0]
}

func alignmentNote(aligned bool, hora string) string {
	if aligned {
		return fmt.Sprintf("The current %s hora echoes your birth day lord: actions begun now carry your native signature", hora)
	}
	return "The current hora differs from your birth day lord: adapt your pace to the hour rather than forcing your own"
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("🕉️ VedicClock-TCM Reading\n")
	fmt.Fprintf(&b, "Moment: %v\n\n", raw["target_time"])
	if hora, ok := raw["hora"].(map[string]any); ok {
		fmt.Fprintf(&b, "🪐 Hora: %v — %v\n", hora["lord"], hora["quality"])
	}
	fmt.Fprintf(&b, "📅 Day lord: %v\n", raw["day_lord"])
	if organ, ok := raw["organ_window"].(map[string]any); ok {
		fmt.Fprintf(&b, "🫁 Organ window: %v (%v) %02d:00-%02d:00 — %v\n",
			organ["organ"], organ["element"], organ["start_hour"], organ["end_hour"], organ["theme"])
	}
	if alignment, ok := raw["alignment"].(map[string]any); ok {
		fmt.Fprintf(&b, "\n%v\n", alignment["note"])
	}
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{}
	if hora, ok := raw["hora"].(map[string]any); ok {
		recs = append(recs, fmt.Sprintf("Favor activities of %v during this hora", hora["quality"]))
	}
	if organ, ok := raw["organ_window"].(map[string]any); ok {
		recs = append(recs, fmt.Sprintf("Support your %v now: %v", organ["organ"], organ["theme"]))
	}
	return recs
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{}
	if hora, ok := raw["hora"].(map[string]any); ok {
		themes = append(themes, fmt.Sprintf("hora_%v", hora["lord"]))
	}
	if organ, ok := raw["organ_window"].(map[string]any); ok {
		themes = append(themes, fmt.Sprintf("element_%v", organ["element"]))
	}
	return themes
}

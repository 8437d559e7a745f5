// Package iching implements the I-Ching engine: a deterministic
// three-coin cast producing a hexagram, its changing lines, and the
// transformed hexagram they point to.
package iching

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/refdata"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the I-Ching engine.
const EngineName = "iching"

// Line values from the three-coin method.
const (
	OldYin    = 6
	YoungYang = 7
	YoungYin  = 8
	OldYang   = 9
)

// kingWen maps (lower trigram pattern, upper trigram pattern) to the
// King Wen hexagram number. Patterns read bottom line first, "1" yang.
var kingWen = map[string]map[string]int{
	"111": {"111": 1, "100": 34, "010": 5, "001": 26, "000": 11, "011": 9, "101": 14, "110": 43},
	"100": {"111": 25, "100": 51, "010": 3, "001": 27, "000": 24, "011": 42, "101": 21, "110": 17},
	"010": {"111": 6, "100": 40, "010": 29, "001": 4, "000": 7, "011": 59, "101": 64, "110": 47},
	"001": {"111": 33, "100": 62, "010": 39, "001": 52, "000": 15, "011": 53, "101": 56, "110": 31},
	"000": {"111": 12, "100": 16, "010": 8, "001": 23, "000": 2, "011": 20, "101": 35, "110": 45},
	"011": {"111": 44, "100": 32, "010": 48, "001": 18, "000": 46, "011": 57, "101": 50, "110": 28},
	"101": {"111": 13, "100": 55, "010": 63, "001": 22, "000": 36, "011": 37, "101": 30, "110": 49},
	"110": {"111": 10, "100": 54, "010": 60, "001": 41, "000": 19, "011": 61, "101": 38, "110": 58},
}

// Engine casts and reads hexagrams.
type Engine struct {
	table *refdata.HexagramTable
}

func New(set *refdata.Set) *Engine {
	return &Engine{table: &set.Hexagrams}
}

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Casts an I-Ching hexagram for a question using the three-coin method, reading changing lines and the transformed hexagram"
}

func (e *Engine) InputSchema() *schema.Schema {
	props := map[string]any{
		"question": map[string]any{"type": "string", "minLength": 1},
		"seed":     map[string]any{"type": "string"},
	}
	return core.InputSchema(props, "question")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"lines":               map[string]any{"type": "array"},
		"primary_hexagram":    map[string]any{"type": "object"},
		"changing_lines":      map[string]any{"type": "array"},
		"transformed_hexagram": map[string]any{"type": "object"},
		"trigrams":            map[string]any{"type": "object"},
	})
}

func (e *Engine) Calculate(_ context.Context, input core.Input) (core.Output, error) {
	question, _ := input["question"].(string)
	if strings.TrimSpace(question) == "" {
		return nil, core.InvalidInputError(EngineName, "question", "question is required", nil)
	}
	seedText, _ := input["seed"].(string)
	if seedText == "" {
		seedText = question
		if userID, _ := input["user_id"].(string); userID != "" {
			seedText += "|" + userID
		}
	}

	lines := Cast(seedText)
	primary, err := e.lookup(primaryPattern(lines))
	if err != nil {
		return nil, core.InternalError(EngineName, err)
	}

	changing := []int{}
	for i, v := range lines {
		if v == OldYin || v == OldYang {
			changing = append(changing, i+1)
		}
	}

	out := core.Output{
		"question":         question,
		"lines":            lines,
		"primary_hexagram": hexagramMap(primary),
		"changing_lines":   changing,
		"trigrams":         e.trigramMap(primaryPattern(lines)),
	}
	if len(changing) > 0 {
		transformed, err := e.lookup(transformedPattern(lines))
		if err != nil {
			return nil, core.InternalError(EngineName, err)
		}
		out["transformed_hexagram"] = hexagramMap(transformed)
	}
	return out, nil
}

// Cast produces six line values bottom-to-top with the three-coin
// distribution: 6 and 9 at 1/8 each, 7 and 8 at 3/8 each.
func Cast(seedText string) []int {
	sum := sha256.Sum256([]byte("iching:" + seedText))
	rng := rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(sum[:8]))))
	lines := make([]int, 6)
	for i := range lines {
		total := 0
		for coin := 0; coin < 3; coin++ {
			// Heads 3, tails 2.
			if rng.Intn(2) == 0 {
				total += 3
			} else {
				total += 2
			}
		}
		lines[i] = total
	}
	return lines
}

func primaryPattern(lines []int) string {
	var b strings.Builder
	for _, v := range lines {
		if v == YoungYang || v == OldYang {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func transformedPattern(lines []int) string {
	var b strings.Builder
	for _, v := range lines {
		switch v {
		case OldYang: // yang becomes yin
			b.WriteByte('0')
		case OldYin: // yin becomes yang
			b.WriteByte('1')
		case YoungYang:
			b.WriteByte('1')
		default:
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (e *Engine) lookup(pattern string) (refdata.Hexagram, error) {
	lower, upper := pattern[:3], pattern[3:]
	row, ok := kingWen[lower]
	if !ok {
		return refdata.Hexagram{}, fmt.Errorf("no King Wen row for trigram %s", lower)
	}
	number, ok := row[upper]
	if !ok {
		return refdata.Hexagram{}, fmt.Errorf("no King Wen entry for trigrams %s/%s", lower, upper)
	}
	return e.table.ByNumber(number)
}

func (e *Engine) trigramMap(pattern string) map[string]any {
	out := map[string]any{}
	if t, ok := e.table.Trigrams[pattern[:3]]; ok {
		out["lower"] = map[string]any{"name": t.Name, "chinese": t.Chinese, "attribute": t.Attribute}
	}
	if t, ok := e.table.Trigrams[pattern[3:]]; ok {
		out["upper"] = map[string]any{"name": t.Name, "chinese": t.Chinese, "attribute": t.Attribute}
	}
	return out
}

func hexagramMap(h refdata.Hexagram) map[string]any {
	return map[string]any{
		"number":   h.Number,
		"name":     h.Name,
		"judgment": h.Judgment,
		"image":    h.Image,
	}
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("☯️ I-Ching Reading\n")
	if q, _ := raw["question"].(string); q != "" {
		fmt.Fprintf(&b, "Question: %s\n\n", q)
	}
	if h, ok := raw["primary_hexagram"].(map[string]any); ok {
		fmt.Fprintf(&b, "Hexagram %v — %v\n", h["number"], h["name"])
		fmt.Fprintf(&b, "📜 Judgment: %v\n", h["judgment"])
		fmt.Fprintf(&b, "🖼️  Image: %v\n", h["image"])
	}
	if changing := core.ToIntSlice(raw["changing_lines"]); len(changing) > 0 {
		fmt.Fprintf(&b, "\n🔄 Changing lines: %s\n", joinInts(changing))
		if h, ok := raw["transformed_hexagram"].(map[string]any); ok {
			fmt.Fprintf(&b, "➡️  Transforming into Hexagram %v — %v\n%v\n", h["number"], h["name"], h["judgment"])
		}
	} else {
		b.WriteString("\nNo changing lines: the situation is stable as cast.\n")
	}
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{}
	if changing := core.ToIntSlice(raw["changing_lines"]); len(changing) > 0 {
		recs = append(recs, "Give the changing lines your attention: they mark where movement is already underway")
	} else {
		recs = append(recs, "Hold your current course; the oracle shows no lines in motion")
	}
	return recs
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{}
	if h, ok := raw["primary_hexagram"].(map[string]any); ok {
		if name, ok := h["name"].(string); ok {
			themes = append(themes, strings.ToLower(strings.TrimPrefix(name, "The ")))
		}
	}
	return themes
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}

// Package tarot implements the tarot engine: a deterministic, seeded
// draw from the assembled 78-card deck into a named spread.
package tarot

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/refdata"
	"github.com/auralab/aura/engine/schema"
)

// EngineName is the routing name of the tarot engine.
const EngineName = "tarot"

// Card is one assembled deck entry. Minors are built from suit x rank.
type Card struct {
	Name     string   `json:"name"`
	Arcana   string   `json:"arcana"`
	Suit     string   `json:"suit,omitempty"`
	Rank     string   `json:"rank,omitempty"`
	Number   int      `json:"number"`
	Keywords []string `json:"keywords"`
	Reversed []string `json:"reversed_keywords"`
}

// DrawnCard is a card in a spread position with orientation.
type DrawnCard struct {
	Position   string `json:"position"`
	Card       Card   `json:"card"`
	IsReversed bool   `json:"is_reversed"`
}

// Engine draws cards with a seed derived from the question, spread, and
// querent, so the same question on the same day returns the same cards.
type Engine struct {
	deck  *refdata.TarotDeck
	cards []Card
}

func New(set *refdata.Set) *Engine {
	e := &Engine{deck: &set.Tarot}
	e.cards = assembleDeck(e.deck)
	return e
}

func assembleDeck(deck *refdata.TarotDeck) []Card {
	cards := make([]Card, 0, deck.DeckSize())
	for _, m := range deck.MajorArcana {
		cards = append(cards, Card{
			Name:     m.Name,
			Arcana:   "major",
			Number:   m.Number,
			Keywords: m.Keywords,
			Reversed: m.Reversed,
		})
	}
	suits := make([]string, 0, len(deck.Suits))
	for s := range deck.Suits {
		suits = append(suits, s)
	}
	sort.Strings(suits)
	for _, suit := range suits {
		for _, rank := range deck.Ranks {
			reversed := make([]string, 0, len(rank.Keywords))
			for _, kw := range rank.Keywords {
				reversed = append(reversed, "blocked "+kw)
			}
			cards = append(cards, Card{
				Name:     fmt.Sprintf("%s of %s", capitalize(rank.Rank), capitalize(suit)),
				Arcana:   "minor",
				Suit:     suit,
				Rank:     rank.Rank,
				Number:   rank.Value,
				Keywords: rank.Keywords,
				Reversed: reversed,
			})
		}
	}
	return cards
}

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Description() string {
	return "Draws a deterministic tarot spread for a question, with reversals, positional meanings, and elemental balance"
}

func (e *Engine) InputSchema() *schema.Schema {
	spreadNames := make([]any, 0, len(e.deck.Spreads))
	for name := range e.deck.Spreads {
		spreadNames = append(spreadNames, name)
	}
	sort.Slice(spreadNames, func(i, j int) bool {
		return spreadNames[i].(string) < spreadNames[j].(string)
	})
	props := map[string]any{
		"question":       map[string]any{"type": "string", "minLength": 1},
		"spread":         map[string]any{"type": "string", "enum": spreadNames},
		"allow_reversed": map[string]any{"type": "boolean"},
		"seed":           map[string]any{"type": "string"},
	}
	return core.InputSchema(props, "question")
}

func (e *Engine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{
		"spread":            map[string]any{"type": "string"},
		"cards":             map[string]any{"type": "array"},
		"elemental_balance": map[string]any{"type": "object"},
		"major_count":       map[string]any{"type": "integer"},
	})
}

func (e *Engine) Calculate(_ context.Context, input core.Input) (core.Output, error) {
	question, _ := input["question"].(string)
	if strings.TrimSpace(question) == "" {
		return nil, core.InvalidInputError(EngineName, "question", "question is required", nil)
	}
	spreadName, _ := input["spread"].(string)
	if spreadName == "" {
		spreadName = "three_card"
	}
	positions, ok := e.deck.Spreads[spreadName]
	if !ok {
		return nil, core.InvalidInputError(EngineName, "spread",
			fmt.Sprintf("unknown spread %q", spreadName), nil)
	}
	allowReversed := true
	if v, ok := input["allow_reversed"].(bool); ok {
		allowReversed = v
	}
	seedText, _ := input["seed"].(string)
	if seedText == "" {
		seedText = question
		if userID, _ := input["user_id"].(string); userID != "" {
			seedText += "|" + userID
		}
	}

	rng := rand.New(rand.NewSource(seedFrom(seedText, spreadName)))
	order := rng.Perm(len(e.cards))
	drawn := make([]DrawnCard, len(positions))
	for i, pos := range positions {
		drawn[i] = DrawnCard{
			Position:   pos,
			Card:       e.cards[order[i]],
			IsReversed: allowReversed && rng.Float64() < 0.3,
		}
	}

	elements := map[string]int{}
	majorCount := 0
	for _, d := range drawn {
		if d.Card.Arcana == "major" {
			majorCount++
			continue
		}
		if suit, ok := e.deck.Suits[d.Card.Suit]; ok {
			elements[suit.Element]++
		}
	}

	return core.Output{
		"question":          question,
		"spread":            spreadName,
		"cards":             drawn,
		"elemental_balance": elements,
		"major_count":       majorCount,
	}, nil
}

// seedFrom folds the seed text and spread into a 64-bit source seed.
func seedFrom(text, spread string) int64 {
	sum := sha256.Sum256([]byte(spread + ":" + text))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

func (e *Engine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	var b strings.Builder
	b.WriteString("🎴 Tarot Reading\n")
	if q, _ := raw["question"].(string); q != "" {
		fmt.Fprintf(&b, "Question: %s\n", q)
	}
	fmt.Fprintf(&b, "Spread: %s\n\n", raw["spread"])
	if cards, ok := raw["cards"].([]DrawnCard); ok {
		for _, d := range cards {
			keywords := d.Card.Keywords
			marker := ""
			if d.IsReversed {
				keywords = d.Card.Reversed
				marker = " (reversed)"
			}
			fmt.Fprintf(&b, "🃏 %s: %s%s — %s\n",
				capitalize(d.Position), d.Card.Name, marker, strings.Join(keywords, ", "))
		}
	}
	if majors, ok := core.ParseAnyInt(raw["major_count"]); ok && majors >= 2 {
		fmt.Fprintf(&b, "\n⚡ %d major arcana present: larger forces are at work in this question.\n", majors)
	}
	return b.String(), nil
}

func (e *Engine) Recommendations(raw core.Output, _ core.Input) []string {
	recs := []string{}
	if elements, ok := raw["elemental_balance"].(map[string]int); ok {
		for element, n := range elements {
			if n >= 2 {
				recs = append(recs, fmt.Sprintf("Strong %s presence: lean into its qualities this week", element))
			}
		}
		sort.Strings(recs)
	}
	recs = append(recs, "Sit with the spread before acting; let the positions speak to each other")
	return recs
}

func (e *Engine) ArchetypalThemes(raw core.Output, _ core.Input) []string {
	themes := []string{}
	if cards, ok := raw["cards"].([]DrawnCard); ok {
		for _, d := range cards {
			if d.Card.Arcana == "major" {
				themes = append(themes, strings.ToLower(strings.TrimPrefix(d.Card.Name, "The ")))
			}
		}
	}
	return themes
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

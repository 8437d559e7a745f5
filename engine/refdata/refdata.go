// Package refdata holds the read-only reference tables the engines share:
// the Human Design wheel, nakshatra and dasha tables, the tarot deck, the
// I-Ching hexagrams, Gene Keys archetypes, Enneagram types, geometry
// templates, and the incarnation-cross table. Everything is embedded,
// loaded once at startup, shape-asserted, and never mutated afterwards.
package refdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed data/*.json
var dataFS embed.FS

// Set is the full collection of loaded reference tables.
type Set struct {
	HDGates   HDGates
	HDCenters HDCenters
	Nakshatra NakshatraTable
	Tarot     TarotDeck
	Hexagrams HexagramTable
	GeneKeys  GeneKeyTable
	Enneagram EnneagramTable
	Geometry  GeometryTemplates
	Crosses   CrossTable
}

// Load reads and validates every embedded table. Any failure is fatal to
// startup: an engine running against a malformed wheel would produce
// silently wrong readings.
func Load() (*Set, error) {
	s := &Set{}
	loaders := []struct {
		file string
		fn   func([]byte) error
	}{
		{"data/hd_gates.json", s.loadHDGates},
		{"data/hd_centers.json", s.loadHDCenters},
		{"data/nakshatras.json", s.loadNakshatras},
		{"data/tarot.json", s.loadTarot},
		{"data/hexagrams.json", s.loadHexagrams},
		{"data/gene_keys.json", s.loadGeneKeys},
		{"data/enneagram.json", s.loadEnneagram},
		{"data/geometry_templates.json", s.loadGeometry},
		{"data/incarnation_crosses.json", s.loadCrosses},
	}
	for _, l := range loaders {
		raw, err := dataFS.ReadFile(l.file)
		if err != nil {
			return nil, fmt.Errorf("refdata: read %s: %w", l.file, err)
		}
		if err := l.fn(raw); err != nil {
			return nil, fmt.Errorf("refdata: %s: %w", l.file, err)
		}
	}
	return s, nil
}

// MustLoad is Load for startup wiring paths that cannot continue without
// reference data.
func MustLoad() *Set {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

// -----------------------------------------------------------------------------
// Human Design wheel
// -----------------------------------------------------------------------------

// HDGates is the Human Design wheel layout: the official 64-gate sequence
// around the zodiac, the per-role longitude offsets, and gate keywords.
type HDGates struct {
	OfficialSequence []int              `json:"official_sequence"`
	RoleOffsets      map[string]float64 `json:"role_offsets"`
	GateKeywords     map[string]string  `json:"gate_keywords"`
}

func (s *Set) loadHDGates(raw []byte) error {
	if err := json.Unmarshal(raw, &s.HDGates); err != nil {
		return err
	}
	if n := len(s.HDGates.OfficialSequence); n != 64 {
		return fmt.Errorf("official_sequence has %d entries, want 64", n)
	}
	seen := make(map[int]bool, 64)
	for _, g := range s.HDGates.OfficialSequence {
		if g < 1 || g > 64 {
			return fmt.Errorf("official_sequence contains out-of-range gate %d", g)
		}
		if seen[g] {
			return fmt.Errorf("official_sequence repeats gate %d", g)
		}
		seen[g] = true
	}
	for _, role := range []string{"personality_sun", "personality_earth", "design_sun", "design_earth"} {
		if _, ok := s.HDGates.RoleOffsets[role]; !ok {
			return fmt.Errorf("role_offsets missing %q", role)
		}
	}
	if n := len(s.HDGates.GateKeywords); n != 64 {
		return fmt.Errorf("gate_keywords has %d entries, want 64", n)
	}
	return nil
}

// Keyword returns the keyword for a gate number, or "" when unknown.
func (g *HDGates) Keyword(gate int) string {
	return g.GateKeywords[fmt.Sprintf("%d", gate)]
}

// HDCenters maps the nine centers to their gates and lists the channels
// that define them.
type HDCenters struct {
	Centers      map[string][]int `json:"centers"`
	MotorCenters []string         `json:"motor_centers"`
	Channels     []Channel        `json:"channels"`
}

// Channel is a gate pair whose joint activation defines its two centers.
type Channel struct {
	Gates [2]int `json:"gates"`
	Name  string `json:"name"`
}

func (s *Set) loadHDCenters(raw []byte) error {
	if err := json.Unmarshal(raw, &s.HDCenters); err != nil {
		return err
	}
	if n := len(s.HDCenters.Centers); n != 9 {
		return fmt.Errorf("centers has %d entries, want 9", n)
	}
	gateCount := 0
	for name, gates := range s.HDCenters.Centers {
		if len(gates) == 0 {
			return fmt.Errorf("center %q has no gates", name)
		}
		gateCount += len(gates)
	}
	if gateCount != 64 {
		return fmt.Errorf("centers cover %d gates, want 64", gateCount)
	}
	if len(s.HDCenters.Channels) == 0 {
		return fmt.Errorf("no channels defined")
	}
	if len(s.HDCenters.MotorCenters) == 0 {
		return fmt.Errorf("no motor centers defined")
	}
	return nil
}

// CenterOf returns the center owning a gate, or "" when the gate is
// unknown.
func (c *HDCenters) CenterOf(gate int) string {
	for name, gates := range c.Centers {
		for _, g := range gates {
			if g == gate {
				return name
			}
		}
	}
	return ""
}

// IsMotor reports whether the named center is a motor.
func (c *HDCenters) IsMotor(center string) bool {
	for _, m := range c.MotorCenters {
		if m == center {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Nakshatras and dashas
// -----------------------------------------------------------------------------

// NakshatraTable is the 27 lunar mansions plus the Vimshottari dasha
// sequence and period lengths.
type NakshatraTable struct {
	ArcDegrees float64            `json:"arc_degrees"`
	Nakshatras []Nakshatra        `json:"nakshatras"`
	DashaSeq   []string           `json:"dasha_sequence"`
	DashaYears map[string]float64 `json:"dasha_years"`
}

// Nakshatra is one lunar mansion.
type Nakshatra struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Lord   string `json:"lord"`
	Deity  string `json:"deity"`
	Symbol string `json:"symbol"`
}

func (s *Set) loadNakshatras(raw []byte) error {
	if err := json.Unmarshal(raw, &s.Nakshatra); err != nil {
		return err
	}
	// Lord names are normalized to the lowercase body vocabulary the
	// engines use, whatever casing the data file carries.
	for i := range s.Nakshatra.Nakshatras {
		s.Nakshatra.Nakshatras[i].Lord = strings.ToLower(s.Nakshatra.Nakshatras[i].Lord)
	}
	for i := range s.Nakshatra.DashaSeq {
		s.Nakshatra.DashaSeq[i] = strings.ToLower(s.Nakshatra.DashaSeq[i])
	}
	years := make(map[string]float64, len(s.Nakshatra.DashaYears))
	for lord, y := range s.Nakshatra.DashaYears {
		years[strings.ToLower(lord)] = y
	}
	s.Nakshatra.DashaYears = years
	if n := len(s.Nakshatra.Nakshatras); n != 27 {
		return fmt.Errorf("nakshatras has %d entries, want 27", n)
	}
	for i, nk := range s.Nakshatra.Nakshatras {
		if nk.Index != i {
			return fmt.Errorf("nakshatra %d carries index %d", i, nk.Index)
		}
		if nk.Name == "" || nk.Lord == "" {
			return fmt.Errorf("nakshatra %d missing name or lord", i)
		}
		if _, ok := s.Nakshatra.DashaYears[nk.Lord]; !ok {
			return fmt.Errorf("nakshatra %d lord %q has no dasha period", i, nk.Lord)
		}
	}
	if n := len(s.Nakshatra.DashaSeq); n != 9 {
		return fmt.Errorf("dasha_sequence has %d entries, want 9", n)
	}
	total := 0.0
	for _, lord := range s.Nakshatra.DashaSeq {
		years, ok := s.Nakshatra.DashaYears[lord]
		if !ok {
			return fmt.Errorf("dasha_sequence lord %q has no period", lord)
		}
		total += years
	}
	if total != 120 {
		return fmt.Errorf("dasha periods sum to %v years, want 120", total)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Tarot
// -----------------------------------------------------------------------------

// TarotDeck is the full 78-card deck: 22 majors plus the suit and rank
// tables the 56 minors are assembled from, and the named spreads.
type TarotDeck struct {
	MajorArcana []TarotMajor         `json:"major_arcana"`
	Suits       map[string]TarotSuit `json:"suits"`
	Ranks       []TarotRank          `json:"ranks"`
	Spreads     map[string][]string  `json:"spreads"`
}

type TarotMajor struct {
	Number   int      `json:"number"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Reversed []string `json:"reversed"`
}

type TarotSuit struct {
	Element string `json:"element"`
	Domain  string `json:"domain"`
}

type TarotRank struct {
	Rank     string   `json:"rank"`
	Value    int      `json:"value"`
	Keywords []string `json:"keywords"`
}

func (s *Set) loadTarot(raw []byte) error {
	if err := json.Unmarshal(raw, &s.Tarot); err != nil {
		return err
	}
	if n := len(s.Tarot.MajorArcana); n != 22 {
		return fmt.Errorf("major_arcana has %d entries, want 22", n)
	}
	if n := len(s.Tarot.Suits); n != 4 {
		return fmt.Errorf("suits has %d entries, want 4", n)
	}
	if n := len(s.Tarot.Ranks); n != 14 {
		return fmt.Errorf("ranks has %d entries, want 14", n)
	}
	if len(s.Tarot.Spreads) == 0 {
		return fmt.Errorf("no spreads defined")
	}
	return nil
}

// DeckSize is the number of cards in the assembled deck.
func (d *TarotDeck) DeckSize() int {
	return len(d.MajorArcana) + len(d.Suits)*len(d.Ranks)
}

// -----------------------------------------------------------------------------
// I-Ching
// -----------------------------------------------------------------------------

// HexagramTable is the 64 King Wen hexagrams plus the eight trigrams keyed
// by their bottom-to-top line pattern ("1" yang, "0" yin).
type HexagramTable struct {
	Trigrams  map[string]Trigram `json:"trigrams"`
	Hexagrams []Hexagram         `json:"hexagrams"`
}

type Trigram struct {
	Name      string `json:"name"`
	Chinese   string `json:"chinese"`
	Attribute string `json:"attribute"`
}

type Hexagram struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Judgment string `json:"judgment"`
	Image    string `json:"image"`
}

func (s *Set) loadHexagrams(raw []byte) error {
	if err := json.Unmarshal(raw, &s.Hexagrams); err != nil {
		return err
	}
	if n := len(s.Hexagrams.Hexagrams); n != 64 {
		return fmt.Errorf("hexagrams has %d entries, want 64", n)
	}
	for i, h := range s.Hexagrams.Hexagrams {
		if h.Number != i+1 {
			return fmt.Errorf("hexagram %d carries number %d", i+1, h.Number)
		}
		if h.Name == "" || h.Judgment == "" {
			return fmt.Errorf("hexagram %d missing name or judgment", h.Number)
		}
	}
	if n := len(s.Hexagrams.Trigrams); n != 8 {
		return fmt.Errorf("trigrams has %d entries, want 8", n)
	}
	return nil
}

// ByNumber returns a hexagram by its King Wen number.
func (t *HexagramTable) ByNumber(n int) (Hexagram, error) {
	if n < 1 || n > len(t.Hexagrams) {
		return Hexagram{}, fmt.Errorf("hexagram number %d out of range", n)
	}
	return t.Hexagrams[n-1], nil
}

// -----------------------------------------------------------------------------
// Gene Keys
// -----------------------------------------------------------------------------

// GeneKeyTable is the 64 keys with their shadow/gift/siddhi spectrum and
// the activation-sequence sphere definitions.
type GeneKeyTable struct {
	Spheres []GeneKeySphere `json:"spheres"`
	Keys    []GeneKey       `json:"keys"`
}

type GeneKeySphere struct {
	Name        string `json:"name"`
	Body        string `json:"body"`
	Design      bool   `json:"design"`
	Description string `json:"description"`
}

type GeneKey struct {
	Number int    `json:"number"`
	Shadow string `json:"shadow"`
	Gift   string `json:"gift"`
	Siddhi string `json:"siddhi"`
}

func (s *Set) loadGeneKeys(raw []byte) error {
	if err := json.Unmarshal(raw, &s.GeneKeys); err != nil {
		return err
	}
	if n := len(s.GeneKeys.Keys); n != 64 {
		return fmt.Errorf("keys has %d entries, want 64", n)
	}
	for i, k := range s.GeneKeys.Keys {
		if k.Number != i+1 {
			return fmt.Errorf("key %d carries number %d", i+1, k.Number)
		}
		if k.Shadow == "" || k.Gift == "" || k.Siddhi == "" {
			return fmt.Errorf("key %d missing spectrum entry", k.Number)
		}
	}
	if len(s.GeneKeys.Spheres) == 0 {
		return fmt.Errorf("no spheres defined")
	}
	return nil
}

// ByNumber returns a key by number.
func (t *GeneKeyTable) ByNumber(n int) (GeneKey, error) {
	if n < 1 || n > len(t.Keys) {
		return GeneKey{}, fmt.Errorf("gene key number %d out of range", n)
	}
	return t.Keys[n-1], nil
}

// -----------------------------------------------------------------------------
// Enneagram
// -----------------------------------------------------------------------------

// EnneagramTable is the nine types and three instincts.
type EnneagramTable struct {
	Types     []EnneagramType     `json:"types"`
	Instincts []EnneagramInstinct `json:"instincts"`
}

type EnneagramType struct {
	Number         int      `json:"number"`
	Name           string   `json:"name"`
	Center         string   `json:"center"`
	BasicFear      string   `json:"basic_fear"`
	BasicDesire    string   `json:"basic_desire"`
	Wings          [2]int   `json:"wings"`
	Integration    int      `json:"integration"`
	Disintegration int      `json:"disintegration"`
	Keywords       []string `json:"keywords"`
}

type EnneagramInstinct struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Focus string `json:"focus"`
}

func (s *Set) loadEnneagram(raw []byte) error {
	if err := json.Unmarshal(raw, &s.Enneagram); err != nil {
		return err
	}
	if n := len(s.Enneagram.Types); n != 9 {
		return fmt.Errorf("types has %d entries, want 9", n)
	}
	for i, t := range s.Enneagram.Types {
		if t.Number != i+1 {
			return fmt.Errorf("type %d carries number %d", i+1, t.Number)
		}
	}
	if n := len(s.Enneagram.Instincts); n != 3 {
		return fmt.Errorf("instincts has %d entries, want 3", n)
	}
	return nil
}

// ByNumber returns a type by number.
func (t *EnneagramTable) ByNumber(n int) (EnneagramType, error) {
	if n < 1 || n > len(t.Types) {
		return EnneagramType{}, fmt.Errorf("enneagram type %d out of range", n)
	}
	return t.Types[n-1], nil
}

// -----------------------------------------------------------------------------
// Geometry templates
// -----------------------------------------------------------------------------

// GeometryTemplates maps intentions to sacred-geometry template
// selections.
type GeometryTemplates struct {
	Templates []GeometryTemplate       `json:"templates"`
	Platonic  map[string]PlatonicSolid `json:"platonic_solids"`
}

type GeometryTemplate struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Intentions  []string       `json:"intentions"`
	Defaults    map[string]any `json:"defaults"`
}

type PlatonicSolid struct {
	Element string `json:"element"`
	Faces   int    `json:"faces"`
}

func (s *Set) loadGeometry(raw []byte) error {
	if err := json.Unmarshal(raw, &s.Geometry); err != nil {
		return err
	}
	if len(s.Geometry.Templates) == 0 {
		return fmt.Errorf("no templates defined")
	}
	if n := len(s.Geometry.Platonic); n != 5 {
		return fmt.Errorf("platonic_solids has %d entries, want 5", n)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Incarnation crosses
// -----------------------------------------------------------------------------

// CrossTable maps each Sun gate to its incarnation-cross name, plus the
// profile line names and quarter/godhead layout of the wheel.
type CrossTable struct {
	Crosses   []Cross           `json:"crosses"`
	LineNames map[string]string `json:"line_names"`
	Quarters  []Quarter         `json:"quarters"`

	byGate map[int]*Cross
}

type Cross struct {
	Name  string `json:"name"`
	Gates []int  `json:"gates"`
	Theme string `json:"theme"`
}

type Quarter struct {
	Name     string   `json:"name"`
	Godheads []string `json:"godheads"`
}

func (s *Set) loadCrosses(raw []byte) error {
	if err := json.Unmarshal(raw, &s.Crosses); err != nil {
		return err
	}
	s.Crosses.byGate = make(map[int]*Cross, 64)
	covered := 0
	for i := range s.Crosses.Crosses {
		c := &s.Crosses.Crosses[i]
		for _, g := range c.Gates {
			if g < 1 || g > 64 {
				return fmt.Errorf("cross %q has out-of-range gate %d", c.Name, g)
			}
			if _, dup := s.Crosses.byGate[g]; dup {
				return fmt.Errorf("gate %d appears in two crosses", g)
			}
			s.Crosses.byGate[g] = c
			covered++
		}
	}
	if covered != 64 {
		return fmt.Errorf("crosses cover %d gates, want 64", covered)
	}
	for line := 1; line <= 6; line++ {
		if s.Crosses.LineNames[fmt.Sprintf("%d", line)] == "" {
			return fmt.Errorf("line_names missing line %d", line)
		}
	}
	return nil
}

// ByGate returns the cross a Sun gate belongs to.
func (t *CrossTable) ByGate(gate int) (Cross, error) {
	c, ok := t.byGate[gate]
	if !ok {
		return Cross{}, fmt.Errorf("no incarnation cross for gate %d", gate)
	}
	return *c, nil
}

// LineName returns the profile name of a line (1..6).
func (t *CrossTable) LineName(line int) string {
	return t.LineNames[fmt.Sprintf("%d", line)]
}

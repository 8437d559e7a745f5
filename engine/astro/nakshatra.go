package astro

import (
	"math"

	"github.com/auralab/aura/engine/refdata"
)

// NakshatraArcDeg is the span of one lunar mansion: 360/27.
const NakshatraArcDeg = 360.0 / 27.0

// NakshatraPosition locates a sidereal longitude within the 27 lunar
// mansions.
type NakshatraPosition struct {
	Index         int     `json:"index"`
	Name          string  `json:"name"`
	Lord          string  `json:"lord"`
	Deity         string  `json:"deity"`
	Symbol        string  `json:"symbol"`
	Pada          int     `json:"pada"`
	DegreesWithin float64 `json:"degrees_within"`
	Fraction      float64 `json:"fraction"`
}

// NakshatraAt maps a sidereal longitude (typically the Moon's) to its
// nakshatra, pada, and progress fraction.
func NakshatraAt(longitudeDeg float64, table *refdata.NakshatraTable) NakshatraPosition {
	lon := NormalizeDeg(longitudeDeg)
	idx := int(math.Floor(lon / NakshatraArcDeg))
	if idx > 26 {
		idx = 26
	}
	within := math.Mod(lon, NakshatraArcDeg)
	pada := int(math.Floor(within/(NakshatraArcDeg/4))) + 1
	if pada > 4 {
		pada = 4
	}
	nk := table.Nakshatras[idx]
	return NakshatraPosition{
		Index:         idx,
		Name:          nk.Name,
		Lord:          nk.Lord,
		Deity:         nk.Deity,
		Symbol:        nk.Symbol,
		Pada:          pada,
		DegreesWithin: within,
		Fraction:      within / NakshatraArcDeg,
	}
}

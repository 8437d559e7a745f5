// Package geometry implements the sacred-geometry engine and the shared
// point, circle, polygon, and spiral generators it draws from.
package geometry

import (
	"fmt"
	"math"
)

// Phi is the golden ratio used by the spiral generator.
var Phi = (1 + math.Sqrt(5)) / 2

// Point is a 2D or 3D coordinate. Z is zero for planar figures.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Circle is a centre plus radius.
type Circle struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

// Line connects two points.
type Line struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Polygon is a closed point loop.
type Polygon struct {
	Points []Point `json:"points"`
}

// Figure is the geometric description every generator returns. Rendering
// is out of scope: consumers get points, circles, lines, and polygons.
type Figure struct {
	Kind     string         `json:"kind"`
	Points   []Point        `json:"points,omitempty"`
	Circles  []Circle       `json:"circles,omitempty"`
	Lines    []Line         `json:"lines,omitempty"`
	Polygons []Polygon      `json:"polygons,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

func onCircle(center Point, radius, angleRad float64) Point {
	return Point{
		X: center.X + radius*math.Cos(angleRad),
		Y: center.Y + radius*math.Sin(angleRad),
	}
}

// Mandala lays petal points on concentric layers around a centre. Each
// layer is rotated half a petal step against the previous one.
func Mandala(center Point, radius float64, petals, layers int) Figure {
	fig := Figure{Kind: "mandala", Meta: map[string]any{"petals": petals, "layers": layers}}
	fig.Circles = append(fig.Circles, Circle{Center: center, Radius: radius})
	for layer := 1; layer <= layers; layer++ {
		layerRadius := radius * float64(layer) / float64(layers)
		offset := 0.0
		if layer%2 == 0 {
			offset = math.Pi / float64(petals)
		}
		for p := 0; p < petals; p++ {
			angle := offset + 2*math.Pi*float64(p)/float64(petals)
			pt := onCircle(center, layerRadius, angle)
			fig.Points = append(fig.Points, pt)
			fig.Lines = append(fig.Lines, Line{From: center, To: pt})
			fig.Circles = append(fig.Circles, Circle{Center: pt, Radius: layerRadius / float64(petals)})
		}
	}
	return fig
}

// FlowerOfLife builds the overlapping-circle lattice: a central circle
// plus rings of circles whose centres sit on a hexagonal grid.
func FlowerOfLife(center Point, unitRadius float64, layers int) Figure {
	fig := Figure{Kind: "flower_of_life", Meta: map[string]any{"layers": layers, "unit_radius": unitRadius}}
	seen := map[string]bool{}
	add := func(c Point) {
		key := fmt.Sprintf("%.6f:%.6f", c.X, c.Y)
		if seen[key] {
			return
		}
		seen[key] = true
		fig.Circles = append(fig.Circles, Circle{Center: c, Radius: unitRadius})
	}
	add(center)
	for ring := 1; ring <= layers; ring++ {
		// Six corner directions, ring steps along each edge.
		for side := 0; side < 6; side++ {
			angleA := math.Pi / 3 * float64(side)
			angleB := math.Pi / 3 * float64(side+1)
			corner := onCircle(center, unitRadius*float64(ring), angleA)
			next := onCircle(center, unitRadius*float64(ring), angleB)
			for step := 0; step < ring; step++ {
				t := float64(step) / float64(ring)
				add(Point{
					X: corner.X + (next.X-corner.X)*t,
					Y: corner.Y + (next.Y-corner.Y)*t,
				})
			}
		}
	}
	fig.Meta["circle_count"] = len(fig.Circles)
	return fig
}

// SriYantra approximates the nine interlocking triangles: four upward
// (Shiva) and five downward (Shakti), scaled within the outer circle.
func SriYantra(center Point, size float64) Figure {
	fig := Figure{Kind: "sri_yantra", Meta: map[string]any{"size": size, "triangles": 9}}
	fig.Circles = append(fig.Circles, Circle{Center: center, Radius: size})
	upScales := []float64{0.95, 0.72, 0.48, 0.25}
	downScales := []float64{0.88, 0.66, 0.50, 0.36, 0.18}
	for _, s := range upScales {
		fig.Polygons = append(fig.Polygons, triangle(center, size*s, true))
	}
	for _, s := range downScales {
		fig.Polygons = append(fig.Polygons, triangle(center, size*s, false))
	}
	return fig
}

func triangle(center Point, r float64, pointingUp bool) Polygon {
	start := math.Pi / 2
	if !pointingUp {
		start = -math.Pi / 2
	}
	pts := make([]Point, 3)
	for i := 0; i < 3; i++ {
		pts[i] = onCircle(center, r, start+2*math.Pi*float64(i)/3)
	}
	return Polygon{Points: pts}
}

// GoldenSpiral samples a logarithmic spiral with growth factor phi per
// quarter turn, 32 points per turn.
func GoldenSpiral(center Point, scale float64, turns int) Figure {
	const samplesPerTurn = 32
	fig := Figure{Kind: "golden_spiral", Meta: map[string]any{"turns": turns, "phi": Phi}}
	growth := math.Log(Phi) / (math.Pi / 2)
	total := turns * samplesPerTurn
	for i := 0; i <= total; i++ {
		theta := 2 * math.Pi * float64(i) / samplesPerTurn
		r := scale * math.Exp(growth*theta) / math.Exp(growth*2*math.Pi*float64(turns))
		fig.Points = append(fig.Points, onCircle(center, r*scale, theta))
	}
	for i := 1; i < len(fig.Points); i++ {
		fig.Lines = append(fig.Lines, Line{From: fig.Points[i-1], To: fig.Points[i]})
	}
	return fig
}

// PlatonicSolid returns the canonical unit-scale vertex set for the five
// regular polyhedra.
func PlatonicSolid(name string, scale float64) (Figure, error) {
	var verts []Point
	switch name {
	case "tetrahedron":
		verts = []Point{{1, 1, 1}, {1, -1, -1}, {-1, 1, -1}, {-1, -1, 1}}
	case "hexahedron":
		for _, x := range []float64{-1, 1} {
			for _, y := range []float64{-1, 1} {
				for _, z := range []float64{-1, 1} {
					verts = append(verts, Point{x, y, z})
				}
			}
		}
	case "octahedron":
		verts = []Point{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	case "dodecahedron":
		inv := 1 / Phi
		for _, x := range []float64{-1, 1} {
			for _, y := range []float64{-1, 1} {
				for _, z := range []float64{-1, 1} {
					verts = append(verts, Point{x, y, z})
				}
			}
		}
		for _, a := range []float64{-1, 1} {
			for _, b := range []float64{-1, 1} {
				verts = append(verts,
					Point{0, a * inv, b * Phi},
					Point{a * inv, b * Phi, 0},
					Point{a * Phi, 0, b * inv})
			}
		}
	case "icosahedron":
		for _, a := range []float64{-1, 1} {
			for _, b := range []float64{-1, 1} {
				verts = append(verts,
					Point{0, a, b * Phi},
					Point{a, b * Phi, 0},
					Point{a * Phi, 0, b})
			}
		}
	default:
		return Figure{}, fmt.Errorf("unknown platonic solid %q", name)
	}
	for i := range verts {
		verts[i].X *= scale
		verts[i].Y *= scale
		verts[i].Z *= scale
	}
	return Figure{
		Kind:   "platonic_solid",
		Points: verts,
		Meta:   map[string]any{"solid": name, "vertex_count": len(verts)},
	}, nil
}

// VesicaPiscis builds two circles of shared radius whose centres are one
// separation apart, plus the lens intersection points.
func VesicaPiscis(center Point, radius, separation float64) Figure {
	half := separation / 2
	left := Point{X: center.X - half, Y: center.Y}
	right := Point{X: center.X + half, Y: center.Y}
	fig := Figure{Kind: "vesica_piscis", Meta: map[string]any{"radius": radius, "separation": separation}}
	fig.Circles = append(fig.Circles, Circle{Center: left, Radius: radius}, Circle{Center: right, Radius: radius})
	if radius > half {
		h := math.Sqrt(radius*radius - half*half)
		fig.Points = append(fig.Points,
			Point{X: center.X, Y: center.Y + h},
			Point{X: center.X, Y: center.Y - h})
		fig.Lines = append(fig.Lines, Line{From: fig.Points[0], To: fig.Points[1]})
	}
	return fig
}

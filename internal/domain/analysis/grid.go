package analysis

import (
	"fmt"
	"math"
)

// neighborIndex answers fixed-radius neighbour queries over a point set.
type neighborIndex interface {
	// Each calls fn for every point within the radius of point i, i itself
	// included, and stops early when fn returns false.
	Each(i int, fn func(j int) bool)
}

// cellKey addresses one grid cell.
type cellKey struct {
	X, Y int64
}

// String renders the key in the "L0_x_y" form used in debug output.
func (k cellKey) String() string {
	return fmt.Sprintf("L0_%d_%d", k.X, k.Y)
}

// GridIndex buckets points into cells at least radius wide in both axes, so
// every neighbour of a point lies in its own cell or one of the eight around
// it. Longitude wrap-around at the antimeridian is not handled.
type GridIndex struct {
	points []Point
	radius float64
	dLat   float64
	dLon   float64
	cells  map[cellKey][]int
	keys   []cellKey
}

// NewGridIndex indexes the valid points; invalid ones are never returned by
// queries.
func NewGridIndex(points []Point, radiusMeters float64) *GridIndex {
	maxAbsLat := 0.0
	for _, p := range points {
		if p.Valid() && math.Abs(p.Lat) > maxAbsLat {
			maxAbsLat = math.Abs(p.Lat)
		}
	}
	// 1% slack covers the gap between parallel and great-circle distance.
	dLat, dLon := DegreeSpan(radiusMeters*1.01, maxAbsLat)

	g := &GridIndex{
		points: points,
		radius: radiusMeters,
		dLat:   dLat,
		dLon:   dLon,
		cells:  make(map[cellKey][]int),
		keys:   make([]cellKey, len(points)),
	}
	for i, p := range points {
		if !p.Valid() {
			continue
		}
		k := g.keyFor(p)
		g.keys[i] = k
		g.cells[k] = append(g.cells[k], i)
	}
	return g
}

func (g *GridIndex) keyFor(p Point) cellKey {
	return cellKey{
		X: int64(math.Floor(p.Lon / g.dLon)),
		Y: int64(math.Floor(p.Lat / g.dLat)),
	}
}

// Each implements neighborIndex.
func (g *GridIndex) Each(i int, fn func(j int) bool) {
	p := g.points[i]
	if !p.Valid() {
		return
	}
	k := g.keys[i]
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, j := range g.cells[cellKey{X: k.X + dx, Y: k.Y + dy}] {
				if HaversineMeters(p, g.points[j]) <= g.radius {
					if !fn(j) {
						return
					}
				}
			}
		}
	}
}

// Cells returns the number of occupied cells.
func (g *GridIndex) Cells() int {
	return len(g.cells)
}

// bruteForceIndex scans every point on each query.
type bruteForceIndex struct {
	points []Point
	radius float64
}

func (b *bruteForceIndex) Each(i int, fn func(j int) bool) {
	p := b.points[i]
	if !p.Valid() {
		return
	}
	for j, q := range b.points {
		if !q.Valid() {
			continue
		}
		if HaversineMeters(p, q) <= b.radius {
			if !fn(j) {
				return
			}
		}
	}
}

//Personal.AI order the ending

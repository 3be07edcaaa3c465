// Package geom holds the coordinate math shared by every import stage.
// Archive coordinates are integer units in a Y-up space; destination
// coordinates are millimetres, Y-down on a page and Y-up in a library symbol.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is an archive coordinate in resolution units.
type Point struct {
	X, Y int64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Vec converts p to a float vector without scaling.
func (p Point) Vec() r2.Vec { return r2.Vec{X: float64(p.X), Y: float64(p.Y)} }

// RoundPoint rounds v to the nearest whole unit.
func RoundPoint(v r2.Vec) Point {
	return Point{X: int64(math.Round(v.X)), Y: int64(math.Round(v.Y))}
}

// Space converts archive units to destination millimetres.
type Space struct {
	// Origin is subtracted from every page coordinate.
	Origin Point
	// UnitMM is the size of one archive unit in millimetres.
	UnitMM float64
}

// ToDestinationPoint maps a page coordinate into destination page space,
// flipping Y.
func (s Space) ToDestinationPoint(p Point) r2.Vec {
	v := r2.Scale(s.UnitMM, p.Sub(s.Origin).Vec())
	v.Y = -v.Y
	return v
}

// FromDestinationPoint inverts ToDestinationPoint, rounding to whole units.
func (s Space) FromDestinationPoint(v r2.Vec) Point {
	u := r2.Scale(1/s.UnitMM, r2.Vec{X: v.X, Y: -v.Y})
	return RoundPoint(u).Add(s.Origin)
}

// ToLibraryPoint maps a symbol-definition coordinate relative to the
// definition's origin. Library space is not flipped.
func (s Space) ToLibraryPoint(p, origin Point) r2.Vec {
	return r2.Scale(s.UnitMM, p.Sub(origin).Vec())
}

// Length converts a distance.
func (s Space) Length(units int64) float64 {
	return float64(units) * s.UnitMM
}

// RoundToGrid rounds v to the nearest multiple of grid. A non-positive grid
// leaves v unchanged.
func RoundToGrid(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

// RoundVecToGrid rounds both components of v to grid.
func RoundVecToGrid(v r2.Vec, grid float64) r2.Vec {
	return r2.Vec{X: RoundToGrid(v.X, grid), Y: RoundToGrid(v.Y, grid)}
}

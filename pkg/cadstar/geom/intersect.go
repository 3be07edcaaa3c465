package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const epsilon = 1e-9

// Rect is an axis-aligned rectangle in destination space.
type Rect struct {
	Min, Max r2.Vec
}

// NewRect normalizes two corners.
func NewRect(a, b r2.Vec) Rect {
	return Rect{
		Min: r2.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		Max: r2.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
	}
}

// Contains reports whether p lies inside or on r.
func (r Rect) Contains(p r2.Vec) bool {
	return p.X >= r.Min.X-epsilon && p.X <= r.Max.X+epsilon &&
		p.Y >= r.Min.Y-epsilon && p.Y <= r.Max.Y+epsilon
}

// Edges returns the four sides as segments.
func (r Rect) Edges() [4][2]r2.Vec {
	tl := r.Min
	tr := r2.Vec{X: r.Max.X, Y: r.Min.Y}
	br := r.Max
	bl := r2.Vec{X: r.Min.X, Y: r.Max.Y}
	return [4][2]r2.Vec{{tl, tr}, {tr, br}, {br, bl}, {bl, tl}}
}

// SegmentIntersection returns the point where segment a1-a2 meets b1-b2 and
// the parameter t along a. Parallel segments never intersect.
func SegmentIntersection(a1, a2, b1, b2 r2.Vec) (r2.Vec, float64, bool) {
	da := r2.Sub(a2, a1)
	db := r2.Sub(b2, b1)
	denom := r2.Cross(da, db)
	if math.Abs(denom) < epsilon {
		return r2.Vec{}, 0, false
	}
	w := r2.Sub(b1, a1)
	t := r2.Cross(w, db) / denom
	u := r2.Cross(w, da) / denom
	if t < -epsilon || t > 1+epsilon || u < -epsilon || u > 1+epsilon {
		return r2.Vec{}, 0, false
	}
	return r2.Add(a1, r2.Scale(t, da)), t, true
}

// ClipToRect walks pts from the first point and cuts the polyline at the
// first point where it reaches the rectangle's boundary. The start point
// itself does not count as a crossing. It returns the clipped polyline
// ending at the crossing.
func ClipToRect(pts []r2.Vec, r Rect) ([]r2.Vec, r2.Vec, bool) {
	for i := 0; i+1 < len(pts); i++ {
		bestT := math.Inf(1)
		var best r2.Vec
		for _, e := range r.Edges() {
			p, t, ok := SegmentIntersection(pts[i], pts[i+1], e[0], e[1])
			if !ok || (i == 0 && t < epsilon) {
				continue
			}
			if t < bestT {
				bestT, best = t, p
			}
		}
		if !math.IsInf(bestT, 1) {
			out := make([]r2.Vec, 0, i+2)
			out = append(out, pts[:i+1]...)
			if !SameVec(out[len(out)-1], best) {
				out = append(out, best)
			}
			return out, best, true
		}
	}
	return pts, r2.Vec{}, false
}

// SameVec compares two destination points with a small tolerance.
func SameVec(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6
}

// Reverse returns pts in reverse order.
func Reverse(pts []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// ArcMid returns the midpoint of the arc from start to end around centre.
// Clockwise is measured in the space the points live in.
func ArcMid(start, end, centre r2.Vec, clockwise bool) r2.Vec {
	a0 := math.Atan2(start.Y-centre.Y, start.X-centre.X)
	a1 := math.Atan2(end.Y-centre.Y, end.X-centre.X)
	sweep := a1 - a0
	if clockwise {
		for sweep >= 0 {
			sweep -= 2 * math.Pi
		}
	} else {
		for sweep <= 0 {
			sweep += 2 * math.Pi
		}
	}
	radius := r2.Norm(r2.Sub(start, centre))
	mid := a0 + sweep/2
	return r2.Vec{X: centre.X + radius*math.Cos(mid), Y: centre.Y + radius*math.Sin(mid)}
}

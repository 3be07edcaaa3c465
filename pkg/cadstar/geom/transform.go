package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Transform places archive geometry. Rotation is counter-clockwise in
// tenths of a degree.
type Transform struct {
	Move     Point
	Rotation int64
	ScaleNum int64
	ScaleDen int64
	Center   Point
	Mirror   bool
}

// Scaled reports whether the transform has a ratio other than 1:1.
func (t Transform) Scaled() bool {
	return t.ScaleDen != 0 && t.ScaleNum != t.ScaleDen
}

// Ratio returns the scale factor, 1 when unset.
func (t Transform) Ratio() float64 {
	if t.ScaleDen == 0 {
		return 1
	}
	return float64(t.ScaleNum) / float64(t.ScaleDen)
}

// ApplyTransform scales p about the centre, mirrors it about centre.X,
// rotates it about the centre and finally translates it. Intermediate and
// final results are rounded to whole units.
func ApplyTransform(p Point, t Transform) Point {
	c := t.Center.Vec()
	v := p.Vec()

	if t.Scaled() {
		v = r2.Add(c, r2.Scale(t.Ratio(), r2.Sub(v, c)))
		v = RoundPoint(v).Vec()
	}

	if t.Mirror {
		v.X = 2*c.X - v.X
	}

	if t.Rotation%3600 != 0 {
		v = rotateAbout(v, c, t.Rotation)
	}

	return RoundPoint(v).Add(t.Move)
}

// rotateAbout rotates v counter-clockwise about c. Quarter turns are exact.
func rotateAbout(v, c r2.Vec, tenths int64) r2.Vec {
	switch ((tenths % 3600) + 3600) % 3600 {
	case 900:
		d := r2.Sub(v, c)
		return r2.Add(c, r2.Vec{X: -d.Y, Y: d.X})
	case 1800:
		d := r2.Sub(v, c)
		return r2.Add(c, r2.Vec{X: -d.X, Y: -d.Y})
	case 2700:
		d := r2.Sub(v, c)
		return r2.Add(c, r2.Vec{X: d.Y, Y: -d.X})
	}
	return r2.Rotate(v, TenthsToRadians(tenths), c)
}

// TenthsToRadians converts an archive angle.
func TenthsToRadians(tenths int64) float64 {
	return float64(tenths) / 10 * math.Pi / 180
}

// RotateVec rotates a destination vector counter-clockwise by deg degrees
// about the origin.
func RotateVec(v r2.Vec, deg float64) r2.Vec {
	switch math.Mod(math.Mod(deg, 360)+360, 360) {
	case 0:
		return v
	case 90:
		return r2.Vec{X: -v.Y, Y: v.X}
	case 180:
		return r2.Vec{X: -v.X, Y: -v.Y}
	case 270:
		return r2.Vec{X: v.Y, Y: -v.X}
	}
	return r2.Rotate(v, deg*math.Pi/180, r2.Vec{})
}

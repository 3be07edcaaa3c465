package geom

import (
	"math"
)

// Quadrant is one of the four orientations a destination instance supports.
type Quadrant int

const (
	Q0 Quadrant = iota
	Q90
	Q180
	Q270
)

// Degrees returns the quadrant angle.
func (q Quadrant) Degrees() float64 { return float64(q) * 90 }

// Tenths returns the quadrant angle in tenths of a degree.
func (q Quadrant) Tenths() int64 { return int64(q) * 900 }

// NormalizeTenths maps an angle into (-1800, 1800].
func NormalizeTenths(a int64) int64 {
	a %= 3600
	if a <= -1800 {
		a += 3600
	} else if a > 1800 {
		a -= 3600
	}
	return a
}

// QuantizeOrientation rounds an archive angle to a quadrant: |a| <= 45 gives
// 0, 45 < a < 135 gives 90, |a| >= 135 gives 180 and -135 < a < -45 gives
// 270. exact is false when the angle was not already a multiple of 90.
func QuantizeOrientation(tenths int64) (q Quadrant, exact bool) {
	a := NormalizeTenths(tenths)
	switch {
	case a >= -450 && a <= 450:
		q = Q0
	case a > 450 && a < 1350:
		q = Q90
	case a >= 1350 || a <= -1350:
		q = Q180
	default:
		q = Q270
	}
	return q, a%900 == 0
}

// QuantizeDegrees applies QuantizeOrientation to a floating angle.
func QuantizeDegrees(deg float64) Quadrant {
	q, _ := QuantizeOrientation(int64(math.Round(deg * 10)))
	return q
}

// Alignment is a text anchor.
type Alignment int

const (
	BottomLeft Alignment = iota
	BottomCenter
	BottomRight
	CenterLeft
	CenterCenter
	CenterRight
	TopLeft
	TopCenter
	TopRight
)

// HAlign and VAlign split an Alignment into its components.
type (
	HAlign int
	VAlign int
)

const (
	HLeft HAlign = iota
	HCenter
	HRight
)

const (
	VBottom VAlign = iota
	VCenter
	VTop
)

// NewAlignment composes an anchor.
func NewAlignment(h HAlign, v VAlign) Alignment {
	return Alignment(int(v)*3 + int(h))
}

// Horizontal returns the horizontal component.
func (a Alignment) Horizontal() HAlign { return HAlign(int(a) % 3) }

// Vertical returns the vertical component.
func (a Alignment) Vertical() VAlign { return VAlign(int(a) / 3) }

// MirrorX swaps left and right.
func (a Alignment) MirrorX() Alignment {
	return NewAlignment(HRight-a.Horizontal(), a.Vertical())
}

// Rotate180 swaps both axes.
func (a Alignment) Rotate180() Alignment {
	return NewAlignment(HRight-a.Horizontal(), VTop-a.Vertical())
}

// quadrantText maps a placement quadrant to the readable text angle and
// whether the anchor turns with it.
var quadrantText = [4]struct {
	angle  Quadrant
	rotate bool
}{
	Q0:   {Q0, false},
	Q90:  {Q90, false},
	Q180: {Q0, true},
	Q270: {Q90, true},
}

// AlignFor composes mirror and quadrant for text placed in an instance. It
// returns the anchor to use and the readable text angle, which is always 0
// or 90 degrees.
func AlignFor(a Alignment, q Quadrant, mirrored bool) (Alignment, Quadrant) {
	if mirrored {
		a = a.MirrorX()
	}
	e := quadrantText[q&3]
	if e.rotate {
		a = a.Rotate180()
	}
	return a, e.angle
}

// SpinStyle is the direction a label or sheet pin extends from its anchor.
type SpinStyle int

const (
	SpinRight SpinStyle = iota
	SpinUp
	SpinLeft
	SpinBottom
)

// Degrees returns the destination text angle for the spin.
func (s SpinStyle) Degrees() float64 { return float64(s) * 90 }

// MirrorX swaps up and bottom.
func (s SpinStyle) MirrorX() SpinStyle {
	switch s {
	case SpinUp:
		return SpinBottom
	case SpinBottom:
		return SpinUp
	}
	return s
}

// MirrorY swaps left and right.
func (s SpinStyle) MirrorY() SpinStyle {
	switch s {
	case SpinLeft:
		return SpinRight
	case SpinRight:
		return SpinLeft
	}
	return s
}

// SpinFromDirection quantizes the direction (dx, dy) in destination page
// space into a spin using the quadrant rules.
func SpinFromDirection(dx, dy float64) SpinStyle {
	deg := math.Atan2(dy, dx) * 180 / math.Pi
	return SpinStyle(QuantizeDegrees(deg))
}

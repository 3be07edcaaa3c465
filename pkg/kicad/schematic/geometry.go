package schematic

import (
	"math"
	"unicode/utf8"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultTextSize is the stock font height and width in mm.
const DefaultTextSize = 1.27

// Position is a coordinate in millimetres. Page coordinates grow
// downwards; library symbol coordinates grow upwards.
type Position struct {
	X float64
	Y float64
}

// Add returns p+q.
func (p Position) Add(q Position) Position { return Position{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Position) Sub(q Position) Position { return Position{X: p.X - q.X, Y: p.Y - q.Y} }

// Vec converts p to a gonum vector.
func (p Position) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// FromVec converts a gonum vector.
func FromVec(v r2.Vec) Position { return Position{X: v.X, Y: v.Y} }

// Angle is a rotation in degrees.
type Angle float64

// PositionAngle combines position with rotation.
type PositionAngle struct {
	Position
	Angle Angle
}

// Size represents dimensions.
type Size struct {
	Width  float64
	Height float64
}

// Stroke defines line appearance. A zero width means the default width.
type Stroke struct {
	Width float64
	Type  string
}

// Fill defines area fill: none, outline or background.
type Fill struct {
	Type string
}

// UUID identifies an item.
type UUID string

// Effects represents text effects.
type Effects struct {
	Font    Font
	Justify Justify
	Hide    bool
}

// Font represents font properties.
type Font struct {
	Size      Size
	Thickness float64
	Bold      bool
	Italic    bool
}

// Justify represents text justification. Empty strings mean centred.
type Justify struct {
	Horizontal string // left, right
	Vertical   string // top, bottom
	Mirror     bool
}

// DefaultEffects returns effects with the stock font.
func DefaultEffects() Effects {
	return Effects{Font: Font{Size: Size{Width: DefaultTextSize, Height: DefaultTextSize}}}
}

// Property is a named field on a symbol or sheet. Position is absolute.
type Property struct {
	Key      string
	Value    string
	Position PositionAngle
	Effects  Effects
}

// BoundingBox represents a rectangular boundary.
type BoundingBox struct {
	Min Position
	Max Position
}

// NewBoundingBox creates an empty bounding box.
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Position{X: math.Inf(1), Y: math.Inf(1)},
		Max: Position{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

// IsEmpty checks if the bounding box is empty.
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand expands the bounding box to include a position.
func (bb *BoundingBox) Expand(pos Position) {
	bb.Min.X = math.Min(bb.Min.X, pos.X)
	bb.Min.Y = math.Min(bb.Min.Y, pos.Y)
	bb.Max.X = math.Max(bb.Max.X, pos.X)
	bb.Max.Y = math.Max(bb.Max.Y, pos.Y)
}

// ExpandBox expands to include another bounding box.
func (bb *BoundingBox) ExpandBox(other BoundingBox) {
	if !other.IsEmpty() {
		bb.Expand(other.Min)
		bb.Expand(other.Max)
	}
}

// Contains checks if a position is within the bounding box.
func (bb BoundingBox) Contains(pos Position) bool {
	return pos.X >= bb.Min.X && pos.X <= bb.Max.X &&
		pos.Y >= bb.Min.Y && pos.Y <= bb.Max.Y
}

// Width returns the width of the bounding box.
func (bb BoundingBox) Width() float64 { return bb.Max.X - bb.Min.X }

// Height returns the height of the bounding box.
func (bb BoundingBox) Height() float64 { return bb.Max.Y - bb.Min.Y }

// Center returns the center point of the bounding box.
func (bb BoundingBox) Center() Position {
	return Position{X: (bb.Min.X + bb.Max.X) / 2, Y: (bb.Min.Y + bb.Max.Y) / 2}
}

// rotate turns (x, y) counter-clockwise by deg in a Y-up frame. Quarter
// turns are exact.
func rotate(p Position, deg Angle) Position {
	switch math.Mod(math.Mod(float64(deg), 360)+360, 360) {
	case 0:
		return p
	case 90:
		return Position{X: -p.Y, Y: p.X}
	case 180:
		return Position{X: -p.X, Y: -p.Y}
	case 270:
		return Position{X: p.Y, Y: -p.X}
	}
	return FromVec(r2.Rotate(p.Vec(), float64(deg)*math.Pi/180, r2.Vec{}))
}

// textBox estimates the page extent of a single line of text anchored at
// at. angle is the reading direction, counter-clockwise on screen.
func textBox(text string, at Position, angle Angle, eff Effects) BoundingBox {
	h := eff.Font.Size.Height
	if h == 0 {
		h = DefaultTextSize
	}
	w := eff.Font.Size.Width
	if w == 0 {
		w = h
	}
	length := 0.8 * w * float64(utf8.RuneCountInString(text))

	var x0 float64
	switch eff.Justify.Horizontal {
	case "left":
		x0 = 0
	case "right":
		x0 = -length
	default:
		x0 = -length / 2
	}
	var y0 float64
	switch eff.Justify.Vertical {
	case "top":
		y0 = 0
	case "bottom":
		y0 = -h
	default:
		y0 = -h / 2
	}

	bb := NewBoundingBox()
	for _, c := range []Position{{x0, y0}, {x0 + length, y0}, {x0, y0 + h}, {x0 + length, y0 + h}} {
		// text is laid out in page space, so a screen CCW turn is a Y-up
		// turn with Y negated on both sides
		r := rotate(Position{X: c.X, Y: -c.Y}, angle)
		bb.Expand(Position{X: at.X + r.X, Y: at.Y - r.Y})
	}
	return bb
}

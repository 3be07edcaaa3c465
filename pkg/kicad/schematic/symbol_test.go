package schematic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resistor() *LibSymbol {
	sym := NewLibSymbol("RES")
	u := sym.EnsureUnit(1)
	u.Graphics = append(u.Graphics, SymGraphic{
		Type:   "polyline",
		Points: []Position{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: -1}},
	})
	u.Pins = append(u.Pins,
		Pin{Type: "passive", Number: "1", Position: Position{X: -2.54}},
		Pin{Type: "passive", Number: "2", Position: Position{X: 2.54}, Angle: 180},
	)
	return sym
}

func TestSymbolPinPosition(t *testing.T) {
	tests := []struct {
		name   string
		angle  Angle
		mirror string
		want   Position
	}{
		{"plain", 0, "", Position{X: 102.54, Y: 50}},
		{"rotated 90", 90, "", Position{X: 100, Y: 47.46}},
		{"rotated 270", 270, "", Position{X: 100, Y: 52.54}},
		{"mirrored", 0, "y", Position{X: 97.46, Y: 50}},
		{"mirrored then 180", 180, "y", Position{X: 102.54, Y: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Symbol{Lib: resistor(), Unit: 1, Position: Position{X: 100, Y: 50}, Angle: tt.angle, Mirror: tt.mirror}
			got, ok := s.PinPosition("2")
			require.True(t, ok)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
		})
	}

	s := &Symbol{Lib: resistor(), Unit: 1}
	_, ok := s.PinPosition("9")
	assert.False(t, ok)
}

func TestLibSymbolUnits(t *testing.T) {
	sym := NewLibSymbol("NAND")
	sym.EnsureUnit(2)
	sym.EnsureUnit(1)
	sym.EnsureUnit(2)
	require.Len(t, sym.Units, 2)
	assert.Equal(t, 1, sym.Units[0].Number)
	assert.Equal(t, 2, sym.UnitCount())
}

func TestLibSymbolCloneIsDeep(t *testing.T) {
	orig := resistor()
	c := orig.Clone("RES (US)")

	assert.Equal(t, "RES (US)", c.Property("Value").Value)
	assert.Equal(t, "RES", orig.Property("Value").Value)

	c.Units[0].Graphics[0].Points[0] = Position{X: 9, Y: 9}
	c.Units[0].Pins[0].Number = "X"
	assert.Equal(t, Position{X: -1, Y: -1}, orig.Units[0].Graphics[0].Points[0])
	assert.Equal(t, "1", orig.Units[0].Pins[0].Number)
}

func TestLibSymbolScale(t *testing.T) {
	sym := resistor()
	sym.Units[0].Pins[0].Length = 1
	sym.Scale(2)

	assert.Equal(t, Position{X: -5.08}, sym.Units[0].Pins[0].Position)
	assert.Equal(t, 2.0, sym.Units[0].Pins[0].Length)
	assert.Equal(t, Position{X: 2, Y: 2}, sym.Units[0].Graphics[0].Points[2])
}

func TestSymbolBoundingBoxSkipsHiddenFields(t *testing.T) {
	s := &Symbol{Lib: resistor(), Unit: 1, Position: Position{X: 10, Y: 10}}
	hidden := s.SetProperty("Footprint", "R_0603")
	hidden.Position.Position = Position{X: 100, Y: 100}
	hidden.Effects.Hide = true

	bb := s.BoundingBox()
	assert.InDelta(t, 7.46, bb.Min.X, 1e-9)
	assert.InDelta(t, 12.54, bb.Max.X, 1e-9)
	assert.InDelta(t, 11, bb.Max.Y, 1e-9)

	ref := s.SetProperty("Reference", "R1")
	ref.Position.Position = Position{X: 10, Y: 20}
	assert.Greater(t, s.BoundingBox().Max.Y, 20.0)
	assert.Equal(t, "R1", s.Reference())

	s.Move(Position{X: 1, Y: 2})
	assert.Equal(t, Position{X: 11, Y: 12}, s.Position)
	assert.Equal(t, Position{X: 11, Y: 22}, s.Property("Reference").Position.Position)
}

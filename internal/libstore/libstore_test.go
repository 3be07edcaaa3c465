package libstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

func resistor(name string) *schematic.LibSymbol {
	sym := schematic.NewLibSymbol(name)
	sym.SetProperty("Reference", "R")
	u := sym.EnsureUnit(1)
	u.Graphics = append(u.Graphics, schematic.SymGraphic{
		Type:   "polyline",
		Points: []schematic.Position{{X: -1, Y: -1}, {X: 1, Y: 1}},
		Fill:   schematic.Fill{Type: "outline"},
	})
	u.Pins = append(u.Pins,
		schematic.Pin{Type: "passive", Position: schematic.Position{X: -2.54}, Number: "1"},
		schematic.Pin{Type: "passive", Position: schematic.Position{X: 2.54}, Angle: 180, Number: "2"},
	)
	return sym
}

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "symbols.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestPutGet(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	require.NoError(t, s.Put(resistor("RES")))
	got, err := s.Get("RES")
	require.NoError(t, err)
	assert.Equal(t, "RES", got.Name)
	assert.Equal(t, "R", got.Property("Reference").Value)

	pin, ok := got.Pin(1, "2")
	require.True(t, ok)
	assert.InDelta(t, 2.54, pin.Position.X, 1e-9)
	assert.Equal(t, schematic.Angle(180), pin.Angle)
	require.Len(t, got.Unit(1).Graphics, 1)
	assert.Equal(t, "outline", got.Unit(1).Graphics[0].Fill.Type)
}

func TestGetMissing(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutReplaces(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	first := resistor("RES")
	require.NoError(t, s.Put(first))
	second := resistor("RES")
	second.SetProperty("Reference", "RN")
	require.NoError(t, s.Put(second))

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := s.Get("RES")
	require.NoError(t, err)
	assert.Equal(t, "RN", got.Property("Reference").Value)
}

func TestReopenKeepsSymbols(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.Put(resistor("RES_B")))
	require.NoError(t, s.Put(resistor("RES_A")))
	require.NoError(t, s.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	names, err := s.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"RES_A", "RES_B"}, names)

	lib, err := s.Library("shared")
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())
	assert.Equal(t, "shared:RES_A", lib.LibID("RES_A"))
}

func TestProjectWritesThroughStore(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	proj := schematic.NewProject("demo", "demo")
	proj.Store = s
	sym, err := proj.CreateLibrarySymbol("NAND")
	require.NoError(t, err)
	require.NoError(t, proj.SaveLibrarySymbol(sym))

	got, err := s.Get("NAND")
	require.NoError(t, err)
	assert.Equal(t, "NAND", got.Name)
}

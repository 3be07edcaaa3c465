package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/diag"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

func wireEnds(ws []*schematic.Wire) [][2]schematic.Position {
	out := make([][2]schematic.Position, len(ws))
	for i, w := range ws {
		out[i] = [2]schematic.Position{w.Points[0], w.Points[1]}
	}
	return out
}

func TestDemoNetGeometry(t *testing.T) {
	proj, col, err := loadUnsized(t, parseDemo(t), Options{})
	require.NoError(t, err)
	assert.Zero(t, col.Count(diag.Error), messages(col.Items))

	root := proj.Root.Schematic
	power := pageNamed(t, proj, "Power supply").Schematic

	// VIN runs from R1 pin 2 and is clipped where it meets the sheet.
	pin := root.Sheets[0].Pins[0]
	assertAt(t, schematic.Position{X: 0, Y: 0}, pin.Position)
	assert.Equal(t, schematic.Angle(180), pin.Side)
	r1 := symbolByRef(t, proj.Root, "R1")
	pin2, ok := r1.PinPosition("2")
	require.True(t, ok)
	assertAt(t, schematic.Position{X: -94.92, Y: 0}, pin2)

	var vin []*schematic.Wire
	for _, w := range root.Wires {
		// only VIN carries a route code
		if w.Stroke.Width > 0 {
			vin = append(vin, w)
		}
	}
	require.Len(t, vin, 1)
	assertAt(t, pin2, vin[0].Points[0])
	assertAt(t, pin.Position, vin[0].Points[1])
	assert.InDelta(t, 0.1524, vin[0].Stroke.Width, 1e-9)

	require.Len(t, power.HierLabels, 1)
	assert.Equal(t, schematic.Angle(180), power.HierLabels[0].Angle)

	labels := make(map[string]*schematic.Label)
	for _, l := range root.Labels {
		labels[l.Text] = l
	}
	require.Contains(t, labels, "$7")
	assertAt(t, schematic.Position{X: -35, Y: 0}, labels["$7"].Position)
	assert.Equal(t, schematic.Angle(0), labels["$7"].Angle)

	require.Contains(t, labels, "D0")
	assertAt(t, schematic.Position{X: -52.54, Y: -28.73}, labels["D0"].Position)
	assert.Equal(t, schematic.Angle(90), labels["D0"].Angle)
	assert.InDelta(t, busTermLabelSize, labels["D0"].Effects.Font.Size.Height, 1e-9)

	entry := root.BusEntries[0]
	assertAt(t, schematic.Position{X: -52.54, Y: -30}, entry.Position)
	assert.InDelta(t, 1.27, entry.Size.Height, 1e-9)
	assert.InDelta(t, 0, entry.Size.Width, 1e-9)

	require.Contains(t, labels, BusLabel("DATA"))
	assertAt(t, schematic.Position{X: -80, Y: -30}, labels[BusLabel("DATA")].Position)

	clk := power.GlobalLabels[0]
	assertAt(t, schematic.Position{X: 50, Y: 0}, clk.Position)
	require.Len(t, power.Labels, 1)
	assert.Equal(t, "CLK", power.Labels[0].Text)
	assertAt(t, schematic.Position{X: 40, Y: 0}, power.Labels[0].Position)
	assert.Equal(t, schematic.Angle(180), power.Labels[0].Angle)
}

func TestConnectionIsExtendedToElements(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC
 (NET N1 (NAME "A")
  (DANGLER E1 S1 (PT 0 0))
  (DANGLER E2 S1 (PT 100000 100000))
  (CONN E1 E2 S1 (PATH (PT 100000 0)))))`)
	proj, _, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	want := [][2]schematic.Position{
		{{X: 0, Y: 0}, {X: 10, Y: 0}},
		{{X: 10, Y: 0}, {X: 10, Y: -10}},
	}
	got := wireEnds(proj.Root.Schematic.Wires)
	require.Len(t, got, len(want))
	for i := range want {
		assertAt(t, want[i][0], got[i][0], "wire %d start", i)
		assertAt(t, want[i][1], got[i][1], "wire %d end", i)
	}
}

func TestConnectionPathAlreadyAtElements(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC
 (NET N1 (NAME "A")
  (DANGLER E1 S1 (PT 0 0))
  (DANGLER E2 S1 (PT 100000 0))
  (CONN E1 E2 S1 (PATH (PT 0 0) (PT 100000 0)))))`)
	proj, _, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)
	assert.Len(t, proj.Root.Schematic.Wires, 1)
}

func TestUnknownElementWarnsOnce(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC
 (NET N1 (NAME "A")
  (DANGLER E1 S1 (PT 0 0))
  (DANGLER E2 S1 (PT 100000 0))
  (CONN E1 E9 S1)
  (CONN E9 E2 S1)
  (CONN E1 E2 S1)))`)
	proj, col, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	warnings := messages(col.Filter(diag.Warning))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "E9")
	assert.Len(t, proj.Root.Schematic.Wires, 1)
	assert.Len(t, proj.Root.Schematic.Labels, 2)
}

func TestUnresolvedElementSkipsItsConnections(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC
 (NET N1 (NAME "A")
  (TERM E1 SYM9 1)
  (DANGLER E2 S1 (PT 100000 0))
  (DANGLER E3 S1 (PT 200000 0))
  (CONN E1 E2 S1)
  (CONN E2 E3 S1)))`)
	proj, col, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	warnings := messages(col.Filter(diag.Warning))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "SYM9")
	assert.Len(t, proj.Root.Schematic.Wires, 1)
}

func TestNoSheetConnectionsAreIgnored(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC
 (NET N1 (NAME "A")
  (DANGLER E1 S1 (PT 0 0))
  (DANGLER E2 S1 (PT 100000 0))
  (CONN E1 E2 NO_SHEET)))`)
	proj, col, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)
	assert.Empty(t, proj.Root.Schematic.Wires)
	assert.Empty(t, col.Items)
}

func TestSheetPinSnapsToOutline(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Main") (SHEET S2 "Sub"))
(SCHEMATIC
 (BLOCK B1 CHILD S1 (ASSOCSHEET S2) `+box+` (TERMINAL 1 (PT 50000 50000)))
 (NET N1 (NAME "EN")
  (DANGLER E1 S1 (PT 50000 200000))
  (BLOCKTERM E2 B1 1)
  (CONN E1 E2 S1)))`)
	proj, _, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	pin := proj.Root.Schematic.Sheets[0].Pins[0]
	assert.Equal(t, "EN", pin.Name)
	assertAt(t, schematic.Position{X: 5, Y: -10}, pin.Position)
	assert.Equal(t, schematic.Angle(90), pin.Side)

	wires := proj.Root.Schematic.Wires
	require.Len(t, wires, 1)
	assertAt(t, schematic.Position{X: 5, Y: -20}, wires[0].Points[0])
	assertAt(t, pin.Position, wires[0].Points[1])
}

func TestJunctionNeedsThreeWires(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC
 (NET N1 (NAME "A")
  (JPT J1 S1 (PT 0 0))
  (DANGLER E1 S1 (PT 100000 0))
  (DANGLER E2 S1 (PT -100000 0))
  (DANGLER E3 S1 (PT 0 100000))
  (CONN J1 E1 S1)
  (CONN J1 E2 S1)
  (CONN J1 E3 S1))
 (NET N2 (NAME "B")
  (JPT J1 S1 (PT 0 500000))
  (DANGLER E1 S1 (PT 100000 500000))
  (DANGLER E2 S1 (PT -100000 500000))
  (CONN J1 E1 S1)
  (CONN J1 E2 S1)))`)
	proj, _, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	js := proj.Root.Schematic.Junctions
	require.Len(t, js, 1)
	assertAt(t, schematic.Position{X: 0, Y: 0}, js[0].Position)
}

func TestPowerSymbolTakesNetName(t *testing.T) {
	arc := parseInline(t, `
(LIBRARY
 (SYMDEF SD_VCC "VCC" (PT 0 0) (TERMINAL 1 (PT 0 0))))
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC
 (SYMBOL SYM1 SD_VCC S1 (PT 0 0) (SYMVARIANT GLOBALSIGNAL "+5V"))
 (SYMBOL SYM2 SD_VCC S1 (PT 100000 0) (SYMVARIANT GLOBALSIGNAL "+5V"))
 (NET N1 (NAME "+5V")
  (TERM E1 SYM1 1)
  (TERM E2 SYM2 1)
  (CONN E1 E2 S1)))`)
	proj, _, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	require.Equal(t, 1, proj.Library.Len())
	lib, ok := proj.Library.Get("VCC (+5V)")
	require.True(t, ok)
	assert.True(t, lib.Power)

	syms := proj.Root.Schematic.Symbols
	require.Len(t, syms, 2)
	assert.Equal(t, "#PWR01", syms[0].Reference())
	assert.Equal(t, "#PWR02", syms[1].Reference())
	for _, s := range syms {
		assert.Equal(t, "+5V", s.Value())
		assert.False(t, s.Property("Value").Effects.Hide)
	}
}

func TestItemsOnUnknownSheetAreReported(t *testing.T) {
	arc := parseInline(t, `
(LIBRARY
 (SYMDEF SD1 "X" (PT 0 0) (TERMINAL 1 (PT 0 0))))
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC
 (SYMBOL SYM1 SD1 S9 (PT 0 0))
 (BUS BUS1 LC0 S9 "DATA" (SHAPE OPENSHAPE (PT 0 0) (PT 100000 0)))
 (NET N1 (NAME "A")
  (DANGLER E1 S9 (PT 0 0))
  (DANGLER E2 S9 (PT 100000 0))
  (CONN E1 E2 S9)))`)
	proj, col, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	root := proj.Root.Schematic
	assert.Empty(t, root.Symbols)
	assert.Empty(t, root.Buses)
	assert.Empty(t, root.Wires)
	assert.Empty(t, root.Labels)

	warnings := messages(col.Filter(diag.Warning))
	require.Len(t, warnings, 3, warnings)
	for _, id := range []string{"symbol SYM1", "bus BUS1", "net N1"} {
		assert.True(t, anyContains(warnings, id+" is on unknown sheet S9"), warnings)
	}
}

func TestLaterConnectionsReachSnappedSheetPin(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Main") (SHEET S2 "Sub"))
(SCHEMATIC
 (BLOCK B1 CHILD S1 (ASSOCSHEET S2) `+box+` (TERMINAL 1 (PT 50000 50000)))
 (NET N1 (NAME "EN")
  (DANGLER E1 S1 (PT 50000 200000))
  (BLOCKTERM E2 B1 1)
  (DANGLER E3 S1 (PT 300000 150000))
  (CONN E1 E2 S1)
  (CONN E3 E2 S1)))`)
	proj, _, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	pin := proj.Root.Schematic.Sheets[0].Pins[0]
	assertAt(t, schematic.Position{X: 5, Y: -10}, pin.Position)

	wires := proj.Root.Schematic.Wires
	require.Len(t, wires, 2)
	assertAt(t, schematic.Position{X: 30, Y: -15}, wires[1].Points[0])
	assertAt(t, pin.Position, wires[1].Points[1])
}

package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/diag"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

// box is a block outline from (0,0) to (100000,100000).
const box = `(FIGURE F1 LC0 (SHAPE OUTLINE (PT 0 0) (PT 100000 0) (PT 100000 100000) (PT 0 100000)))`

func TestOrphanPosition(t *testing.T) {
	tests := []struct {
		i, x, y int
	}{
		{0, 1, 1},
		{1, 3, 1},
		{4, 9, 1},
		{5, 1, 3},
		{7, 5, 3},
		{10, 1, 5},
	}
	for _, tt := range tests {
		x, y := OrphanPosition(tt.i)
		assert.Equal(t, tt.x, x, "x of %d", tt.i)
		assert.Equal(t, tt.y, y, "y of %d", tt.i)
	}
}

func TestSingleOrphanIsRoot(t *testing.T) {
	arc := parseInline(t, `(SHEETS (SHEET S1 "Main"))`)
	proj, col, err := loadUnsized(t, arc, Options{ProjectName: "board"})
	require.NoError(t, err)

	require.Len(t, proj.Pages(), 1)
	assert.Equal(t, "Main", proj.Root.Name)
	assert.Equal(t, "board.kicad_sch", proj.Root.FileName)
	assert.Empty(t, col.Items)
}

func TestOrphansGetSyntheticRoot(t *testing.T) {
	arc := parseInline(t, `(SHEETS (SHEET S1 "Alpha") (SHEET S2 "Beta") (SHEET S3 "Gamma"))`)
	proj, _, err := loadUnsized(t, arc, Options{ProjectName: "board", OrphanStepMM: 10})
	require.NoError(t, err)

	require.Len(t, proj.Pages(), 4)
	assert.Equal(t, "board", proj.Root.Name)
	require.Len(t, proj.Root.Children, 3)

	sheets := proj.Root.Schematic.Sheets
	require.Len(t, sheets, 3)
	for i, want := range []string{"Alpha", "Beta", "Gamma"} {
		assert.Equal(t, want, proj.Root.Children[i].Name)
		x, y := OrphanPosition(i)
		assertAt(t, schematic.Position{X: float64(x) * 10, Y: float64(y) * 10}, sheets[i].Position, want)
		assert.Equal(t, schematic.Size{Width: 10, Height: 10}, sheets[i].Size)
	}
}

func TestNoRootSheet(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "A") (SHEET S2 "B"))
(SCHEMATIC
 (BLOCK B1 CHILD S1 (ASSOCSHEET S2) `+box+`)
 (BLOCK B2 CHILD S2 (ASSOCSHEET S1) `+box+`))`)

	err := Load(arc, schematic.NewProject("x", "x"), nil, Options{})
	assert.ErrorIs(t, err, ErrNoRootSheet)
}

func TestChildBlocksBuildHierarchy(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Top") (SHEET S2 "Mid") (SHEET S3 "Leaf"))
(SCHEMATIC
 (BLOCK B1 CHILD S1 (ASSOCSHEET S2) (NAME "Middle") `+box+`
  (TERMINAL 1 (PT 0 50000) (NAME "IN"))
  (TERMINAL 2 (PT 50000 100000)))
 (BLOCK B2 CHILD S2 (ASSOCSHEET S3) `+box+`))`)
	proj, col, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)
	assert.Zero(t, col.Count(diag.Error))

	var order []string
	require.NoError(t, proj.Walk(func(pg *schematic.Page, depth int) error {
		order = append(order, pg.Name)
		return nil
	}))
	assert.Equal(t, []string{"Top", "Middle", "Leaf"}, order)

	sheet := proj.Root.Schematic.Sheets[0]
	assertAt(t, schematic.Position{X: 0, Y: -10}, sheet.Position)
	assert.Equal(t, schematic.Size{Width: 10, Height: 10}, sheet.Size)

	require.Len(t, sheet.Pins, 2)
	assert.Equal(t, "IN", sheet.Pins[0].Name)
	assert.Equal(t, schematic.Angle(180), sheet.Pins[0].Side)
	assert.Equal(t, "2", sheet.Pins[1].Name)
	// archive y 100000 is the top edge once Y is flipped
	assert.Equal(t, schematic.Angle(90), sheet.Pins[1].Side)
}

func TestSharedSheetIsReported(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Top") (SHEET S2 "Shared"))
(SCHEMATIC
 (BLOCK B1 CHILD S1 (ASSOCSHEET S2) `+box+`)
 (BLOCK B2 CHILD S1 (ASSOCSHEET S2) `+box+`))`)
	proj, col, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	assert.Len(t, proj.Pages(), 2)
	errs := messages(col.Filter(diag.Error))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "B2")
}

func TestUnreachableSheetsAreReported(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Top") (SHEET S2 "Left") (SHEET S3 "Right"))
(SCHEMATIC
 (BLOCK B1 CHILD S2 (ASSOCSHEET S3) `+box+`)
 (BLOCK B2 CHILD S3 (ASSOCSHEET S2) `+box+`))`)
	proj, col, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	assert.Len(t, proj.Pages(), 1)
	errs := messages(col.Filter(diag.Error))
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "S2")
	assert.Contains(t, errs[1], "S3")
}

func TestUnusableBlocksAreSkipped(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Top") (SHEET S2 "Sub"))
(SCHEMATIC
 (BLOCK B1 CHILD S1 (ASSOCSHEET NO_LINK) `+box+`)
 (BLOCK B2 CHILD S1 (ASSOCSHEET S2))
 (BLOCK B3 CHILD S1 (ASSOCSHEET S9) `+box+`))`)
	proj, col, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	assert.Empty(t, proj.Root.Schematic.Sheets)
	warnings := messages(col.Filter(diag.Warning))
	assert.True(t, anyContains(warnings, "block B1"), warnings)
	assert.True(t, anyContains(warnings, "block B2"), warnings)
	assert.True(t, anyContains(warnings, "block B3"), warnings)
}

func TestParentBlockBecomesHierLabels(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Top") (SHEET S2 "Sub"))
(SCHEMATIC
 (BLOCK B1 CHILD S1 (ASSOCSHEET S2) `+box+` (TERMINAL 1 (PT 0 50000) (NAME "CLK")))
 (BLOCK B2 PARENT S2 (ASSOCSHEET S1) (TERMINAL 1 (PT 20000 30000) (ORIENT 900) (NAME "CLK"))))`)
	proj, _, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	sub := pageNamed(t, proj, "Sub")
	require.Len(t, sub.Schematic.HierLabels, 1)
	l := sub.Schematic.HierLabels[0]
	assert.Equal(t, "CLK", l.Text)
	assertAt(t, schematic.Position{X: 2, Y: -3}, l.Position)
	assert.Equal(t, schematic.Angle(90), l.Angle)
}

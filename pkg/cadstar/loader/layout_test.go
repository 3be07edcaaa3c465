package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

func TestPageLayout(t *testing.T) {
	bb := schematic.BoundingBox{
		Min: schematic.Position{X: 100, Y: -50},
		Max: schematic.Position{X: 1100, Y: 450},
	}
	l := PageLayout(bb, 10)

	assert.InDelta(t, 30, l.Margin, 1e-9)
	assert.InDelta(t, 1060, l.Paper.Width, 1e-9)
	assert.InDelta(t, 560, l.Paper.Height, 1e-9)
	assert.InDelta(t, -70, l.Offset.X, 1e-9)
	assert.InDelta(t, 80, l.Offset.Y, 1e-9)
}

func TestPageLayoutWithoutGrid(t *testing.T) {
	bb := schematic.BoundingBox{
		Min: schematic.Position{X: 3, Y: 4},
		Max: schematic.Position{X: 103, Y: 54},
	}
	l := PageLayout(bb, 0)

	assert.InDelta(t, 3, l.Margin, 1e-9)
	assert.InDelta(t, 106, l.Paper.Width, 1e-9)
	assert.InDelta(t, 56, l.Paper.Height, 1e-9)
	assert.InDelta(t, 0, l.Offset.X, 1e-9)
	assert.InDelta(t, -1, l.Offset.Y, 1e-9)
}

func TestEmptyPageKeepsDefaultPaper(t *testing.T) {
	arc := parseInline(t, `(SHEETS (SHEET S1 "Main"))`)
	proj := schematic.NewProject("x", "x")
	require.NoError(t, Load(arc, proj, nil, Options{}))

	s := proj.Root.Schematic
	assert.Empty(t, s.PaperName)
	assert.Equal(t, schematic.Paper{Width: 297, Height: 210}, s.Paper)
	assert.Equal(t, []string{"Main"}, s.TitleBlock.Comments)
}

func TestLayoutMovesContentInsideMargin(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC
 (FIGURE F1 LC0 S1 (SHAPE OPENSHAPE (PT -5000000 0) (PT 5000000 2000000))))`)
	proj := schematic.NewProject("x", "x")
	require.NoError(t, Load(arc, proj, nil, Options{GridStepMM: 2.54}))

	s := proj.Root.Schematic
	require.Len(t, s.Polylines, 1)
	bb := s.GetBoundingBox()
	// 1000 x 200 mm content, 30 mm margin rounded to 2.54
	m := 30.48
	assert.InDelta(t, 1000+2*m, s.Paper.Width, 1e-6)
	assert.InDelta(t, 200+2*m, s.Paper.Height, 1e-6)
	assert.InDelta(t, m, bb.Min.X, 2.54/2)
	assert.InDelta(t, m, bb.Min.Y, 2.54/2)
	assert.Equal(t, "User", s.PaperName)
}

package loader

import (
	"math"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/geom"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

// marginRatio is the page margin as a share of the longer content side.
const marginRatio = 0.03

// Layout is the page size and content translation for one page.
type Layout struct {
	Margin float64
	Paper  schematic.Paper
	Offset schematic.Position
}

// PageLayout sizes a page around bb: the margin is 3% of the longer side
// rounded to the grid, the page is the box plus a margin on every side and
// the content moves by a grid-aligned offset so the box starts one margin
// in.
func PageLayout(bb schematic.BoundingBox, grid float64) Layout {
	w, h := bb.Width(), bb.Height()
	m := geom.RoundToGrid(marginRatio*math.Max(w, h), grid)
	return Layout{
		Margin: m,
		Paper:  schematic.Paper{Width: w + 2*m, Height: h + 2*m},
		Offset: schematic.Position{
			X: geom.RoundToGrid(m-bb.Min.X, grid),
			Y: geom.RoundToGrid(m-bb.Min.Y, grid),
		},
	}
}

// layoutPages fits every page to its visible content and fills in the
// title blocks.
func (c *importContext) layoutPages() error {
	h := c.arc.Header
	for _, pg := range c.pageOrder {
		sch := pg.Schematic
		tb := &sch.TitleBlock
		if h.JobTitle != "" {
			tb.Title = h.JobTitle
		}
		if !h.Timestamp.IsZero() {
			tb.Date = h.Timestamp.Format("2006-01-02")
		}
		tb.Comments = []string{pg.Name}

		bb := sch.GetBoundingBox()
		if bb.IsEmpty() {
			continue
		}
		l := PageLayout(bb, c.grid)
		sch.Move(l.Offset)
		sch.Paper = l.Paper
		sch.PaperName = "User"
		c.log.Debug("page sized", "sheet", pg.Name, "width", l.Paper.Width, "height", l.Paper.Height)
	}
	return nil
}

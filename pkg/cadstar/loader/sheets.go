package loader

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/archive"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/geom"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

type sheetState int

const (
	unvisited sheetState = iota
	placed
	expanded
)

// orphansPerRow is how many sheet symbols a synthetic root holds per row.
const orphansPerRow = 5

// OrphanPosition returns the grid cell, in steps, of the i-th orphan on a
// synthetic root: x runs 1, 3, 5, 7, 9 and each row is two steps lower.
func OrphanPosition(i int) (x, y int) {
	return 1 + 2*(i%orphansPerRow), 1 + 2*(i/orphansPerRow)
}

// orphanSheets lists the sheets no child block links to, in declaration
// order.
func (c *importContext) orphanSheets() []archive.LayerID {
	linked := make(map[archive.LayerID]bool)
	for _, b := range c.arc.Schematic.Blocks.Values() {
		if b.Kind == archive.BlockChild {
			linked[b.AssocSheet] = true
		}
	}
	var out []archive.LayerID
	for _, id := range c.arc.Sheets.Names.Keys() {
		if !linked[id] {
			out = append(out, id)
		}
	}
	return out
}

func (c *importContext) sheetName(id archive.LayerID) string {
	if name, ok := c.arc.Sheets.Names.Get(id); ok && name != "" {
		return name
	}
	return string(id)
}

// loadSheets builds the page tree. Child blocks become sheet symbols on
// their parent page and their linked sheets become sub-pages.
func (c *importContext) loadSheets() error {
	orphans := c.orphanSheets()
	if len(orphans) == 0 {
		return ErrNoRootSheet
	}

	state := make(map[archive.LayerID]sheetState)

	if len(orphans) == 1 {
		root, err := c.design.CreateSheet(nil, c.sheetName(orphans[0]), schematic.Position{}, schematic.Size{})
		if err != nil {
			return fmt.Errorf("failed to create root page: %w", err)
		}
		c.addPage(orphans[0], root)
		state[orphans[0]] = placed
	} else {
		root, err := c.design.CreateSheet(nil, c.opts.ProjectName, schematic.Position{}, schematic.Size{})
		if err != nil {
			return fmt.Errorf("failed to create root page: %w", err)
		}
		c.pageOrder = append(c.pageOrder, root)
		step := c.opts.OrphanStepMM
		for i, id := range orphans {
			x, y := OrphanPosition(i)
			pos := schematic.Position{X: float64(x) * step, Y: float64(y) * step}
			pg, err := c.design.CreateSheet(root, c.sheetName(id), pos, schematic.Size{Width: step, Height: step})
			if err != nil {
				return fmt.Errorf("failed to create page for sheet %s: %w", id, err)
			}
			c.addPage(id, pg)
			state[id] = placed
		}
	}

	for _, id := range orphans {
		if err := c.expandSheet(id, state); err != nil {
			return err
		}
	}

	for _, id := range c.arc.Sheets.Names.Keys() {
		if state[id] == unvisited {
			c.errorf("sheet %s (%s) is not reachable from a root sheet and was not loaded", id, c.sheetName(id))
		}
	}
	return nil
}

func (c *importContext) addPage(id archive.LayerID, pg *schematic.Page) {
	c.pages[id] = pg
	c.pageOrder = append(c.pageOrder, pg)
	c.log.Debug("page created", "sheet", string(id), "file", pg.FileName)
}

// expandSheet places the sub-sheets of every child block drawn on id,
// depth first.
func (c *importContext) expandSheet(id archive.LayerID, state map[archive.LayerID]sheetState) error {
	state[id] = expanded
	parent := c.pages[id]

	for _, blk := range c.arc.Schematic.Blocks.Values() {
		if blk.Kind != archive.BlockChild || blk.Layer != id {
			continue
		}
		target := blk.AssocSheet
		switch {
		case target == archive.NoLink:
			c.warnf("block %s is not linked to a sheet and was skipped", blk.ID)
			continue
		case len(blk.Figures) == 0:
			c.warnf("block %s has no outline and was skipped", blk.ID)
			continue
		}
		if _, ok := c.arc.Sheets.Names.Get(target); !ok {
			c.warnf("block %s links to unknown sheet %s and was skipped", blk.ID, target)
			continue
		}
		if state[target] != unvisited {
			c.errorf("block %s links to sheet %s which is already placed; the hierarchy has a cycle or a shared sheet",
				blk.ID, target)
			continue
		}

		rect := c.blockRect(blk)
		name := blk.Name
		if name == "" {
			name = c.sheetName(target)
		}
		pos := schematic.FromVec(rect.Min)
		size := schematic.Size{Width: rect.Max.X - rect.Min.X, Height: rect.Max.Y - rect.Min.Y}
		pg, err := c.design.CreateSheet(parent, name, pos, size)
		if err != nil {
			return fmt.Errorf("failed to create page for sheet %s: %w", target, err)
		}
		c.addPage(target, pg)
		state[target] = placed
		c.sheets[blk.ID] = pg.Sheet
		c.addSheetPins(blk, pg.Sheet, rect)

		if err := c.expandSheet(target, state); err != nil {
			return err
		}
	}
	return nil
}

// blockRect is the extent of a block's figures on the destination page.
func (c *importContext) blockRect(blk *archive.Block) geom.Rect {
	minV := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	maxV := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, f := range blk.Figures {
		for _, v := range f.Shape.Vertices {
			p := c.space.ToDestinationPoint(v.End)
			minV = r2.Vec{X: math.Min(minV.X, p.X), Y: math.Min(minV.Y, p.Y)}
			maxV = r2.Vec{X: math.Max(maxV.X, p.X), Y: math.Max(maxV.Y, p.Y)}
		}
	}
	return geom.NewRect(minV, maxV)
}

// addSheetPins turns block terminals into sheet pins. Sides follow the
// nearest edge until a net wire refines them.
func (c *importContext) addSheetPins(blk *archive.Block, sheet *schematic.Sheet, rect geom.Rect) {
	pins := make(map[archive.TerminalID]*schematic.SheetPin)
	for _, t := range blk.Terminals.Values() {
		pos := c.space.ToDestinationPoint(t.Position)
		name := t.Name
		if name == "" {
			name = strconv.FormatInt(int64(t.ID), 10)
		}
		pin := &schematic.SheetPin{
			Name:     name,
			Shape:    "passive",
			Position: schematic.FromVec(pos),
			Side:     schematic.Angle(nearestSide(pos, rect).Degrees()),
			Effects:  schematic.DefaultEffects(),
			UUID:     c.uuid("sheetpin", blk.ID, t.ID),
		}
		sheet.Pins = append(sheet.Pins, pin)
		pins[t.ID] = pin
	}
	c.sheetPins[blk.ID] = pins
}

// nearestSide picks the rectangle edge closest to p as a spin pointing
// out of the sheet.
func nearestSide(p r2.Vec, r geom.Rect) geom.SpinStyle {
	best, side := math.Abs(p.X-r.Min.X), geom.SpinLeft
	if d := math.Abs(p.X - r.Max.X); d < best {
		best, side = d, geom.SpinRight
	}
	// page Y grows downwards
	if d := math.Abs(p.Y - r.Min.Y); d < best {
		best, side = d, geom.SpinUp
	}
	if d := math.Abs(p.Y - r.Max.Y); d < best {
		side = geom.SpinBottom
	}
	return side
}

// loadParentBlocks turns the parent interface drawn inside a sub-sheet
// into hierarchical labels.
func (c *importContext) loadParentBlocks() error {
	for _, blk := range c.arc.Schematic.Blocks.Values() {
		if blk.Kind != archive.BlockParent {
			continue
		}
		pg := c.pageFor("block", blk.ID, blk.Layer)
		if pg == nil {
			continue
		}
		labels := make(map[archive.TerminalID]*schematic.HierLabel)
		for _, t := range blk.Terminals.Values() {
			name := t.Name
			if name == "" {
				name = strconv.FormatInt(int64(t.ID), 10)
			}
			q, _ := geom.QuantizeOrientation(t.Orientation)
			l := &schematic.HierLabel{
				Text:     name,
				Shape:    "passive",
				Position: c.pageXY(t.Position),
				Angle:    schematic.Angle(q.Degrees()),
				Effects:  schematic.DefaultEffects(),
				UUID:     c.uuid("hierlabel", blk.ID, t.ID),
			}
			if err := c.design.AppendItem(pg, l); err != nil {
				return fmt.Errorf("failed to add hierarchical label %q: %w", name, err)
			}
			labels[t.ID] = l
		}
		c.hierPins[blk.ID] = labels
	}
	return nil
}

package loader

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/archive"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/geom"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/textfield"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

// loadGraphics draws free figures, texts, documentation symbols and
// dimensions.
func (c *importContext) loadGraphics() error {
	s := c.arc.Schematic
	for _, f := range s.Figures.Values() {
		for _, pg := range c.layerPages("figure", f.ID, f.Layer) {
			if err := c.drawFigure(pg, f, c.space.ToDestinationPoint, "figure", string(f.ID), pg.FileName); err != nil {
				return err
			}
		}
	}
	for _, t := range s.Texts.Values() {
		for _, pg := range c.layerPages("text", t.ID, t.Layer) {
			if err := c.drawText(pg, t, t.Position, t.Orientation, t.Mirror, "text", string(t.ID), pg.FileName); err != nil {
				return err
			}
		}
	}
	for _, ds := range s.DocSymbols.Values() {
		sd, ok := c.arc.Library.Symdefs.Get(ds.Symdef)
		if !ok {
			c.warnf("documentation symbol %s uses unknown symbol definition %s and was skipped", ds.ID, ds.Symdef)
			continue
		}
		for _, pg := range c.layerPages("documentation symbol", ds.ID, ds.Layer) {
			t := placement(ds.Origin, sd.Origin, ds.Orientation, ds.Mirror, ds.Scale)
			if err := c.drawSymdef(pg, sd, t, "docsymbol", string(ds.ID)); err != nil {
				return err
			}
		}
	}
	for _, d := range s.Dimensions.Values() {
		pg := c.pageFor("dimension", d.ID, d.Layer)
		if pg == nil {
			continue
		}
		c.warnf("dimension %s was converted to lines and text", d.ID)
		if err := c.drawDimension(pg, d); err != nil {
			return err
		}
	}
	return nil
}

// layerPages resolves a layer to the pages it is drawn on.
func (c *importContext) layerPages(kind string, id any, layer archive.LayerID) []*schematic.Page {
	switch layer {
	case archive.NoSheet:
		return nil
	case archive.AllSheets:
		return c.sheetPages()
	}
	if pg := c.pageFor(kind, id, layer); pg != nil {
		return []*schematic.Page{pg}
	}
	return nil
}

func (c *importContext) drawFigure(pg *schematic.Page, f *archive.Figure, conv func(archive.Point) r2.Vec, kind string, ids ...string) error {
	stroke := c.lineStroke(f.LineCode)
	for i, o := range traceShape(f.Shape, conv) {
		item := o.item(stroke, c.uuid(kind, append(anySlice(ids), f.ID, i)...))
		if err := c.design.AppendItem(pg, item); err != nil {
			return fmt.Errorf("failed to draw figure %s: %w", f.ID, err)
		}
	}
	return nil
}

// drawText places archive text at a sheet coordinate. Orientation is
// quantized with a warning; the anchor follows the quantized angle.
func (c *importContext) drawText(pg *schematic.Page, t *archive.Text, at archive.Point, orientation int64, mirror bool, kind string, ids ...string) error {
	q, exact := geom.QuantizeOrientation(orientation)
	if !exact {
		c.warnf("text %s: rotation %.1f° rounded to %.0f°", t.ID, float64(orientation)/10, q.Degrees())
	}
	align, angle := geom.AlignFor(t.Alignment, q, mirror)
	eff := c.textEffects(t.TextCode)
	eff.Justify = justify(align)

	body := t.Text
	if c.opts.TranslateFields {
		translated, err := textfield.Translate(body)
		if err != nil {
			c.warnf("text %s: field template not translated: %v", t.ID, err)
		} else {
			body = translated
		}
	}

	item := &schematic.Text{
		Text:     body,
		Position: c.pageXY(at),
		Angle:    schematic.Angle(angle.Degrees()),
		Effects:  eff,
		UUID:     c.uuid(kind, anySlice(ids)...),
	}
	if err := c.design.AppendItem(pg, item); err != nil {
		return fmt.Errorf("failed to draw text %s: %w", t.ID, err)
	}
	return nil
}

// drawSymdef draws the figures and texts of a definition through an
// instance transform.
func (c *importContext) drawSymdef(pg *schematic.Page, sd *archive.Symdef, t geom.Transform, kind, id string) error {
	conv := func(p archive.Point) r2.Vec {
		return c.space.ToDestinationPoint(geom.ApplyTransform(p, t))
	}
	for _, f := range sd.Figures {
		if err := c.drawFigure(pg, f, conv, kind, id, pg.FileName); err != nil {
			return err
		}
	}
	for _, txt := range sd.Texts {
		at := geom.ApplyTransform(txt.Position, t)
		if err := c.drawText(pg, txt, at, txt.Orientation+t.Rotation, txt.Mirror != t.Mirror, kind, id, string(txt.ID), pg.FileName); err != nil {
			return err
		}
	}
	return nil
}

// drawDimension approximates a dimension with its measured line and label.
func (c *importContext) drawDimension(pg *schematic.Page, d *archive.Dimension) error {
	line := &schematic.Polyline{
		Points: []schematic.Position{c.pageXY(d.Start), c.pageXY(d.End)},
		Stroke: c.lineStroke(d.LineCode),
		UUID:   c.uuid("dimension", d.ID, "line"),
	}
	if err := c.design.AppendItem(pg, line); err != nil {
		return fmt.Errorf("failed to draw dimension %s: %w", d.ID, err)
	}

	text, at := d.Text, d.TextPos
	if !d.HasText {
		mm := r2.Norm(r2.Sub(c.space.ToDestinationPoint(d.End), c.space.ToDestinationPoint(d.Start)))
		text = fmt.Sprintf("%.2f mm", mm)
		at = archive.Point{X: (d.Start.X + d.End.X) / 2, Y: (d.Start.Y + d.End.Y) / 2}
	}
	eff := c.textEffects(d.TextCode)
	eff.Justify = justify(geom.BottomCenter)
	label := &schematic.Text{
		Text:     text,
		Position: c.pageXY(at),
		Effects:  eff,
		UUID:     c.uuid("dimension", d.ID, "text"),
	}
	if err := c.design.AppendItem(pg, label); err != nil {
		return fmt.Errorf("failed to draw dimension %s: %w", d.ID, err)
	}
	return nil
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

package loader

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/geom"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

// BusLabel is the label text that attaches a bus to its alias.
func BusLabel(name string) string {
	return "{" + name + "}"
}

// loadBuses draws every bus as two-point segments, registers an alias for
// its name and labels its first point so member nets can join. The label
// keeps the archive label's orientation and size.
func (c *importContext) loadBuses() error {
	for _, bus := range c.arc.Schematic.Buses.Values() {
		pg := c.pageFor("bus", bus.ID, bus.Layer)
		if pg == nil {
			continue
		}
		name := bus.Name
		if name == "" {
			name = string(bus.ID)
		}
		alias, err := c.design.RegisterBusAlias(pg, name)
		if err != nil {
			return fmt.Errorf("failed to register bus %s: %w", bus.ID, err)
		}
		c.aliases[bus.ID] = alias

		stroke := c.lineStroke(bus.LineCode)
		var first schematic.Position
		for i, o := range traceShape(bus.Shape, c.space.ToDestinationPoint) {
			pts := o.points
			if o.arc {
				c.warnf("bus %s: arc segment drawn as a straight line", bus.ID)
				pts = []r2.Vec{o.start, o.end}
			}
			for j := 0; j+1 < len(pts); j++ {
				b := &schematic.Bus{
					Points: []schematic.Position{schematic.FromVec(pts[j]), schematic.FromVec(pts[j+1])},
					Stroke: stroke,
					UUID:   c.uuid("bus", bus.ID, i, j),
				}
				if i == 0 && j == 0 {
					first = b.Points[0]
				}
				if err := c.design.AppendItem(pg, b); err != nil {
					return fmt.Errorf("failed to draw bus %s: %w", bus.ID, err)
				}
			}
		}

		l := &schematic.Label{
			Text:     BusLabel(name),
			Position: first,
			Effects:  schematic.DefaultEffects(),
			UUID:     c.uuid("buslabel", bus.ID),
		}
		if bus.Label != nil {
			q, _ := geom.QuantizeOrientation(bus.Label.Orientation)
			l.Angle = schematic.Angle(q.Degrees())
			l.Effects = c.textEffects(bus.Label.TextCode)
		}
		if err := c.design.AppendItem(pg, l); err != nil {
			return fmt.Errorf("failed to label bus %s: %w", bus.ID, err)
		}
	}
	return nil
}

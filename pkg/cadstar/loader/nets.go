package loader

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/archive"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/geom"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

// busTermLabelSize is the text size of a label added to a bus terminal
// that had no label in the archive.
const busTermLabelSize = 0.5

// endpoint is a net element resolved to a sheet coordinate and whatever
// destination item sits there.
type endpoint struct {
	el    *archive.Element
	layer archive.LayerID
	pos   archive.Point

	sheetPin  *schematic.SheetPin
	sheetRect geom.Rect
	hier      *schematic.HierLabel
	power     *schematic.Symbol
	signal    *schematic.GlobalLabel
	bus       *archive.Bus

	// dir points from the endpoint along the first wire ending on it
	dir    r2.Vec
	hasDir bool
	wires  int
}

// loadNets draws the wires of every net and names what they connect.
func (c *importContext) loadNets() error {
	for _, net := range c.arc.Schematic.Nets.Values() {
		if err := c.loadNet(net); err != nil {
			return err
		}
	}
	return nil
}

func (c *importContext) loadNet(net *archive.Net) error {
	name := net.DisplayName()
	eps := make(map[archive.ElementID]*endpoint, net.Elements.Len())
	for _, el := range net.Elements.Values() {
		ep, problem := c.resolveElement(el)
		if problem != "" {
			c.warnf("net %s: element %s %s; its connections were skipped", name, el.ID, problem)
		}
		eps[el.ID] = ep
	}

	missing := make(map[archive.ElementID]bool)
	lookup := func(id archive.ElementID) *endpoint {
		if _, known := net.Elements.Get(id); !known && !missing[id] {
			missing[id] = true
			c.warnf("net %s: connection refers to unknown element %s and was skipped", name, id)
		}
		return eps[id]
	}

	for i, conn := range net.Connections {
		if conn.Layer == archive.NoSheet {
			continue
		}
		start, end := lookup(conn.Start), lookup(conn.End)
		if start == nil || end == nil {
			continue
		}
		pg := c.pageFor("net", net.ID, conn.Layer)
		if pg == nil {
			continue
		}

		pts := c.wirePath(conn, start, end)
		if len(pts) >= 2 {
			start.touch(r2.Sub(pts[1], pts[0]))
			end.touch(r2.Sub(pts[len(pts)-2], pts[len(pts)-1]))
		}

		stroke := schematic.Stroke{}
		rcID := conn.RouteCode
		if rcID == "" {
			rcID = net.RouteCode
		}
		if rc, ok := c.arc.Assignments.RouteCodes.Get(rcID); ok {
			stroke.Width = c.space.Length(rc.Width)
		}
		for j := 0; j+1 < len(pts); j++ {
			if geom.SameVec(pts[j], pts[j+1]) {
				continue
			}
			w := &schematic.Wire{
				Points: []schematic.Position{schematic.FromVec(pts[j]), schematic.FromVec(pts[j+1])},
				Stroke: stroke,
				UUID:   c.uuid("wire", net.ID, i, j),
			}
			if err := c.design.AppendItem(pg, w); err != nil {
				return fmt.Errorf("failed to draw net %s: %w", name, err)
			}
		}
	}

	for _, el := range net.Elements.Values() {
		if ep := eps[el.ID]; ep != nil {
			if err := c.finishEndpoint(net, name, ep); err != nil {
				return err
			}
		}
	}
	c.log.Debug("net loaded", "net", name, "connections", len(net.Connections))
	return nil
}

func (ep *endpoint) touch(dir r2.Vec) {
	ep.wires++
	if !ep.hasDir && (dir.X != 0 || dir.Y != 0) {
		ep.dir, ep.hasDir = dir, true
	}
}

// resolveElement finds the coordinate of a net element. problem describes
// why it could not be resolved.
func (c *importContext) resolveElement(el *archive.Element) (ep *endpoint, problem string) {
	ep = &endpoint{el: el, layer: el.Layer, pos: el.Position}
	switch el.Kind {
	case archive.ElementPin:
		s, ok := c.arc.Schematic.Symbols.Get(el.Symbol)
		if !ok {
			return nil, fmt.Sprintf("refers to unknown symbol %s", el.Symbol)
		}
		sd, ok := c.arc.Library.Symdefs.Get(s.Symdef)
		if !ok {
			return nil, fmt.Sprintf("refers to symbol %s with unknown definition %s", s.ID, s.Symdef)
		}
		term, ok := sd.Terminals.Get(el.Terminal)
		if !ok {
			return nil, fmt.Sprintf("refers to unknown terminal %d of symbol %s", el.Terminal, s.ID)
		}
		ep.layer = s.Layer
		ep.pos = c.pinPosition(s, sd, term)
		ep.power = c.powerSymbols[s.ID]
		ep.signal = c.signalRefs[s.ID]

	case archive.ElementBusTerm:
		bus, ok := c.arc.Schematic.Buses.Get(el.Bus)
		if !ok {
			return nil, fmt.Sprintf("refers to unknown bus %s", el.Bus)
		}
		ep.layer = bus.Layer
		ep.pos = el.Second
		ep.bus = bus

	case archive.ElementBlockTerm:
		blk, ok := c.arc.Schematic.Blocks.Get(el.Block)
		if !ok {
			return nil, fmt.Sprintf("refers to unknown block %s", el.Block)
		}
		term, ok := blk.Terminals.Get(el.Terminal)
		if !ok {
			return nil, fmt.Sprintf("refers to unknown terminal %d of block %s", el.Terminal, blk.ID)
		}
		ep.layer = blk.Layer
		ep.pos = term.Position
		if pin := c.sheetPins[blk.ID][term.ID]; pin != nil {
			ep.sheetPin = pin
			ep.sheetRect = c.blockRect(blk)
		}
		ep.hier = c.hierPins[blk.ID][term.ID]
	}
	return ep, ""
}

// wirePath returns the destination polyline of a connection. The path is
// extended to both element coordinates and clipped at sheet symbols, whose
// pins move to where the wire meets the outline.
func (c *importContext) wirePath(conn *archive.Connection, start, end *endpoint) []r2.Vec {
	first, last := start.target(c.space), end.target(c.space)
	pts := make([]r2.Vec, 0, len(conn.Path)+2)
	if len(conn.Path) == 0 || !geom.SameVec(c.space.ToDestinationPoint(conn.Path[0]), first) {
		pts = append(pts, first)
	}
	for _, p := range conn.Path {
		pts = append(pts, c.space.ToDestinationPoint(p))
	}
	if !geom.SameVec(pts[len(pts)-1], last) {
		pts = append(pts, last)
	}

	if end.sheetPin != nil {
		if clipped, hit, ok := geom.ClipToRect(pts, end.sheetRect); ok {
			pts = clipped
			end.sheetPin.Position = schematic.FromVec(hit)
		}
	}
	if start.sheetPin != nil {
		if clipped, hit, ok := geom.ClipToRect(geom.Reverse(pts), start.sheetRect); ok {
			pts = geom.Reverse(clipped)
			start.sheetPin.Position = schematic.FromVec(hit)
		}
	}
	return pts
}

// target is where a wire attaches to the endpoint: a sheet pin's current
// position, which earlier connections may have snapped to the outline, or
// the element coordinate.
func (ep *endpoint) target(space geom.Space) r2.Vec {
	if ep.sheetPin != nil {
		return ep.sheetPin.Position.Vec()
	}
	return space.ToDestinationPoint(ep.pos)
}

// spin is the direction text at the endpoint should extend: away from its
// wire, or the archive label orientation when no wire ends there.
func (ep *endpoint) spin() geom.SpinStyle {
	if ep.hasDir {
		return geom.SpinFromDirection(ep.dir.X, ep.dir.Y).MirrorY()
	}
	if ep.el.Label != nil {
		q, _ := geom.QuantizeOrientation(ep.el.Label.Orientation)
		return geom.SpinStyle(q)
	}
	return geom.SpinRight
}

// finishEndpoint names the item at an endpoint after the net and adds the
// labels, bus entries and junctions the element implies.
func (c *importContext) finishEndpoint(net *archive.Net, name string, ep *endpoint) error {
	pg := c.pageFor("net", net.ID, ep.layer)
	if pg == nil {
		return nil
	}
	el := ep.el

	switch el.Kind {
	case archive.ElementPin:
		if ep.power != nil {
			ep.power.SetProperty("Value", name)
		}
		if ep.signal != nil {
			ep.signal.Text = name
		}
		if el.Label != nil && net.Name != "" {
			return c.addLabel(pg, net, name, ep, c.textEffects(el.Label.TextCode))
		}

	case archive.ElementDangler:
		eff := schematic.DefaultEffects()
		if el.Label != nil {
			eff = c.textEffects(el.Label.TextCode)
		}
		return c.addLabel(pg, net, name, ep, eff)

	case archive.ElementJunction:
		if ep.wires >= 3 {
			j := &schematic.Junction{Position: c.pageXY(ep.pos), UUID: c.uuid("junction", net.ID, el.ID)}
			if err := c.design.AppendItem(pg, j); err != nil {
				return fmt.Errorf("failed to add junction on net %s: %w", name, err)
			}
		}
		if el.Label != nil {
			return c.addLabel(pg, net, name, ep, c.textEffects(el.Label.TextCode))
		}

	case archive.ElementBusTerm:
		return c.addBusTerm(pg, net, name, ep)

	case archive.ElementBlockTerm:
		if ep.sheetPin != nil {
			ep.sheetPin.Name = name
			if ep.hasDir {
				ep.sheetPin.Side = schematic.Angle(geom.SpinFromDirection(ep.dir.X, ep.dir.Y).MirrorX().Degrees())
			}
		}
		if ep.hier != nil {
			ep.hier.Text = name
			ep.hier.Angle = schematic.Angle(ep.spin().Degrees())
		}
	}
	return nil
}

func (c *importContext) addLabel(pg *schematic.Page, net *archive.Net, name string, ep *endpoint, eff schematic.Effects) error {
	l := &schematic.Label{
		Text:     name,
		Position: c.pageXY(ep.pos),
		Angle:    schematic.Angle(ep.spin().Degrees()),
		Effects:  eff,
		UUID:     c.uuid("label", net.ID, ep.el.ID),
	}
	if err := c.design.AppendItem(pg, l); err != nil {
		return fmt.Errorf("failed to label net %s: %w", name, err)
	}
	return nil
}

// addBusTerm draws the entry from the bus to the terminal, labels the
// terminal with the net name and records the net as a bus member.
func (c *importContext) addBusTerm(pg *schematic.Page, net *archive.Net, name string, ep *endpoint) error {
	on := c.space.ToDestinationPoint(ep.el.Position)
	off := c.space.ToDestinationPoint(ep.el.Second)
	entry := &schematic.BusEntry{
		Position: schematic.FromVec(on),
		Size:     schematic.Size{Width: off.X - on.X, Height: off.Y - on.Y},
		UUID:     c.uuid("busentry", net.ID, ep.el.ID),
	}
	if err := c.design.AppendItem(pg, entry); err != nil {
		return fmt.Errorf("failed to add bus entry on net %s: %w", name, err)
	}

	eff := schematic.DefaultEffects()
	if ep.el.Label != nil {
		eff = c.textEffects(ep.el.Label.TextCode)
	} else {
		eff.Font.Size = schematic.Size{Width: busTermLabelSize, Height: busTermLabelSize}
	}
	if !ep.hasDir {
		// face away from the bus
		ep.dir, ep.hasDir = r2.Sub(on, off), true
	}
	if err := c.addLabel(pg, net, name, ep, eff); err != nil {
		return err
	}

	if alias := c.aliases[ep.bus.ID]; alias != nil {
		alias.AddMember(name)
	}
	return nil
}

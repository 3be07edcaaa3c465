package loader

import (
	"fmt"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/archive"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/geom"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

// loadSymbols places every symbol instance by kind.
func (c *importContext) loadSymbols() error {
	for _, s := range c.arc.Schematic.Symbols.Values() {
		pg := c.pageFor("symbol", s.ID, s.Layer)
		if pg == nil {
			continue
		}
		sd, ok := c.arc.Library.Symdefs.Get(s.Symdef)
		if !ok {
			c.warnf("symbol %s uses unknown symbol definition %s and was skipped", s.ID, s.Symdef)
			continue
		}

		var err error
		switch s.Kind {
		case archive.SymbolComponent:
			err = c.loadComponent(pg, s, sd)
		case archive.SymbolGlobalSignal:
			err = c.loadPowerSymbol(pg, s, sd)
		case archive.SymbolSignalRef:
			err = c.loadSignalRef(pg, s, sd)
		case archive.SymbolGraphic:
			c.warnf("symbol %s has no part and was loaded as graphics", s.ID)
			err = c.drawSymdef(pg, sd, placement(s.Origin, sd.Origin, s.Orientation, s.Mirror, s.Scale),
				"symbolgfx", string(s.ID))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// instance creates a placed symbol with the quantized orientation of s.
func (c *importContext) instance(s *archive.Symbol, lib *schematic.LibSymbol, unit int) *schematic.Symbol {
	q, exact := geom.QuantizeOrientation(s.Orientation)
	if !exact {
		c.warnf("symbol %s: rotation %.1f° rounded to %.0f°", s.ID, float64(s.Orientation)/10, q.Degrees())
	}
	sym := &schematic.Symbol{
		LibID:    c.libID(lib.Name),
		Lib:      lib,
		Position: c.pageXY(s.Origin),
		Angle:    schematic.Angle(q.Degrees()),
		Unit:     unit,
		InBom:    !lib.Power,
		OnBoard:  !lib.Power,
		UUID:     c.uuid("symbol", s.ID),
	}
	if s.Mirror {
		sym.Mirror = "y"
	}
	if u := lib.Unit(unit); u != nil {
		for _, p := range u.Pins {
			sym.Pins = append(sym.Pins, schematic.PinRef{Number: p.Number, UUID: c.uuid("pin", s.ID, p.Number)})
		}
	}
	return sym
}

func (c *importContext) loadComponent(pg *schematic.Page, s *archive.Symbol, sd *archive.Symdef) error {
	part, ok := c.arc.Parts.Get(s.Part)
	if !ok {
		c.warnf("symbol %s refers to unknown part %s and was skipped", s.ID, s.Part)
		return nil
	}
	gate, ok := part.Definition.Gates.Get(s.GateID())
	if !ok {
		c.warnf("symbol %s refers to gate %s which part %s does not define; skipped", s.ID, s.GateID(), part.ID)
		return nil
	}

	lib, err := c.partSymbol(part, s.ComponentRef)
	if err != nil {
		return err
	}
	if gate.Symdef != sd.ID {
		if lib, err = c.overrideSymbol(lib, part, gate.ID, sd); err != nil {
			return err
		}
	}
	if !s.Scale.Identity() {
		c.warnf("symbol %s is scaled %d:%d; a scaled copy of %s was created", s.ID, s.Scale.Num, s.Scale.Den, lib.Name)
		if lib, err = c.scaledSymbol(lib, s.Scale); err != nil {
			return err
		}
	}

	sym := c.instance(s, lib, unitFor(part, gate.ID))
	ref := s.ComponentRef
	if ref == "" {
		ref = lib.Property("Reference").Value + "?"
	}
	c.placeField(sym, s, sd, "Reference", ref, archive.AttrDesignator)
	c.placeField(sym, s, sd, "Value", part.Name, archive.AttrPartName)

	for _, id := range part.Attributes.Keys() {
		if _, override := s.Attributes.Get(id); override {
			continue
		}
		v, _ := part.Attributes.Get(id)
		c.placeField(sym, s, sd, c.attrName(id), v, id)
	}
	for _, av := range s.Attributes.Values() {
		c.placeField(sym, s, sd, c.attrName(av.Attr), av.Value, av.Attr)
	}

	if err := c.design.AppendItem(pg, sym); err != nil {
		return fmt.Errorf("failed to place symbol %s: %w", s.ID, err)
	}
	c.symbols[s.ID] = sym
	c.log.Debug("symbol placed", "symbol", string(s.ID), "lib", lib.Name, "unit", sym.Unit)
	return nil
}

func (c *importContext) attrName(id archive.AttrID) string {
	if a, ok := c.arc.Assignments.AttrNames.Get(id); ok && a.Name != "" {
		return a.Name
	}
	return string(id)
}

// placeField adds a field to sym. Its placement comes from the instance's
// own attribute location, else from the definition's default location
// carried through the instance transform, else it is hidden at the origin.
func (c *importContext) placeField(sym *schematic.Symbol, s *archive.Symbol, sd *archive.Symdef, key, value string, attr archive.AttrID) {
	p := sym.SetProperty(key, value)

	if av, ok := s.Attributes.Get(attr); ok && av.Location != nil {
		loc := av.Location
		q, _ := geom.QuantizeOrientation(loc.Orientation)
		align, angle := geom.AlignFor(loc.Alignment, q, loc.Mirror)
		c.setFieldPlacement(p, c.pageXY(loc.Position), angle, align, loc)
		return
	}

	if loc, ok := sd.TextLocations.Get(attr); ok {
		t := placement(s.Origin, sd.Origin, s.Orientation, s.Mirror, s.Scale)
		at := geom.ApplyTransform(loc.Position, t)
		q, _ := geom.QuantizeOrientation(loc.Orientation + s.Orientation)
		align, angle := geom.AlignFor(loc.Alignment, q, loc.Mirror != s.Mirror)
		c.setFieldPlacement(p, c.pageXY(at), angle, align, loc)
		return
	}

	p.Position = schematic.PositionAngle{Position: sym.Position}
	p.Effects = schematic.DefaultEffects()
	p.Effects.Hide = true
}

func (c *importContext) setFieldPlacement(p *schematic.Property, at schematic.Position, angle geom.Quadrant, align geom.Alignment, loc *archive.AttrLocation) {
	p.Position = schematic.PositionAngle{Position: at, Angle: schematic.Angle(angle.Degrees())}
	p.Effects = c.textEffects(loc.TextCode)
	p.Effects.Justify = justify(align)
	p.Effects.Hide = loc.Invisible
}

// loadPowerSymbol places a global signal symbol. Its library entry is
// shared by every instance on the same net.
func (c *importContext) loadPowerSymbol(pg *schematic.Page, s *archive.Symbol, sd *archive.Symdef) error {
	if n := sd.Terminals.Len(); n != 1 {
		c.warnf("power symbol %s: definition %s has %d terminals instead of one; skipped", s.ID, sd.ID, n)
		return nil
	}
	lib, err := c.powerSymbol(sd, s.SignalName)
	if err != nil {
		return err
	}
	sym := c.instance(s, lib, 1)
	c.powerSeq++
	ref := sym.SetProperty("Reference", fmt.Sprintf("#PWR%02d", c.powerSeq))
	ref.Effects.Hide = true
	c.placeField(sym, s, sd, "Value", s.SignalName, archive.AttrPartName)
	if v := sym.Property("Value"); v.Effects.Hide && v.Position.Position == sym.Position {
		v.Effects.Hide = false
	}

	if err := c.design.AppendItem(pg, sym); err != nil {
		return fmt.Errorf("failed to place power symbol %s: %w", s.ID, err)
	}
	c.symbols[s.ID] = sym
	c.powerSymbols[s.ID] = sym
	return nil
}

// loadSignalRef turns an off-sheet signal reference into a global label at
// its single terminal.
func (c *importContext) loadSignalRef(pg *schematic.Page, s *archive.Symbol, sd *archive.Symdef) error {
	terms := sd.Terminals.Values()
	if len(terms) != 1 {
		c.warnf("signal reference %s: definition %s has %d terminals instead of one; skipped", s.ID, sd.ID, len(terms))
		return nil
	}
	q, exact := geom.QuantizeOrientation(s.Orientation)
	if !exact {
		c.warnf("signal reference %s: rotation %.1f° rounded to %.0f°", s.ID, float64(s.Orientation)/10, q.Degrees())
	}
	t := placement(s.Origin, sd.Origin, q.Tenths(), s.Mirror, s.Scale)
	at := geom.ApplyTransform(terms[0].Position, t)

	spin := geom.SpinStyle(q)
	if s.Mirror {
		spin = spin.MirrorY()
	}
	name := s.SignalName
	if name == "" {
		name = string(s.ID)
	}
	l := &schematic.GlobalLabel{
		Text:     name,
		Shape:    "bidirectional",
		Position: c.pageXY(at),
		Angle:    schematic.Angle(spin.Degrees()),
		Effects:  schematic.DefaultEffects(),
		UUID:     c.uuid("globallabel", s.ID),
	}
	if err := c.design.AppendItem(pg, l); err != nil {
		return fmt.Errorf("failed to place signal reference %s: %w", s.ID, err)
	}
	c.signalRefs[s.ID] = l
	return nil
}

// pinPosition returns the sheet coordinate of a terminal of a placed
// symbol, using the orientation the destination instance actually has.
func (c *importContext) pinPosition(s *archive.Symbol, sd *archive.Symdef, term *archive.Terminal) archive.Point {
	q, _ := geom.QuantizeOrientation(s.Orientation)
	return geom.ApplyTransform(term.Position, placement(s.Origin, sd.Origin, q.Tenths(), s.Mirror, s.Scale))
}

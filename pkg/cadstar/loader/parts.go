package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/archive"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/geom"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

var pinTypes = map[archive.PinType]string{
	archive.PinUncommitted:     "passive",
	archive.PinInput:           "input",
	archive.PinOutputOr:        "open_collector",
	archive.PinOutputNotOr:     "output",
	archive.PinOutputNotNormOr: "open_emitter",
	archive.PinPower:           "power_in",
	archive.PinGround:          "power_in",
	archive.PinTristateBidir:   "bidirectional",
	archive.PinTristateInput:   "input",
	archive.PinTristateDriver:  "tri_state",
}

// GateUnit maps a gate letter to a unit number: A is 1, Z is 26, AA is 27.
// It returns 0 for anything that is not letters.
func GateUnit(gate string) int {
	if gate == "" {
		return 0
	}
	n := 0
	for _, r := range strings.ToUpper(gate) {
		if r < 'A' || r > 'Z' {
			return 0
		}
		n = n*26 + int(r-'A'+1)
	}
	return n
}

// loadParts reports pin swapping, which the destination cannot carry.
// Library symbols themselves are created on first use.
func (c *importContext) loadParts() error {
	for _, p := range c.arc.Parts.Values() {
		d := p.Definition
		if len(d.SwapGroups) > 0 || len(d.PinEquivalences) > 0 {
			c.infof("part %s (%s) defines pin or gate swapping, which is not imported", p.ID, p.Name)
		}
	}
	return nil
}

// pinTable maps the terminals of one gate to the part's pins.
func (c *importContext) pinTable(part *archive.Part, gate string) map[archive.TerminalID]*archive.PartPin {
	key := string(part.ID) + "/" + gate
	if t, ok := c.pinTables[key]; ok {
		return t
	}
	t := make(map[archive.TerminalID]*archive.PartPin)
	for _, pp := range part.Definition.Pins.Values() {
		if pp.Gate == gate {
			t[pp.Terminal] = pp
		}
	}
	c.pinTables[key] = t
	return t
}

// unitFor returns the unit number of a gate, falling back to the gate's
// declaration position for gates that are not letters.
func unitFor(part *archive.Part, gate string) int {
	if n := GateUnit(gate); n > 0 {
		return n
	}
	for i, g := range part.Definition.Gates.Keys() {
		if g == gate {
			return i + 1
		}
	}
	return 1
}

// cachedLib returns a library symbol created earlier in this import.
func (c *importContext) cachedLib(key string) *schematic.LibSymbol {
	if v, ok := c.libs.Get(key); ok {
		return v.(*schematic.LibSymbol)
	}
	return nil
}

// newLib creates a library symbol, appending a counter when the name is
// taken.
func (c *importContext) newLib(name string) (*schematic.LibSymbol, error) {
	candidate := name
	for i := 2; ; i++ {
		sym, err := c.design.CreateLibrarySymbol(candidate)
		if err == nil {
			return sym, nil
		}
		if !errors.Is(err, schematic.ErrDuplicateSymbol) {
			return nil, fmt.Errorf("failed to create library symbol %q: %w", candidate, err)
		}
		candidate = name + "_" + strconv.Itoa(i)
	}
}

// cloneLib registers a deep copy of src under a fresh name.
func (c *importContext) cloneLib(src *schematic.LibSymbol, name string) (*schematic.LibSymbol, error) {
	base, err := c.newLib(name)
	if err != nil {
		return nil, err
	}
	clone := src.Clone(base.Name)
	*base = *clone
	return base, nil
}

// partSymbol returns the canonical library symbol of a part: one unit per
// gate, each drawn from the gate's own symbol definition.
func (c *importContext) partSymbol(part *archive.Part, designator string) (*schematic.LibSymbol, error) {
	key := "part/" + string(part.ID)
	if sym := c.cachedLib(key); sym != nil {
		return sym, nil
	}
	sym, err := c.newLib(part.Name)
	if err != nil {
		return nil, err
	}
	if prefix := strings.TrimRight(designator, "0123456789?"); prefix != "" {
		sym.SetProperty("Reference", prefix)
	}
	for _, g := range part.Definition.Gates.Values() {
		sd, ok := c.arc.Library.Symdefs.Get(g.Symdef)
		if !ok {
			c.warnf("part %s gate %s uses unknown symbol definition %s", part.ID, g.ID, g.Symdef)
			continue
		}
		c.loadUnit(sym, unitFor(part, g.ID), sd, part, g.ID)
	}
	if err := c.design.SaveLibrarySymbol(sym); err != nil {
		return nil, fmt.Errorf("failed to save library symbol %q: %w", sym.Name, err)
	}
	c.libs.Set(key, sym, cache.NoExpiration)
	c.log.Debug("library symbol created", "symbol", sym.Name, "units", sym.UnitCount())
	return sym, nil
}

// overrideSymbol returns a clone of base whose unit for gate is drawn from
// sd instead of the canonical definition. Instances sharing an override
// share the clone.
func (c *importContext) overrideSymbol(base *schematic.LibSymbol, part *archive.Part, gate string, sd *archive.Symdef) (*schematic.LibSymbol, error) {
	key := "clone/" + string(part.ID) + "/" + gate + "/" + string(sd.ID)
	if sym := c.cachedLib(key); sym != nil {
		return sym, nil
	}
	sym, err := c.cloneLib(base, base.Name+" ("+sd.Name()+")")
	if err != nil {
		return nil, err
	}
	c.loadUnit(sym, unitFor(part, gate), sd, part, gate)
	if err := c.design.SaveLibrarySymbol(sym); err != nil {
		return nil, fmt.Errorf("failed to save library symbol %q: %w", sym.Name, err)
	}
	c.libs.Set(key, sym, cache.NoExpiration)
	return sym, nil
}

// scaledSymbol returns a private copy of base scaled by r.
func (c *importContext) scaledSymbol(base *schematic.LibSymbol, r archive.Ratio) (*schematic.LibSymbol, error) {
	key := fmt.Sprintf("scaled/%s/%d/%d", base.Name, r.Num, r.Den)
	if sym := c.cachedLib(key); sym != nil {
		return sym, nil
	}
	sym, err := c.cloneLib(base, fmt.Sprintf("%s (scaled %d-%d)", base.Name, r.Num, r.Den))
	if err != nil {
		return nil, err
	}
	sym.Scale(float64(r.Num) / float64(r.Den))
	if err := c.design.SaveLibrarySymbol(sym); err != nil {
		return nil, fmt.Errorf("failed to save library symbol %q: %w", sym.Name, err)
	}
	c.libs.Set(key, sym, cache.NoExpiration)
	return sym, nil
}

// PowerSymbolName names the library symbol of a global signal: the
// definition name, with the net name appended when they differ.
func PowerSymbolName(defName, netName string) string {
	if netName == "" || netName == defName {
		return defName
	}
	return defName + " (" + netName + ")"
}

// powerSymbol returns the single-pin power symbol for netName drawn with
// sd.
func (c *importContext) powerSymbol(sd *archive.Symdef, netName string) (*schematic.LibSymbol, error) {
	name := PowerSymbolName(sd.ReferenceName, netName)
	key := "power/" + string(sd.ID) + "/" + name
	if sym := c.cachedLib(key); sym != nil {
		return sym, nil
	}
	sym, err := c.newLib(name)
	if err != nil {
		return nil, err
	}
	sym.Power = true
	sym.HidePinNumbers = true
	sym.HidePinNames = true
	sym.SetProperty("Reference", "#PWR").Effects.Hide = true
	sym.SetProperty("Value", netName)
	c.loadUnit(sym, 1, sd, nil, "")
	for _, u := range sym.Units {
		for i := range u.Pins {
			u.Pins[i].Type = "power_in"
			u.Pins[i].Name = netName
			u.Pins[i].Hide = true
		}
	}
	if err := c.design.SaveLibrarySymbol(sym); err != nil {
		return nil, fmt.Errorf("failed to save library symbol %q: %w", sym.Name, err)
	}
	c.libs.Set(key, sym, cache.NoExpiration)
	return sym, nil
}

// loadUnit replaces unit n of sym with the graphics and terminals of sd.
// part may be nil for symbols without electrical pins.
func (c *importContext) loadUnit(sym *schematic.LibSymbol, n int, sd *archive.Symdef, part *archive.Part, gate string) {
	u := sym.EnsureUnit(n)
	u.Graphics = nil
	u.Pins = nil

	lib := func(p archive.Point) r2.Vec { return c.space.ToLibraryPoint(p, sd.Origin) }

	for _, f := range sd.Figures {
		stroke := c.lineStroke(f.LineCode)
		for _, o := range traceShape(f.Shape, lib) {
			u.Graphics = append(u.Graphics, o.symGraphic(stroke))
		}
	}

	for i, t := range sd.Texts {
		q, exact := geom.QuantizeOrientation(t.Orientation)
		if !exact {
			c.warnOnce(fmt.Sprintf("symdef-text/%s/%d", sd.ID, i),
				"text %q in symbol definition %s: rotation %.1f° rounded to %.0f°",
				t.Text, sd.ID, float64(t.Orientation)/10, q.Degrees())
		}
		align, angle := geom.AlignFor(t.Alignment, q, t.Mirror)
		eff := c.textEffects(t.TextCode)
		eff.Justify = justify(align)
		u.Graphics = append(u.Graphics, schematic.SymGraphic{
			Type:     "text",
			Text:     t.Text,
			Position: schematic.FromVec(lib(t.Position)),
			Angle:    schematic.Angle(angle.Degrees()),
			Effects:  eff,
		})
	}

	var pins map[archive.TerminalID]*archive.PartPin
	if part != nil {
		pins = c.pinTable(part, gate)
	}
	for _, t := range sd.Terminals.Values() {
		q, _ := geom.QuantizeOrientation(t.Orientation)
		pin := schematic.Pin{
			Type:     "passive",
			Style:    "line",
			Position: schematic.FromVec(lib(t.Position)),
			// KiCad pins point from the connection into the body
			Angle:  schematic.Angle(((q + geom.Q180) % 4).Degrees()),
			Number: strconv.FormatInt(int64(t.ID), 10),
		}
		if pp, ok := pins[t.ID]; ok {
			pin.Number = pp.Number()
			pin.Name = pp.Name
			pin.Type = pinTypes[pp.Type]
		}
		u.Pins = append(u.Pins, pin)
	}

	for _, loc := range sd.TextLocations.Values() {
		var field string
		switch loc.Attr {
		case archive.AttrDesignator:
			field = "Reference"
		case archive.AttrPartName:
			field = "Value"
		default:
			continue
		}
		p := sym.Property(field)
		if p == nil || n != 1 {
			continue
		}
		q, _ := geom.QuantizeOrientation(loc.Orientation)
		align, angle := geom.AlignFor(loc.Alignment, q, loc.Mirror)
		p.Position = schematic.PositionAngle{Position: schematic.FromVec(lib(loc.Position)), Angle: schematic.Angle(angle.Degrees())}
		eff := c.textEffects(loc.TextCode)
		eff.Justify = justify(align)
		eff.Hide = p.Effects.Hide || loc.Invisible
		p.Effects = eff
	}
}

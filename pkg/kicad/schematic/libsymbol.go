package schematic

import (
	"fmt"
	"strconv"
)

// LibSymbol is a library symbol definition. Coordinates are in library
// space, Y up, relative to the symbol origin.
type LibSymbol struct {
	Name           string
	Power          bool
	HidePinNumbers bool
	HidePinNames   bool
	Properties     []Property
	Units          []*SymbolUnit
}

// SymbolUnit holds the drawing of one unit. Unit 0 is shared by all units.
type SymbolUnit struct {
	Number   int
	Graphics []SymGraphic
	Pins     []Pin
}

// SymGraphic is one drawing primitive: polyline, arc or text.
type SymGraphic struct {
	Type     string
	Points   []Position // polyline
	Start    Position   // arc
	Mid      Position   // arc
	End      Position   // arc
	Text     string
	Position Position // text
	Angle    Angle    // text
	Effects  Effects  // text
	Stroke   Stroke
	Fill     Fill
}

// Pin is a symbol pin. Position is the connection point and Angle the
// direction from it into the body.
type Pin struct {
	Type     string
	Style    string
	Position Position
	Angle    Angle
	Length   float64
	Name     string
	Number   string
	Hide     bool
}

// NewLibSymbol returns a symbol with the mandatory Reference and Value
// fields.
func NewLibSymbol(name string) *LibSymbol {
	return &LibSymbol{
		Name: name,
		Properties: []Property{
			{Key: "Reference", Value: "U", Effects: DefaultEffects()},
			{Key: "Value", Value: name, Effects: DefaultEffects()},
		},
	}
}

// Property returns the named field, or nil.
func (l *LibSymbol) Property(key string) *Property {
	for i := range l.Properties {
		if l.Properties[i].Key == key {
			return &l.Properties[i]
		}
	}
	return nil
}

// SetProperty sets or adds a field and returns it.
func (l *LibSymbol) SetProperty(key, value string) *Property {
	if p := l.Property(key); p != nil {
		p.Value = value
		return p
	}
	l.Properties = append(l.Properties, Property{Key: key, Value: value, Effects: DefaultEffects()})
	return &l.Properties[len(l.Properties)-1]
}

// Unit returns unit n, or nil.
func (l *LibSymbol) Unit(n int) *SymbolUnit {
	for _, u := range l.Units {
		if u.Number == n {
			return u
		}
	}
	return nil
}

// EnsureUnit returns unit n, creating it in order.
func (l *LibSymbol) EnsureUnit(n int) *SymbolUnit {
	if u := l.Unit(n); u != nil {
		return u
	}
	u := &SymbolUnit{Number: n}
	at := len(l.Units)
	for i, x := range l.Units {
		if x.Number > n {
			at = i
			break
		}
	}
	l.Units = append(l.Units, nil)
	copy(l.Units[at+1:], l.Units[at:])
	l.Units[at] = u
	return u
}

// UnitCount returns the number of units, not counting the shared unit 0.
func (l *LibSymbol) UnitCount() int {
	n := 0
	for _, u := range l.Units {
		if u.Number > n {
			n = u.Number
		}
	}
	return n
}

// Pin looks up a pin by number in unit n or the shared unit.
func (l *LibSymbol) Pin(unit int, number string) (Pin, bool) {
	for _, u := range l.Units {
		if u.Number != unit && u.Number != 0 {
			continue
		}
		for _, p := range u.Pins {
			if p.Number == number {
				return p, true
			}
		}
	}
	return Pin{}, false
}

// Clone returns a deep copy named name.
func (l *LibSymbol) Clone(name string) *LibSymbol {
	c := &LibSymbol{
		Name:           name,
		Power:          l.Power,
		HidePinNumbers: l.HidePinNumbers,
		HidePinNames:   l.HidePinNames,
		Properties:     append([]Property(nil), l.Properties...),
	}
	for _, u := range l.Units {
		cu := &SymbolUnit{Number: u.Number, Pins: append([]Pin(nil), u.Pins...)}
		for _, g := range u.Graphics {
			g.Points = append([]Position(nil), g.Points...)
			cu.Graphics = append(cu.Graphics, g)
		}
		c.Units = append(c.Units, cu)
	}
	if v := c.Property("Value"); v != nil && v.Value == l.Name {
		v.Value = name
	}
	return c
}

// Scale multiplies every coordinate and length by f about the origin.
func (l *LibSymbol) Scale(f float64) {
	sc := func(p Position) Position { return Position{X: p.X * f, Y: p.Y * f} }
	for i := range l.Properties {
		l.Properties[i].Position.Position = sc(l.Properties[i].Position.Position)
	}
	for _, u := range l.Units {
		for i := range u.Graphics {
			g := &u.Graphics[i]
			for j := range g.Points {
				g.Points[j] = sc(g.Points[j])
			}
			g.Start, g.Mid, g.End, g.Position = sc(g.Start), sc(g.Mid), sc(g.End), sc(g.Position)
			g.Stroke.Width *= f
			g.Effects.Font.Size.Width *= f
			g.Effects.Font.Size.Height *= f
		}
		for i := range u.Pins {
			u.Pins[i].Position = sc(u.Pins[i].Position)
			u.Pins[i].Length *= f
		}
	}
}

// UnitBounds covers the graphics and pins of unit n and the shared unit
// in library space.
func (l *LibSymbol) UnitBounds(n int) BoundingBox {
	bb := NewBoundingBox()
	for _, u := range l.Units {
		if u.Number != n && u.Number != 0 {
			continue
		}
		for _, g := range u.Graphics {
			switch g.Type {
			case "polyline":
				for _, p := range g.Points {
					bb.Expand(p)
				}
			case "arc":
				bb.Expand(g.Start)
				bb.Expand(g.Mid)
				bb.Expand(g.End)
			case "text":
				// text boxes are laid out Y-down
				tb := textBox(g.Text, Position{X: g.Position.X, Y: -g.Position.Y}, g.Angle, g.Effects)
				bb.Expand(Position{X: tb.Min.X, Y: -tb.Max.Y})
				bb.Expand(Position{X: tb.Max.X, Y: -tb.Min.Y})
			}
		}
		for _, p := range u.Pins {
			bb.Expand(p.Position)
			bb.Expand(p.Position.Add(rotate(Position{X: p.Length}, p.Angle)))
		}
	}
	return bb
}

// unitName is the KiCad name of unit n's sub-symbol.
func unitName(baseName string, n int) string {
	return baseName + "_" + strconv.Itoa(n) + "_1"
}

// SymbolStore persists library symbols outside the project.
type SymbolStore interface {
	Put(sym *LibSymbol) error
}

// Library is the project's ordered set of library symbols.
type Library struct {
	Name    string
	symbols map[string]*LibSymbol
	order   []string
}

// NewLibrary returns an empty library.
func NewLibrary(name string) *Library {
	return &Library{Name: name, symbols: make(map[string]*LibSymbol)}
}

// Add registers sym. Re-adding the same symbol is a no-op; a different
// symbol with the same name is an error.
func (l *Library) Add(sym *LibSymbol) error {
	if prev, ok := l.symbols[sym.Name]; ok {
		if prev == sym {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrDuplicateSymbol, sym.Name)
	}
	l.symbols[sym.Name] = sym
	l.order = append(l.order, sym.Name)
	return nil
}

// Get looks up a symbol by name.
func (l *Library) Get(name string) (*LibSymbol, bool) {
	s, ok := l.symbols[name]
	return s, ok
}

// Symbols returns the symbols in registration order.
func (l *Library) Symbols() []*LibSymbol {
	out := make([]*LibSymbol, 0, len(l.order))
	for _, n := range l.order {
		out = append(out, l.symbols[n])
	}
	return out
}

// Len returns the number of symbols.
func (l *Library) Len() int { return len(l.order) }

// LibID returns the library-qualified identifier of a symbol name.
func (l *Library) LibID(name string) string {
	return l.Name + ":" + name
}

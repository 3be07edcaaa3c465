package schematic

// Symbol is a placed instance of a library symbol.
type Symbol struct {
	LibID    string
	Lib      *LibSymbol
	Position Position
	Angle    Angle
	// Mirror is "y" to negate library X, "x" to negate library Y.
	Mirror     string
	Unit       int
	InBom      bool
	OnBoard    bool
	UUID       UUID
	Properties []Property
	Pins       []PinRef
}

// PinRef gives a pin of an instance its own UUID.
type PinRef struct {
	Number string
	UUID   UUID
}

// Transform maps a library point onto the page: mirror, then rotate
// counter-clockwise, then flip Y and translate.
func (s *Symbol) Transform(local Position) Position {
	switch s.Mirror {
	case "y":
		local.X = -local.X
	case "x":
		local.Y = -local.Y
	}
	r := rotate(local, s.Angle)
	return Position{X: s.Position.X + r.X, Y: s.Position.Y - r.Y}
}

// PinPosition returns the page position of the pin with the given number.
func (s *Symbol) PinPosition(number string) (Position, bool) {
	if s.Lib == nil {
		return Position{}, false
	}
	p, ok := s.Lib.Pin(s.Unit, number)
	if !ok {
		return Position{}, false
	}
	return s.Transform(p.Position), true
}

// Property returns the named field, or nil.
func (s *Symbol) Property(key string) *Property {
	for i := range s.Properties {
		if s.Properties[i].Key == key {
			return &s.Properties[i]
		}
	}
	return nil
}

// SetProperty sets or adds a field and returns it.
func (s *Symbol) SetProperty(key, value string) *Property {
	if p := s.Property(key); p != nil {
		p.Value = value
		return p
	}
	s.Properties = append(s.Properties, Property{
		Key:      key,
		Value:    value,
		Position: PositionAngle{Position: s.Position},
		Effects:  DefaultEffects(),
	})
	return &s.Properties[len(s.Properties)-1]
}

// Reference returns the Reference field value.
func (s *Symbol) Reference() string {
	if p := s.Property("Reference"); p != nil {
		return p.Value
	}
	return ""
}

// Value returns the Value field value.
func (s *Symbol) Value() string {
	if p := s.Property("Value"); p != nil {
		return p.Value
	}
	return ""
}

func (s *Symbol) ItemUUID() UUID { return s.UUID }

// BoundingBox covers the unit's body, its pins and the visible fields.
func (s *Symbol) BoundingBox() BoundingBox {
	bb := NewBoundingBox()
	if s.Lib != nil {
		lb := s.Lib.UnitBounds(s.Unit)
		if !lb.IsEmpty() {
			for _, c := range []Position{lb.Min, lb.Max, {X: lb.Min.X, Y: lb.Max.Y}, {X: lb.Max.X, Y: lb.Min.Y}} {
				bb.Expand(s.Transform(c))
			}
		}
	}
	if bb.IsEmpty() {
		bb.Expand(s.Position)
	}
	for _, p := range s.Properties {
		if p.Effects.Hide || p.Value == "" {
			continue
		}
		bb.ExpandBox(textBox(p.Value, p.Position.Position, p.Position.Angle, p.Effects))
	}
	return bb
}

func (s *Symbol) Move(d Position) {
	s.Position = s.Position.Add(d)
	for i := range s.Properties {
		s.Properties[i].Position.Position = s.Properties[i].Position.Position.Add(d)
	}
}

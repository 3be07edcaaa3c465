package archive

import (
	"github.com/OpenTraceLab/csa2kicad/pkg/sexp"
)

func parseLibrary(n *sexp.Node, lib *Library) error {
	if err := n.CheckAttrs(0, 0); err != nil {
		return err
	}
	for _, c := range n.Children {
		if c.Name != "SYMDEF" {
			return c.Unknown()
		}
		sd, err := parseSymdef(c)
		if err != nil {
			return err
		}
		if err := lib.Symdefs.Add(c, sd.ID, sd); err != nil {
			return err
		}
	}
	return nil
}

// parseSymdef reads (SYMDEF id refname [alternate] ...).
func parseSymdef(n *sexp.Node) (*Symdef, error) {
	if err := n.CheckAttrs(2, 3); err != nil {
		return nil, err
	}
	sd := &Symdef{
		ID:            SymdefID(n.Attrs[0]),
		ReferenceName: n.Attrs[1],
		Alternate:     n.OptAttr(2),
		Gates:         1,
	}
	seenOrigin := false
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "VERSION":
			sd.Version, err = singleInt(c)
		case "PT":
			seenOrigin = true
			sd.Origin, err = parsePoint(c)
		case "FIGURE":
			var f *Figure
			if f, err = parseFigure(c, false); err == nil {
				sd.Figures = append(sd.Figures, f)
			}
		case "TERMINAL":
			var t *Terminal
			if t, err = parseTerminal(c); err == nil {
				err = sd.Terminals.Add(c, t.ID, t)
			}
		case "TEXT":
			var t *Text
			if t, err = parseText(c, false); err == nil {
				sd.Texts = append(sd.Texts, t)
			}
		case "ATTRLOC":
			var loc *AttrLocation
			if loc, err = parseAttrLocation(c, true); err == nil {
				err = sd.TextLocations.Add(c, loc.Attr, loc)
			}
		case "GATES":
			sd.Gates, err = singleInt(c)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	if !seenOrigin {
		return nil, n.Errorf(sexp.ErrMissingChild, "PT")
	}
	return sd, nil
}

// parseTerminal reads (TERMINAL id (PT x y) [(ORIENT a)]).
func parseTerminal(n *sexp.Node) (*Terminal, error) {
	if err := n.CheckAttrs(1, 1); err != nil {
		return nil, err
	}
	id, err := n.Int(0)
	if err != nil {
		return nil, err
	}
	t := &Terminal{ID: TerminalID(id)}
	seenPoint := false
	for _, c := range n.Children {
		switch c.Name {
		case "PT":
			seenPoint = true
			t.Position, err = parsePoint(c)
		case "ORIENT":
			t.Orientation, err = singleInt(c)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	if !seenPoint {
		return nil, n.Errorf(sexp.ErrMissingChild, "PT")
	}
	return t, nil
}

func parseParts(n *sexp.Node, parts *Table[PartID, *Part]) error {
	if err := n.CheckAttrs(0, 0); err != nil {
		return err
	}
	for _, c := range n.Children {
		if c.Name != "PART" {
			return c.Unknown()
		}
		p, err := parsePart(c)
		if err != nil {
			return err
		}
		if err := parts.Add(c, p.ID, p); err != nil {
			return err
		}
	}
	return nil
}

// parsePart reads (PART id name ...).
func parsePart(n *sexp.Node) (*Part, error) {
	if err := n.CheckAttrs(2, 2); err != nil {
		return nil, err
	}
	p := &Part{ID: PartID(n.Attrs[0]), Name: n.Attrs[1]}
	seenDefinition := false
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "VERSION":
			p.Version, err = singleInt(c)
		case "DEFINITION":
			seenDefinition = true
			err = parsePartDefinition(c, &p.Definition)
		case "ATTR":
			if err = c.CheckAttrs(2, 2); err == nil {
				if err = c.CheckNoChildren(); err == nil {
					err = p.Attributes.Add(c, AttrID(c.Attrs[0]), c.Attrs[1])
				}
			}
		default:
			err = c.Unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	if !seenDefinition {
		return nil, n.Errorf(sexp.ErrMissingChild, "DEFINITION")
	}
	return p, nil
}

func parsePartDefinition(n *sexp.Node, d *PartDefinition) error {
	if err := n.CheckAttrs(1, 1); err != nil {
		return err
	}
	d.Name = n.Attrs[0]
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "GATEDEF":
			if err = c.CheckAttrs(2, 2); err == nil {
				g := &Gate{ID: c.Attrs[0], Symdef: SymdefID(c.Attrs[1])}
				err = d.Gates.Add(c, g.ID, g)
			}
		case "PARTPIN":
			var pin *PartPin
			if pin, err = parsePartPin(c); err == nil {
				err = d.Pins.Add(c, pin.ID, pin)
			}
		case "SWAPGROUP":
			if err = c.CheckAttrs(2, -1); err == nil {
				d.SwapGroups = append(d.SwapGroups, SwapGroup{Name: c.Attrs[0], Gates: c.Attrs[1:]})
			}
		case "PINEQUIVALENCE":
			if err = c.CheckAttrs(2, -1); err != nil {
				break
			}
			eq := make([]PinID, 0, len(c.Attrs))
			for i := range c.Attrs {
				var id int64
				if id, err = c.Int(i); err != nil {
					break
				}
				eq = append(eq, PinID(id))
			}
			d.PinEquivalences = append(d.PinEquivalences, eq)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return err
		}
	}
	if d.Gates.Len() == 0 {
		return n.Errorf(sexp.ErrMissingChild, "GATEDEF")
	}
	return nil
}

var pinTypes = map[string]PinType{
	"UNCOMMITTED":        PinUncommitted,
	"INPUT":              PinInput,
	"OUTPUT_OR":          PinOutputOr,
	"OUTPUT_NOT_OR":      PinOutputNotOr,
	"OUTPUT_NOT_NORM_OR": PinOutputNotNormOr,
	"POWER":              PinPower,
	"GROUND":             PinGround,
	"TRISTATE_BIDIR":     PinTristateBidir,
	"TRISTATE_INPUT":     PinTristateInput,
	"TRISTATE_DRIVER":    PinTristateDriver,
}

// parsePartPin reads (PARTPIN id (GATE g) (TERM t) [(TYPE ty)]
// [(IDENTIFIER s)] [(NAME s)]).
func parsePartPin(n *sexp.Node) (*PartPin, error) {
	if err := n.CheckAttrs(1, 1); err != nil {
		return nil, err
	}
	id, err := n.Int(0)
	if err != nil {
		return nil, err
	}
	pin := &PartPin{ID: PinID(id), Gate: "A"}
	seenTerm := false
	for _, c := range n.Children {
		switch c.Name {
		case "GATE":
			pin.Gate, err = single(c)
		case "TERM":
			seenTerm = true
			var t int64
			t, err = singleInt(c)
			pin.Terminal = TerminalID(t)
		case "TYPE":
			var v string
			if v, err = single(c); err == nil {
				var ok bool
				if pin.Type, ok = pinTypes[v]; !ok {
					err = c.Errorf(sexp.ErrBadValue, "pin type %q", v)
				}
			}
		case "IDENTIFIER":
			pin.Identifier, err = single(c)
		case "NAME":
			pin.Name, err = single(c)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	if !seenTerm {
		return nil, n.Errorf(sexp.ErrMissingChild, "TERM")
	}
	return pin, nil
}

// parseSheets reads (SHEETS (SHEET id name)...).
func parseSheets(n *sexp.Node, s *Sheets) error {
	if err := n.CheckAttrs(0, 0); err != nil {
		return err
	}
	for _, c := range n.Children {
		if c.Name != "SHEET" {
			return c.Unknown()
		}
		if err := c.CheckAttrs(2, 2); err != nil {
			return err
		}
		if err := c.CheckNoChildren(); err != nil {
			return err
		}
		id := LayerID(c.Attrs[0])
		switch id {
		case NoSheet, AllSheets, NoLink:
			return c.Errorf(sexp.ErrBadValue, "reserved sheet id %q", id)
		}
		if err := s.Names.Add(c, id, c.Attrs[1]); err != nil {
			return err
		}
	}
	return nil
}

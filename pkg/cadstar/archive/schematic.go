package archive

import (
	"github.com/OpenTraceLab/csa2kicad/pkg/sexp"
)

func parseSchematic(n *sexp.Node, s *Schematic) error {
	if err := n.CheckAttrs(0, 0); err != nil {
		return err
	}
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "GROUP":
			err = parseGroup(c, s)
		case "REUSEBLOCK":
			err = parseReuseBlock(c, s)
		case "FIGURE":
			var f *Figure
			if f, err = parseFigure(c, true); err == nil {
				err = s.Figures.Add(c, f.ID, f)
			}
		case "SYMBOL":
			var sym *Symbol
			if sym, err = parseSymbol(c); err == nil {
				err = s.Symbols.Add(c, sym.ID, sym)
			}
		case "BUS":
			var b *Bus
			if b, err = parseBus(c); err == nil {
				err = s.Buses.Add(c, b.ID, b)
			}
		case "BLOCK":
			var b *Block
			if b, err = parseBlock(c); err == nil {
				err = s.Blocks.Add(c, b.ID, b)
			}
		case "NET":
			var net *Net
			if net, err = parseNet(c); err == nil {
				err = s.Nets.Add(c, net.ID, net)
			}
		case "TEXT":
			var t *Text
			if t, err = parseText(c, true); err == nil {
				err = s.Texts.Add(c, t.ID, t)
			}
		case "DOCSYMBOL":
			var d *DocSymbol
			if d, err = parseDocSymbol(c); err == nil {
				err = s.DocSymbols.Add(c, d.ID, d)
			}
		case "DIMENSION":
			var d *Dimension
			if d, err = parseDimension(c); err == nil {
				err = s.Dimensions.Add(c, d.ID, d)
			}
		case "VARIANTHIERARCHY":
			err = parseVariantHierarchy(c, s)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// parseGroup reads (GROUP id name [(GROUPREF parent)]).
func parseGroup(n *sexp.Node, s *Schematic) error {
	if err := n.CheckAttrs(2, 2); err != nil {
		return err
	}
	g := &Group{ID: GroupID(n.Attrs[0]), Name: n.Attrs[1]}
	for _, c := range n.Children {
		if c.Name != "GROUPREF" {
			return c.Unknown()
		}
		p, err := single(c)
		if err != nil {
			return err
		}
		g.Parent = GroupID(p)
	}
	return s.Groups.Add(n, g.ID, g)
}

// parseReuseBlock reads (REUSEBLOCK id name [(FILENAME f)]).
func parseReuseBlock(n *sexp.Node, s *Schematic) error {
	if err := n.CheckAttrs(2, 2); err != nil {
		return err
	}
	rb := &ReuseBlock{ID: ReuseBlockID(n.Attrs[0]), Name: n.Attrs[1]}
	for _, c := range n.Children {
		if c.Name != "FILENAME" {
			return c.Unknown()
		}
		f, err := single(c)
		if err != nil {
			return err
		}
		rb.FileName = f
	}
	return s.ReuseBlocks.Add(n, rb.ID, rb)
}

// parseVariantHierarchy reads (VARIANTHIERARCHY (VARIANT id name [(PARENT id)])...).
func parseVariantHierarchy(n *sexp.Node, s *Schematic) error {
	if err := n.CheckAttrs(0, 0); err != nil {
		return err
	}
	for _, c := range n.Children {
		if c.Name != "VARIANT" {
			return c.Unknown()
		}
		if err := c.CheckAttrs(2, 2); err != nil {
			return err
		}
		v := Variant{ID: VariantID(c.Attrs[0]), Name: c.Attrs[1]}
		for _, p := range c.Children {
			if p.Name != "PARENT" {
				return p.Unknown()
			}
			id, err := single(p)
			if err != nil {
				return err
			}
			v.Parent = VariantID(id)
		}
		s.VariantHierarchy = append(s.VariantHierarchy, v)
	}
	return nil
}

// parseSymbol reads (SYMBOL id symdef layer (PT x y) ...).
func parseSymbol(n *sexp.Node) (*Symbol, error) {
	if err := n.CheckAttrs(3, 3); err != nil {
		return nil, err
	}
	sym := &Symbol{
		ID:     SymbolID(n.Attrs[0]),
		Symdef: SymdefID(n.Attrs[1]),
		Layer:  LayerID(n.Attrs[2]),
		Kind:   SymbolGraphic,
	}
	seenOrigin := false
	hasVariant := false
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "PT":
			seenOrigin = true
			sym.Origin, err = parsePoint(c)
		case "ORIENT":
			sym.Orientation, err = singleInt(c)
		case "MIRROR":
			sym.Mirror = true
			err = flag(c)
		case "SCALE":
			sym.Scale, err = parseRatio(c)
		case "GATE":
			sym.Gate, err = single(c)
		case "PARTREF":
			var p string
			p, err = single(c)
			sym.Part = PartID(p)
		case "COMPREF":
			sym.ComponentRef, err = single(c)
		case "SYMVARIANT":
			hasVariant = true
			err = parseSymVariant(c, sym)
		case "ATTR":
			var av *AttrValue
			if av, err = parseAttrValue(c); err == nil {
				err = sym.Attributes.Add(c, av.Attr, av)
			}
		case "GROUPREF":
			var g string
			g, err = single(c)
			sym.Group = GroupID(g)
		case "REUSEBLOCKREF":
			var r string
			r, err = single(c)
			sym.ReuseBlock = ReuseBlockID(r)
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
	if sym.Part != "" {
		if hasVariant {
			return nil, n.Errorf(sexp.ErrUnexpectedChild, "a part symbol cannot carry SYMVARIANT")
		}
		sym.Kind = SymbolComponent
	}
	return sym, nil
}

// parseSymVariant reads (SYMVARIANT GLOBALSIGNAL|SIGNALREF name).
func parseSymVariant(n *sexp.Node, sym *Symbol) error {
	if err := n.CheckAttrs(2, 2); err != nil {
		return err
	}
	if err := n.CheckNoChildren(); err != nil {
		return err
	}
	switch n.Attrs[0] {
	case "GLOBALSIGNAL":
		sym.Kind = SymbolGlobalSignal
	case "SIGNALREF":
		sym.Kind = SymbolSignalRef
	default:
		return n.Errorf(sexp.ErrBadValue, "symbol variant %q", n.Attrs[0])
	}
	sym.SignalName = n.Attrs[1]
	return nil
}

// parseAttrValue reads (ATTR id value [(ATTRLOC textcode ...)]).
func parseAttrValue(n *sexp.Node) (*AttrValue, error) {
	if err := n.CheckAttrs(2, 2); err != nil {
		return nil, err
	}
	av := &AttrValue{Attr: AttrID(n.Attrs[0]), Value: n.Attrs[1]}
	for _, c := range n.Children {
		if c.Name != "ATTRLOC" {
			return nil, c.Unknown()
		}
		loc, err := parseAttrLocation(c, false)
		if err != nil {
			return nil, err
		}
		loc.Attr = av.Attr
		av.Location = loc
	}
	return av, nil
}

// parseBus reads (BUS id linecode layer name (SHAPE ...) [(BUSLABEL ...)]).
func parseBus(n *sexp.Node) (*Bus, error) {
	if err := n.CheckAttrs(4, 4); err != nil {
		return nil, err
	}
	b := &Bus{
		ID:       BusID(n.Attrs[0]),
		LineCode: LineCodeID(n.Attrs[1]),
		Layer:    LayerID(n.Attrs[2]),
		Name:     n.Attrs[3],
	}
	seenShape := false
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "SHAPE":
			seenShape = true
			b.Shape, err = parseShape(c)
		case "BUSLABEL":
			b.Label, err = parseNetLabel(c)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	if !seenShape {
		return nil, n.Errorf(sexp.ErrMissingChild, "SHAPE")
	}
	return b, nil
}

// parseBlock reads (BLOCK id CHILD|PARENT layer (ASSOCSHEET id) ...).
func parseBlock(n *sexp.Node) (*Block, error) {
	if err := n.CheckAttrs(3, 3); err != nil {
		return nil, err
	}
	b := &Block{ID: BlockID(n.Attrs[0]), Layer: LayerID(n.Attrs[2])}
	switch n.Attrs[1] {
	case "CHILD":
		b.Kind = BlockChild
	case "PARENT":
		b.Kind = BlockParent
	default:
		return nil, n.Errorf(sexp.ErrBadValue, "block type %q", n.Attrs[1])
	}
	seenAssoc := false
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "ASSOCSHEET":
			seenAssoc = true
			var s string
			s, err = single(c)
			b.AssocSheet = LayerID(s)
		case "NAME":
			b.Name, err = single(c)
		case "FIGURE":
			var f *Figure
			if f, err = parseFigure(c, false); err == nil {
				b.Figures = append(b.Figures, f)
			}
		case "TERMINAL":
			var t *BlockTerminal
			if t, err = parseBlockTerminal(c); err == nil {
				err = b.Terminals.Add(c, t.ID, t)
			}
		default:
			err = c.Unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	if !seenAssoc {
		return nil, n.Errorf(sexp.ErrMissingChild, "ASSOCSHEET")
	}
	return b, nil
}

// parseBlockTerminal reads (TERMINAL id (PT x y) [(ORIENT a)] [(NAME s)]).
func parseBlockTerminal(n *sexp.Node) (*BlockTerminal, error) {
	if err := n.CheckAttrs(1, 1); err != nil {
		return nil, err
	}
	id, err := n.Int(0)
	if err != nil {
		return nil, err
	}
	t := &BlockTerminal{ID: TerminalID(id)}
	seenPoint := false
	for _, c := range n.Children {
		switch c.Name {
		case "PT":
			seenPoint = true
			t.Position, err = parsePoint(c)
		case "ORIENT":
			t.Orientation, err = singleInt(c)
		case "NAME":
			t.Name, err = single(c)
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

// parseDocSymbol reads (DOCSYMBOL id symdef layer (PT x y) ...).
func parseDocSymbol(n *sexp.Node) (*DocSymbol, error) {
	if err := n.CheckAttrs(3, 3); err != nil {
		return nil, err
	}
	d := &DocSymbol{
		ID:     DocSymbolID(n.Attrs[0]),
		Symdef: SymdefID(n.Attrs[1]),
		Layer:  LayerID(n.Attrs[2]),
	}
	seenOrigin := false
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "PT":
			seenOrigin = true
			d.Origin, err = parsePoint(c)
		case "ORIENT":
			d.Orientation, err = singleInt(c)
		case "MIRROR":
			d.Mirror = true
			err = flag(c)
		case "SCALE":
			d.Scale, err = parseRatio(c)
		case "GROUPREF":
			var g string
			g, err = single(c)
			d.Group = GroupID(g)
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
	return d, nil
}

// parseDimension reads (DIMENSION id kind layer linecode textcode (PT a)
// (PT b) [(LABEL text (PT c))]).
func parseDimension(n *sexp.Node) (*Dimension, error) {
	if err := n.CheckAttrs(5, 5); err != nil {
		return nil, err
	}
	d := &Dimension{
		ID:       DimensionID(n.Attrs[0]),
		Kind:     n.Attrs[1],
		Layer:    LayerID(n.Attrs[2]),
		LineCode: LineCodeID(n.Attrs[3]),
		TextCode: TextCodeID(n.Attrs[4]),
	}
	switch d.Kind {
	case "LINEARDIM", "ANGULARDIM", "LEADERDIM":
	default:
		return nil, n.Errorf(sexp.ErrBadValue, "dimension type %q", d.Kind)
	}
	var pts []Point
	for _, c := range n.Children {
		switch c.Name {
		case "PT":
			p, err := parsePoint(c)
			if err != nil {
				return nil, err
			}
			pts = append(pts, p)
		case "LABEL":
			if err := c.CheckAttrs(1, 1); err != nil {
				return nil, err
			}
			if len(c.Children) != 1 {
				return nil, c.Errorf(sexp.ErrMissingChild, "PT")
			}
			p, err := parsePoint(c.Children[0])
			if err != nil {
				return nil, err
			}
			d.Text, d.TextPos, d.HasText = c.Attrs[0], p, true
		default:
			return nil, c.Unknown()
		}
	}
	if len(pts) != 2 {
		return nil, n.Errorf(sexp.ErrMissingChild, "dimension needs two points, have %d", len(pts))
	}
	d.Start, d.End = pts[0], pts[1]
	return d, nil
}

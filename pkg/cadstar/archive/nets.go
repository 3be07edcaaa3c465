package archive

import (
	"github.com/OpenTraceLab/csa2kicad/pkg/sexp"
)

// parseNet reads (NET id [(NAME s)] [(SIGNUM n)] [(ROUTECODE rc)] elements...
// connections...).
func parseNet(n *sexp.Node) (*Net, error) {
	if err := n.CheckAttrs(1, 1); err != nil {
		return nil, err
	}
	net := &Net{ID: NetID(n.Attrs[0])}
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "NAME":
			net.Name, err = single(c)
		case "SIGNUM":
			net.HasSignal = true
			net.SignalNum, err = singleInt(c)
		case "ROUTECODE":
			var rc string
			rc, err = single(c)
			net.RouteCode = RouteCodeID(rc)
		case "JPT", "TERM", "BUSTERM", "BLOCKTERM", "DANGLER":
			var el *Element
			if el, err = parseElement(c); err == nil {
				err = net.Elements.Add(c, el.ID, el)
			}
		case "CONN":
			var conn *Connection
			if conn, err = parseConnection(c); err == nil {
				net.Connections = append(net.Connections, conn)
			}
		default:
			err = c.Unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	return net, nil
}

// elementShapes lists the attribute count and point count of each element
// kind:
//
//	(JPT id layer (PT))
//	(TERM id symbol terminal)
//	(BUSTERM id bus (PT first) (PT second))
//	(BLOCKTERM id block terminal)
//	(DANGLER id layer (PT))
//
// Each may carry a (NETLABEL ...).
var elementShapes = map[string]struct {
	kind   ElementKind
	attrs  int
	points int
}{
	"JPT":       {ElementJunction, 2, 1},
	"TERM":      {ElementPin, 3, 0},
	"BUSTERM":   {ElementBusTerm, 2, 2},
	"BLOCKTERM": {ElementBlockTerm, 3, 0},
	"DANGLER":   {ElementDangler, 2, 1},
}

func parseElement(n *sexp.Node) (*Element, error) {
	shape := elementShapes[n.Name]
	if err := n.CheckAttrs(shape.attrs, shape.attrs); err != nil {
		return nil, err
	}
	el := &Element{ID: ElementID(n.Attrs[0]), Kind: shape.kind}

	switch shape.kind {
	case ElementJunction, ElementDangler:
		el.Layer = LayerID(n.Attrs[1])
	case ElementPin:
		el.Symbol = SymbolID(n.Attrs[1])
	case ElementBusTerm:
		el.Bus = BusID(n.Attrs[1])
	case ElementBlockTerm:
		el.Block = BlockID(n.Attrs[1])
	}
	if shape.kind == ElementPin || shape.kind == ElementBlockTerm {
		t, err := n.Int(2)
		if err != nil {
			return nil, err
		}
		el.Terminal = TerminalID(t)
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
		case "NETLABEL":
			lbl, err := parseNetLabel(c)
			if err != nil {
				return nil, err
			}
			el.Label = lbl
		default:
			return nil, c.Unknown()
		}
	}
	if len(pts) != shape.points {
		return nil, n.Errorf(sexp.ErrMissingChild, "%s needs %d points, have %d", n.Name, shape.points, len(pts))
	}
	if len(pts) > 0 {
		el.Position = pts[0]
	}
	if len(pts) > 1 {
		el.Second = pts[1]
	}
	return el, nil
}

// parseConnection reads (CONN start end layer [(ROUTECODE rc)] [(PATH (PT)...)]).
func parseConnection(n *sexp.Node) (*Connection, error) {
	if err := n.CheckAttrs(3, 3); err != nil {
		return nil, err
	}
	conn := &Connection{
		Start: ElementID(n.Attrs[0]),
		End:   ElementID(n.Attrs[1]),
		Layer: LayerID(n.Attrs[2]),
	}
	for _, c := range n.Children {
		switch c.Name {
		case "ROUTECODE":
			rc, err := single(c)
			if err != nil {
				return nil, err
			}
			conn.RouteCode = RouteCodeID(rc)
		case "PATH":
			if err := c.CheckAttrs(0, 0); err != nil {
				return nil, err
			}
			for _, p := range c.Children {
				pt, err := parsePoint(p)
				if err != nil {
					return nil, err
				}
				conn.Path = append(conn.Path, pt)
			}
		default:
			return nil, c.Unknown()
		}
	}
	return conn, nil
}

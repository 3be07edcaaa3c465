// Package archive parses a CADSTAR schematic archive into typed,
// ID-keyed structures. Parsing is strict: any node the parser does not know
// is a fatal error naming the node and its ancestors.
package archive

import (
	"fmt"
	"io"
	"strconv"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/geom"
	"github.com/OpenTraceLab/csa2kicad/pkg/sexp"
)

// RootName is the tag of a schematic archive's root node.
const RootName = "CADSTARSCM"

// ParseFile reads and parses an archive file.
func ParseFile(filename string) (*Archive, error) {
	root, err := sexp.ParseFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return Parse(root)
}

// ParseReader reads and parses an archive.
func ParseReader(r io.Reader) (*Archive, error) {
	root, err := sexp.ParseRoot(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return Parse(root)
}

// Parse builds the archive from its root node.
func Parse(root *sexp.Node) (*Archive, error) {
	if root.Name != RootName {
		return nil, root.Errorf(sexp.ErrUnknownNode, "expected %s root", RootName)
	}
	if err := root.CheckAttrs(0, 0); err != nil {
		return nil, err
	}

	arc := &Archive{}
	seenHeader := false

	for _, n := range root.Children {
		var err error
		switch n.Name {
		case "HEADER":
			seenHeader = true
			err = parseHeader(n, &arc.Header)
		case "ASSIGNMENTS":
			err = parseAssignments(n, &arc.Assignments)
		case "LIBRARY":
			err = parseLibrary(n, &arc.Library)
		case "PARTS":
			err = parseParts(n, &arc.Parts)
		case "SHEETS":
			err = parseSheets(n, &arc.Sheets)
		case "SCHEMATIC":
			err = parseSchematic(n, &arc.Schematic)
		case "DISPLAY":
			// view settings only
		default:
			err = n.Unknown()
		}
		if err != nil {
			return nil, err
		}
	}

	if !seenHeader {
		return nil, root.Errorf(sexp.ErrMissingChild, "HEADER")
	}
	return arc, nil
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

// single reads a (TAG value) node.
func single(n *sexp.Node) (string, error) {
	if err := n.CheckAttrs(1, 1); err != nil {
		return "", err
	}
	if err := n.CheckNoChildren(); err != nil {
		return "", err
	}
	return n.Attrs[0], nil
}

// singleInt reads a (TAG number) node.
func singleInt(n *sexp.Node) (int64, error) {
	if _, err := single(n); err != nil {
		return 0, err
	}
	return n.Int(0)
}

// flag checks a bare (TAG) node.
func flag(n *sexp.Node) error {
	if err := n.CheckAttrs(0, 0); err != nil {
		return err
	}
	return n.CheckNoChildren()
}

// parsePoint reads (PT x y).
func parsePoint(n *sexp.Node) (Point, error) {
	if n.Name != "PT" {
		return Point{}, n.Unknown()
	}
	if err := n.CheckAttrs(2, 2); err != nil {
		return Point{}, err
	}
	if err := n.CheckNoChildren(); err != nil {
		return Point{}, err
	}
	x, err := n.Int(0)
	if err != nil {
		return Point{}, err
	}
	y, err := n.Int(1)
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

var alignments = map[string]geom.Alignment{
	"BOTTOMLEFT":   geom.BottomLeft,
	"BOTTOMCENTER": geom.BottomCenter,
	"BOTTOMRIGHT":  geom.BottomRight,
	"CENTERLEFT":   geom.CenterLeft,
	"CENTERCENTER": geom.CenterCenter,
	"CENTERRIGHT":  geom.CenterRight,
	"TOPLEFT":      geom.TopLeft,
	"TOPCENTER":    geom.TopCenter,
	"TOPRIGHT":     geom.TopRight,
	"NO_ALIGNMENT": geom.BottomLeft,
}

func parseAlignment(n *sexp.Node) (geom.Alignment, error) {
	v, err := single(n)
	if err != nil {
		return 0, err
	}
	a, ok := alignments[v]
	if !ok {
		return 0, n.Errorf(sexp.ErrBadValue, "alignment %q", v)
	}
	return a, nil
}

func parseJustification(n *sexp.Node) (Justification, error) {
	v, err := single(n)
	if err != nil {
		return 0, err
	}
	switch v {
	case "LEFT":
		return JustifyLeft, nil
	case "CENTER":
		return JustifyCenter, nil
	case "RIGHT":
		return JustifyRight, nil
	}
	return 0, n.Errorf(sexp.ErrBadValue, "justification %q", v)
}

func parseRatio(n *sexp.Node) (Ratio, error) {
	if err := n.CheckAttrs(2, 2); err != nil {
		return Ratio{}, err
	}
	if err := n.CheckNoChildren(); err != nil {
		return Ratio{}, err
	}
	num, err := n.Int(0)
	if err != nil {
		return Ratio{}, err
	}
	den, err := n.Int(1)
	if err != nil {
		return Ratio{}, err
	}
	if num <= 0 || den <= 0 {
		return Ratio{}, n.Errorf(sexp.ErrBadValue, "scale %d:%d", num, den)
	}
	return Ratio{Num: num, Den: den}, nil
}

var vertexKinds = map[string]VertexKind{
	"PT":     VertexPoint,
	"CWARC":  VertexCWArc,
	"ACWARC": VertexACWArc,
}

// parseVertex reads (PT x y), (CWARC (PT centre) (PT end)) or
// (ACWARC (PT centre) (PT end)).
func parseVertex(n *sexp.Node) (Vertex, error) {
	kind, ok := vertexKinds[n.Name]
	if !ok {
		return Vertex{}, n.Unknown()
	}
	if kind == VertexPoint {
		p, err := parsePoint(n)
		return Vertex{Kind: kind, End: p}, err
	}
	if err := n.CheckAttrs(0, 0); err != nil {
		return Vertex{}, err
	}
	if len(n.Children) != 2 {
		return Vertex{}, n.Errorf(sexp.ErrMissingChild, "arc needs centre and end points")
	}
	c, err := parsePoint(n.Children[0])
	if err != nil {
		return Vertex{}, err
	}
	e, err := parsePoint(n.Children[1])
	if err != nil {
		return Vertex{}, err
	}
	return Vertex{Kind: kind, Center: c, End: e}, nil
}

var shapeKinds = map[string]ShapeKind{
	"OPENSHAPE": OpenShape,
	"OUTLINE":   Outline,
	"SOLID":     Solid,
	"HATCHED":   Hatched,
}

// parseShape reads (SHAPE kind vertex... (CUTOUT vertex...)...).
func parseShape(n *sexp.Node) (Shape, error) {
	v, err := n.Attr(0)
	if err != nil {
		return Shape{}, err
	}
	if err := n.CheckAttrs(1, 1); err != nil {
		return Shape{}, err
	}
	kind, ok := shapeKinds[v]
	if !ok {
		return Shape{}, n.Errorf(sexp.ErrBadValue, "shape type %q", v)
	}

	s := Shape{Kind: kind}
	for _, c := range n.Children {
		if c.Name == "CUTOUT" {
			if kind == OpenShape {
				return Shape{}, c.Errorf(sexp.ErrUnexpectedChild, "open shapes have no cutouts")
			}
			cut, err := parseVertices(c)
			if err != nil {
				return Shape{}, err
			}
			s.Cutouts = append(s.Cutouts, cut)
			continue
		}
		vert, err := parseVertex(c)
		if err != nil {
			return Shape{}, err
		}
		s.Vertices = append(s.Vertices, vert)
	}
	if len(s.Vertices) < 2 {
		return Shape{}, n.Errorf(sexp.ErrMissingChild, "shape needs at least two vertices")
	}
	return s, nil
}

func parseVertices(n *sexp.Node) ([]Vertex, error) {
	if err := n.CheckAttrs(0, 0); err != nil {
		return nil, err
	}
	out := make([]Vertex, 0, len(n.Children))
	for _, c := range n.Children {
		v, err := parseVertex(c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// parseFigure reads (FIGURE id linecode [layer] (SHAPE ...) [(GROUPREF g)]).
func parseFigure(n *sexp.Node, needLayer bool) (*Figure, error) {
	minAttrs := 2
	if needLayer {
		minAttrs = 3
	}
	if err := n.CheckAttrs(minAttrs, 3); err != nil {
		return nil, err
	}
	f := &Figure{
		ID:       FigureID(n.Attrs[0]),
		LineCode: LineCodeID(n.Attrs[1]),
		Layer:    LayerID(n.OptAttr(2)),
	}
	seenShape := false
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "SHAPE":
			seenShape = true
			f.Shape, err = parseShape(c)
		case "GROUPREF":
			var g string
			g, err = single(c)
			f.Group = GroupID(g)
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
	return f, nil
}

// textPlacement holds the children shared by texts and attribute locations.
type textPlacement struct {
	position      Point
	hasPosition   bool
	orientation   int64
	mirror        bool
	alignment     geom.Alignment
	justification Justification
	invisible     bool
	group         GroupID
}

// parseChild handles one placement child; ok is false for a tag it
// does not own.
func (tp *textPlacement) parseChild(c *sexp.Node) (ok bool, err error) {
	switch c.Name {
	case "PT":
		tp.hasPosition = true
		tp.position, err = parsePoint(c)
	case "ORIENT":
		tp.orientation, err = singleInt(c)
	case "MIRROR":
		tp.mirror = true
		err = flag(c)
	case "ALIGN":
		tp.alignment, err = parseAlignment(c)
	case "JUSTIFICATION":
		tp.justification, err = parseJustification(c)
	case "INVISIBLE":
		tp.invisible = true
		err = flag(c)
	case "GROUPREF":
		var g string
		g, err = single(c)
		tp.group = GroupID(g)
	default:
		return false, nil
	}
	return true, err
}

func (tp *textPlacement) parseAll(n *sexp.Node) error {
	for _, c := range n.Children {
		ok, err := tp.parseChild(c)
		if err != nil {
			return err
		}
		if !ok {
			return c.Unknown()
		}
	}
	if !tp.hasPosition {
		return n.Errorf(sexp.ErrMissingChild, "PT")
	}
	return nil
}

// parseText reads (TEXT id "text" textcode [layer] (PT x y) ...).
func parseText(n *sexp.Node, needLayer bool) (*Text, error) {
	minAttrs := 3
	if needLayer {
		minAttrs = 4
	}
	if err := n.CheckAttrs(minAttrs, 4); err != nil {
		return nil, err
	}
	var tp textPlacement
	if err := tp.parseAll(n); err != nil {
		return nil, err
	}
	return &Text{
		ID:            TextID(n.Attrs[0]),
		Text:          n.Attrs[1],
		TextCode:      TextCodeID(n.Attrs[2]),
		Layer:         LayerID(n.OptAttr(3)),
		Position:      tp.position,
		Orientation:   tp.orientation,
		Mirror:        tp.mirror,
		Alignment:     tp.alignment,
		Justification: tp.justification,
		Group:         tp.group,
	}, nil
}

// parseAttrLocation reads (ATTRLOC [key] textcode (PT x y) ...). Keys are
// present on symbol definitions and absent inside an ATTR override.
func parseAttrLocation(n *sexp.Node, keyed bool) (*AttrLocation, error) {
	want := 1
	if keyed {
		want = 2
	}
	if err := n.CheckAttrs(want, want); err != nil {
		return nil, err
	}
	var tp textPlacement
	if err := tp.parseAll(n); err != nil {
		return nil, err
	}
	loc := &AttrLocation{
		TextCode:      TextCodeID(n.Attrs[want-1]),
		Position:      tp.position,
		Orientation:   tp.orientation,
		Mirror:        tp.mirror,
		Alignment:     tp.alignment,
		Justification: tp.justification,
		Invisible:     tp.invisible,
	}
	if keyed {
		loc.Attr = AttrID(n.Attrs[0])
	}
	return loc, nil
}

// parseNetLabel reads (NETLABEL [textcode] (PT x y) [(ORIENT a)] [(ALIGN a)]).
func parseNetLabel(n *sexp.Node) (*NetLabel, error) {
	if err := n.CheckAttrs(0, 1); err != nil {
		return nil, err
	}
	var tp textPlacement
	for _, c := range n.Children {
		switch c.Name {
		case "PT", "ORIENT", "ALIGN":
			if _, err := tp.parseChild(c); err != nil {
				return nil, err
			}
		default:
			return nil, c.Unknown()
		}
	}
	if !tp.hasPosition {
		return nil, n.Errorf(sexp.ErrMissingChild, "PT")
	}
	return &NetLabel{
		Position:    tp.position,
		Orientation: tp.orientation,
		Alignment:   tp.alignment,
		TextCode:    TextCodeID(n.OptAttr(0)),
	}, nil
}

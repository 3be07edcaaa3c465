package schematic

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/csa2kicad/pkg/sexp"
)

// Minimum supported KiCad version for schematics (6.0 = 20211014)
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad schematic file
func ParseFile(filename string) (*Schematic, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads and parses a KiCad schematic from an io.Reader. Unknown
// nodes are ignored.
func Parse(r io.Reader) (*Schematic, error) {
	root, err := sexp.ParseRoot(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}
	if root.Name != "kicad_sch" {
		return nil, fmt.Errorf("not a KiCad schematic file: expected 'kicad_sch', got '%s'", root.Name)
	}

	sch := &Schematic{}
	if err := parseHeader(root, sch); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	for _, n := range root.Children {
		switch n.Name {
		case "uuid":
			sch.UUID = UUID(n.OptAttr(0))
		case "paper":
			sch.PaperName = n.OptAttr(0)
			if sch.PaperName == "User" {
				sch.Paper = Paper{Width: attrFloat(n, 1), Height: attrFloat(n, 2)}
			}
		case "title_block":
			sch.TitleBlock = parseTitleBlock(n)
		case "lib_symbols":
			for _, c := range n.ChildrenNamed("symbol") {
				sch.LibSymbols = append(sch.LibSymbols, parseLibSymbol(c))
			}
		case "bus_alias":
			a := &BusAlias{Name: n.OptAttr(0)}
			if m := n.Child("members"); m != nil {
				a.Members = append(a.Members, m.Attrs...)
			}
			sch.BusAliases = append(sch.BusAliases, a)
		case "symbol":
			sch.Symbols = append(sch.Symbols, parseSymbol(n))
		case "wire":
			sch.Wires = append(sch.Wires, &Wire{Points: parsePts(n), Stroke: parseStroke(n), UUID: parseUUID(n)})
		case "bus":
			sch.Buses = append(sch.Buses, &Bus{Points: parsePts(n), Stroke: parseStroke(n), UUID: parseUUID(n)})
		case "bus_entry":
			e := &BusEntry{Position: parseAt(n).Position, Stroke: parseStroke(n), UUID: parseUUID(n)}
			if s := n.Child("size"); s != nil {
				e.Size = Size{Width: attrFloat(s, 0), Height: attrFloat(s, 1)}
			}
			sch.BusEntries = append(sch.BusEntries, e)
		case "junction":
			j := &Junction{Position: parseAt(n).Position, UUID: parseUUID(n)}
			if d := n.Child("diameter"); d != nil {
				j.Diameter = attrFloat(d, 0)
			}
			sch.Junctions = append(sch.Junctions, j)
		case "no_connect":
			sch.NoConnects = append(sch.NoConnects, &NoConnect{Position: parseAt(n).Position, UUID: parseUUID(n)})
		case "label":
			at := parseAt(n)
			sch.Labels = append(sch.Labels, &Label{Text: n.OptAttr(0), Position: at.Position, Angle: at.Angle,
				Effects: parseEffects(n), UUID: parseUUID(n)})
		case "global_label":
			at := parseAt(n)
			sch.GlobalLabels = append(sch.GlobalLabels, &GlobalLabel{Text: n.OptAttr(0), Shape: childAttr(n, "shape"),
				Position: at.Position, Angle: at.Angle, Effects: parseEffects(n), UUID: parseUUID(n)})
		case "hierarchical_label":
			at := parseAt(n)
			sch.HierLabels = append(sch.HierLabels, &HierLabel{Text: n.OptAttr(0), Shape: childAttr(n, "shape"),
				Position: at.Position, Angle: at.Angle, Effects: parseEffects(n), UUID: parseUUID(n)})
		case "sheet":
			sch.Sheets = append(sch.Sheets, parseSheet(n))
		case "polyline":
			sch.Polylines = append(sch.Polylines, &Polyline{Points: parsePts(n), Stroke: parseStroke(n),
				Fill: parseFill(n), UUID: parseUUID(n)})
		case "arc":
			sch.Arcs = append(sch.Arcs, &Arc{Start: childXY(n, "start"), Mid: childXY(n, "mid"),
				End: childXY(n, "end"), Stroke: parseStroke(n), UUID: parseUUID(n)})
		case "text":
			at := parseAt(n)
			sch.Texts = append(sch.Texts, &Text{Text: n.OptAttr(0), Position: at.Position, Angle: at.Angle,
				Effects: parseEffects(n), UUID: parseUUID(n)})
		}
	}

	// resolve embedded symbols for instances
	for _, sym := range sch.Symbols {
		for _, ls := range sch.LibSymbols {
			if ls.Name == sym.LibID {
				sym.Lib = ls
				break
			}
		}
	}
	return sch, nil
}

// parseHeader extracts version and generator information
func parseHeader(root *sexp.Node, sch *Schematic) error {
	versionNode := root.Child("version")
	if versionNode == nil {
		return fmt.Errorf("missing required 'version' field")
	}
	ver, err := versionNode.Int(0)
	if err != nil {
		return fmt.Errorf("failed to parse version: %w", err)
	}
	if ver < MinSupportedVersion {
		return fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}
	sch.Version = int(ver)
	sch.Generator = childAttr(root, "generator")
	sch.GeneratorVer = childAttr(root, "generator_version")
	return nil
}

// parseTitleBlock extracts title block information
func parseTitleBlock(node *sexp.Node) TitleBlock {
	tb := TitleBlock{
		Title:    childAttr(node, "title"),
		Date:     childAttr(node, "date"),
		Revision: childAttr(node, "rev"),
		Company:  childAttr(node, "company"),
	}
	for _, c := range node.ChildrenNamed("comment") {
		tb.Comments = append(tb.Comments, c.OptAttr(1))
	}
	return tb
}

// parseLibSymbol parses a library symbol definition, from either an
// embedded lib_symbols block or a .kicad_sym file.
func parseLibSymbol(node *sexp.Node) *LibSymbol {
	sym := &LibSymbol{Name: node.OptAttr(0)}
	base := sym.Name
	if i := strings.LastIndex(base, ":"); i >= 0 {
		base = base[i+1:]
	}

	for _, c := range node.Children {
		switch c.Name {
		case "power":
			sym.Power = true
		case "pin_numbers":
			sym.HidePinNumbers = isHidden(c)
		case "pin_names":
			sym.HidePinNames = isHidden(c)
		case "property":
			sym.Properties = append(sym.Properties, parseProperty(c))
		case "symbol":
			sym.Units = append(sym.Units, parseSymbolUnit(c, base))
		}
	}
	return sym
}

// parseSymbolUnit parses a nested symbol unit (contains graphics and pins)
func parseSymbolUnit(node *sexp.Node, base string) *SymbolUnit {
	unit := &SymbolUnit{}
	// unit names are <base>_<unit>_<style>
	if rest, ok := strings.CutPrefix(node.OptAttr(0), base+"_"); ok {
		if num, _, ok := strings.Cut(rest, "_"); ok {
			unit.Number, _ = strconv.Atoi(num)
		}
	}

	for _, c := range node.Children {
		switch c.Name {
		case "polyline":
			unit.Graphics = append(unit.Graphics, SymGraphic{Type: "polyline", Points: parsePts(c),
				Stroke: parseStroke(c), Fill: parseFill(c)})
		case "rectangle":
			s, e := childXY(c, "start"), childXY(c, "end")
			unit.Graphics = append(unit.Graphics, SymGraphic{Type: "polyline",
				Points: []Position{s, {X: e.X, Y: s.Y}, e, {X: s.X, Y: e.Y}, s},
				Stroke: parseStroke(c), Fill: parseFill(c)})
		case "arc":
			unit.Graphics = append(unit.Graphics, SymGraphic{Type: "arc", Start: childXY(c, "start"),
				Mid: childXY(c, "mid"), End: childXY(c, "end"), Stroke: parseStroke(c), Fill: parseFill(c)})
		case "text":
			at := parseAt(c)
			unit.Graphics = append(unit.Graphics, SymGraphic{Type: "text", Text: c.OptAttr(0),
				Position: at.Position, Angle: at.Angle / 10, Effects: parseEffects(c)})
		case "pin":
			unit.Pins = append(unit.Pins, parsePin(c))
		}
	}
	return unit
}

// parsePin parses a pin definition
func parsePin(node *sexp.Node) Pin {
	at := parseAt(node)
	pin := Pin{
		Type:     node.OptAttr(0),
		Style:    node.OptAttr(1),
		Position: at.Position,
		Angle:    at.Angle,
		Name:     childAttr(node, "name"),
		Number:   childAttr(node, "number"),
		Hide:     isHidden(node),
	}
	if l := node.Child("length"); l != nil {
		pin.Length = attrFloat(l, 0)
	}
	if pin.Name == "~" {
		pin.Name = ""
	}
	return pin
}

// parseSymbol parses a single symbol instance
func parseSymbol(node *sexp.Node) *Symbol {
	at := parseAt(node)
	sym := &Symbol{
		LibID:    childAttr(node, "lib_id"),
		Position: at.Position,
		Angle:    at.Angle,
		Mirror:   childAttr(node, "mirror"),
		Unit:     1,
		InBom:    true,
		OnBoard:  true,
		UUID:     parseUUID(node),
	}
	if u := node.Child("unit"); u != nil {
		if v, err := u.Int(0); err == nil {
			sym.Unit = int(v)
		}
	}
	if b := node.Child("in_bom"); b != nil {
		sym.InBom = b.OptAttr(0) == "yes"
	}
	if b := node.Child("on_board"); b != nil {
		sym.OnBoard = b.OptAttr(0) == "yes"
	}
	for _, p := range node.ChildrenNamed("property") {
		sym.Properties = append(sym.Properties, parseProperty(p))
	}
	for _, p := range node.ChildrenNamed("pin") {
		sym.Pins = append(sym.Pins, PinRef{Number: p.OptAttr(0), UUID: parseUUID(p)})
	}
	return sym
}

// parseSheet parses a hierarchical sheet and its pins
func parseSheet(node *sexp.Node) *Sheet {
	sh := &Sheet{
		Position: parseAt(node).Position,
		Stroke:   parseStroke(node),
		UUID:     parseUUID(node),
	}
	if s := node.Child("size"); s != nil {
		sh.Size = Size{Width: attrFloat(s, 0), Height: attrFloat(s, 1)}
	}
	for _, c := range node.Children {
		switch c.Name {
		case "property":
			switch c.OptAttr(0) {
			case "Sheetname", "Sheet name":
				sh.Name = c.OptAttr(1)
			case "Sheetfile", "Sheet file":
				sh.FileName = c.OptAttr(1)
			}
		case "pin":
			at := parseAt(c)
			sh.Pins = append(sh.Pins, &SheetPin{Name: c.OptAttr(0), Shape: c.OptAttr(1),
				Position: at.Position, Side: at.Angle, Effects: parseEffects(c), UUID: parseUUID(c)})
		}
	}
	return sh
}

func parseProperty(node *sexp.Node) Property {
	return Property{
		Key:      node.OptAttr(0),
		Value:    node.OptAttr(1),
		Position: parseAt(node),
		Effects:  parseEffects(node),
	}
}

func parseEffects(node *sexp.Node) Effects {
	eff := DefaultEffects()
	e := node.Child("effects")
	if e == nil {
		return eff
	}
	if f := e.Child("font"); f != nil {
		if s := f.Child("size"); s != nil {
			eff.Font.Size = Size{Height: attrFloat(s, 0), Width: attrFloat(s, 1)}
		}
		if t := f.Child("thickness"); t != nil {
			eff.Font.Thickness = attrFloat(t, 0)
		}
		eff.Font.Bold = f.HasAttr("bold") || childAttr(f, "bold") == "yes"
		eff.Font.Italic = f.HasAttr("italic") || childAttr(f, "italic") == "yes"
	}
	if j := e.Child("justify"); j != nil {
		for _, a := range j.Attrs {
			switch a {
			case "left", "right":
				eff.Justify.Horizontal = a
			case "top", "bottom":
				eff.Justify.Vertical = a
			case "mirror":
				eff.Justify.Mirror = true
			}
		}
	}
	eff.Hide = isHidden(e)
	return eff
}

// isHidden accepts both the bare "hide" atom and a (hide yes) child.
func isHidden(n *sexp.Node) bool {
	if n.HasAttr("hide") {
		return true
	}
	return childAttr(n, "hide") == "yes"
}

func parseAt(node *sexp.Node) PositionAngle {
	at := node.Child("at")
	if at == nil {
		return PositionAngle{}
	}
	return PositionAngle{
		Position: Position{X: attrFloat(at, 0), Y: attrFloat(at, 1)},
		Angle:    Angle(attrFloat(at, 2)),
	}
}

func parsePts(node *sexp.Node) []Position {
	pts := node.Child("pts")
	if pts == nil {
		return nil
	}
	var out []Position
	for _, xy := range pts.ChildrenNamed("xy") {
		out = append(out, Position{X: attrFloat(xy, 0), Y: attrFloat(xy, 1)})
	}
	return out
}

func parseStroke(node *sexp.Node) Stroke {
	s := node.Child("stroke")
	if s == nil {
		return Stroke{}
	}
	st := Stroke{Type: childAttr(s, "type")}
	if w := s.Child("width"); w != nil {
		st.Width = attrFloat(w, 0)
	}
	if st.Type == "default" {
		st.Type = ""
	}
	return st
}

func parseFill(node *sexp.Node) Fill {
	f := node.Child("fill")
	if f == nil {
		return Fill{}
	}
	t := childAttr(f, "type")
	if t == "none" {
		t = ""
	}
	return Fill{Type: t}
}

func parseUUID(node *sexp.Node) UUID {
	return UUID(childAttr(node, "uuid"))
}

func childXY(node *sexp.Node, name string) Position {
	c := node.Child(name)
	if c == nil {
		return Position{}
	}
	return Position{X: attrFloat(c, 0), Y: attrFloat(c, 1)}
}

// childAttr returns the first attribute of the named child, or "".
func childAttr(node *sexp.Node, name string) string {
	if c := node.Child(name); c != nil {
		return c.OptAttr(0)
	}
	return ""
}

// attrFloat returns attribute i as a float, or 0.
func attrFloat(node *sexp.Node, i int) float64 {
	v, err := node.Float(i)
	if err != nil {
		return 0
	}
	return v
}

// ParseLibraryFile reads a .kicad_sym symbol library.
func ParseLibraryFile(filename string) ([]*LibSymbol, error) {
	root, err := sexp.ParseFile(filename)
	if err != nil {
		return nil, err
	}
	if root.Name != "kicad_symbol_lib" {
		return nil, fmt.Errorf("not a KiCad symbol library: expected 'kicad_symbol_lib', got '%s'", root.Name)
	}
	var out []*LibSymbol
	for _, c := range root.ChildrenNamed("symbol") {
		out = append(out, parseLibSymbol(c))
	}
	return out, nil
}

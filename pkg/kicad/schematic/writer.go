package schematic

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/OpenTraceLab/csa2kicad/pkg/sexp"
)

// File header values written to every document.
const (
	FileVersion      = 20231120
	Generator        = "csa2kicad"
	GeneratorVersion = "1.0"
)

// pageContext carries what a page needs to write instance data.
type pageContext struct {
	project string
	path    string
	root    bool
	lib     *Library
}

// WriteProject writes every page of p into dir, plus the project's
// symbol library as <library>.kicad_sym.
func WriteProject(dir string, p *Project) error {
	if p.Root == nil {
		return fmt.Errorf("project %q has no pages", p.Name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, page := range p.Pages() {
		if err := writeNodeFile(filepath.Join(dir, page.FileName), p.PageNode(page)); err != nil {
			return err
		}
	}
	return writeNodeFile(filepath.Join(dir, p.Library.Name+".kicad_sym"), p.LibraryNode())
}

func writeNodeFile(path string, n *sexp.Node) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if _, err := n.WriteTo(w); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// PageNode builds the document for one page.
func (p *Project) PageNode(page *Page) *sexp.Node {
	return schematicNode(page.Schematic, &pageContext{
		project: p.Name,
		path:    page.InstancePath(),
		root:    page.Parent == nil,
		lib:     p.Library,
	})
}

// LibraryNode builds a .kicad_sym document holding every library symbol.
func (p *Project) LibraryNode() *sexp.Node {
	n := sexp.List("kicad_symbol_lib",
		sexp.List("version", FileVersion),
		sexp.List("generator", sexp.Quoted(Generator)),
		sexp.List("generator_version", sexp.Quoted(GeneratorVersion)))
	for _, sym := range p.Library.Symbols() {
		n.Add(libSymbolNode(sym, sym.Name))
	}
	return n
}

// Write writes a standalone schematic without instance data.
func (s *Schematic) Write(w io.Writer) error {
	_, err := schematicNode(s, nil).WriteTo(w)
	return err
}

func schematicNode(s *Schematic, pc *pageContext) *sexp.Node {
	n := sexp.List("kicad_sch",
		sexp.List("version", s.Version),
		sexp.List("generator", sexp.Quoted(s.Generator)),
		sexp.List("generator_version", sexp.Quoted(s.GeneratorVer)),
		sexp.List("uuid", string(s.UUID)),
		paperNode(s),
		titleBlockNode(s.TitleBlock))

	libs := sexp.List("lib_symbols")
	seen := map[string]bool{}
	for _, ls := range s.LibSymbols {
		seen[ls.Name] = true
		libs.Add(libSymbolNode(ls, ls.Name))
	}
	for _, sym := range s.Symbols {
		if sym.Lib == nil || seen[sym.LibID] {
			continue
		}
		seen[sym.LibID] = true
		libs.Add(libSymbolNode(sym.Lib, sym.LibID))
	}
	n.Add(libs)

	for _, a := range s.BusAliases {
		members := sexp.List("members")
		for _, m := range a.Members {
			members.Add(sexp.Quoted(m))
		}
		n.Add(sexp.List("bus_alias", sexp.Quoted(a.Name), members))
	}
	for _, j := range s.Junctions {
		n.Add(sexp.List("junction", atNode(j.Position), sexp.List("diameter", j.Diameter),
			sexp.List("color", 0, 0, 0, 0), uuidNode(j.UUID)))
	}
	for _, nc := range s.NoConnects {
		n.Add(sexp.List("no_connect", atNode(nc.Position), uuidNode(nc.UUID)))
	}
	for _, e := range s.BusEntries {
		n.Add(sexp.List("bus_entry", atNode(e.Position), sexp.List("size", e.Size.Width, e.Size.Height),
			strokeNode(e.Stroke), uuidNode(e.UUID)))
	}
	for _, w := range s.Wires {
		n.Add(sexp.List("wire", ptsNode(w.Points), strokeNode(w.Stroke), uuidNode(w.UUID)))
	}
	for _, b := range s.Buses {
		n.Add(sexp.List("bus", ptsNode(b.Points), strokeNode(b.Stroke), uuidNode(b.UUID)))
	}
	for _, pl := range s.Polylines {
		n.Add(sexp.List("polyline", ptsNode(pl.Points), strokeNode(pl.Stroke), fillNode(pl.Fill), uuidNode(pl.UUID)))
	}
	for _, a := range s.Arcs {
		n.Add(sexp.List("arc", sexp.List("start", a.Start.X, a.Start.Y), sexp.List("mid", a.Mid.X, a.Mid.Y),
			sexp.List("end", a.End.X, a.End.Y), strokeNode(a.Stroke), fillNode(Fill{}), uuidNode(a.UUID)))
	}
	for _, t := range s.Texts {
		n.Add(sexp.List("text", sexp.Quoted(t.Text), sexp.List("exclude_from_sim", false),
			atAngleNode(t.Position, t.Angle), effectsNode(t.Effects), uuidNode(t.UUID)))
	}
	for _, l := range s.Labels {
		eff := l.Effects
		eff.Justify = labelJustify(l.Angle)
		n.Add(sexp.List("label", sexp.Quoted(l.Text), atAngleNode(l.Position, l.Angle),
			effectsNode(eff), uuidNode(l.UUID)))
	}
	for _, l := range s.GlobalLabels {
		eff := l.Effects
		eff.Justify = Justify{Horizontal: labelJustify(l.Angle).Horizontal}
		n.Add(sexp.List("global_label", sexp.Quoted(l.Text), sexp.List("shape", shapeOrDefault(l.Shape)),
			atAngleNode(l.Position, l.Angle), sexp.List("fields_autoplaced", true),
			effectsNode(eff), uuidNode(l.UUID)))
	}
	for _, l := range s.HierLabels {
		eff := l.Effects
		eff.Justify = Justify{Horizontal: labelJustify(l.Angle).Horizontal}
		n.Add(sexp.List("hierarchical_label", sexp.Quoted(l.Text), sexp.List("shape", shapeOrDefault(l.Shape)),
			atAngleNode(l.Position, l.Angle), effectsNode(eff), uuidNode(l.UUID)))
	}
	for _, sym := range s.Symbols {
		n.Add(symbolNode(sym, pc))
	}
	for _, sh := range s.Sheets {
		n.Add(sheetNode(sh, pc))
	}
	if pc != nil && pc.root {
		n.Add(sexp.List("sheet_instances", sexp.List("path", sexp.Quoted("/"), sexp.List("page", sexp.Quoted("1")))))
	}
	return n
}

func paperNode(s *Schematic) *sexp.Node {
	if s.PaperName != "" && s.PaperName != "User" {
		return sexp.List("paper", sexp.Quoted(s.PaperName))
	}
	return sexp.List("paper", sexp.Quoted("User"), s.Paper.Width, s.Paper.Height)
}

func titleBlockNode(tb TitleBlock) *sexp.Node {
	n := sexp.List("title_block")
	if tb.Title != "" {
		n.Add(sexp.List("title", sexp.Quoted(tb.Title)))
	}
	if tb.Date != "" {
		n.Add(sexp.List("date", sexp.Quoted(tb.Date)))
	}
	if tb.Revision != "" {
		n.Add(sexp.List("rev", sexp.Quoted(tb.Revision)))
	}
	if tb.Company != "" {
		n.Add(sexp.List("company", sexp.Quoted(tb.Company)))
	}
	for i, c := range tb.Comments {
		n.Add(sexp.List("comment", i+1, sexp.Quoted(c)))
	}
	if len(n.Children) == 0 {
		return nil
	}
	return n
}

func libSymbolNode(sym *LibSymbol, name string) *sexp.Node {
	n := sexp.List("symbol", sexp.Quoted(name))
	if sym.Power {
		n.Add(sexp.List("power"))
	}
	if sym.HidePinNumbers {
		n.Add(sexp.List("pin_numbers", "hide"))
	}
	if sym.HidePinNames {
		n.Add(sexp.List("pin_names", "hide"))
	}
	n.Add(sexp.List("exclude_from_sim", false), sexp.List("in_bom", !sym.Power), sexp.List("on_board", true))
	for _, p := range sym.Properties {
		n.Add(propertyNode(p))
	}
	for _, u := range sym.Units {
		un := sexp.List("symbol", sexp.Quoted(unitName(sym.Name, u.Number)))
		for _, g := range u.Graphics {
			un.Add(graphicNode(g))
		}
		for _, p := range u.Pins {
			un.Add(pinNode(p))
		}
		n.Add(un)
	}
	return n
}

func graphicNode(g SymGraphic) *sexp.Node {
	switch g.Type {
	case "arc":
		return sexp.List("arc", sexp.List("start", g.Start.X, g.Start.Y), sexp.List("mid", g.Mid.X, g.Mid.Y),
			sexp.List("end", g.End.X, g.End.Y), strokeNode(g.Stroke), fillNode(g.Fill))
	case "text":
		// symbol text angles are stored in tenths of a degree
		return sexp.List("text", sexp.Quoted(g.Text),
			sexp.List("at", g.Position.X, g.Position.Y, float64(g.Angle)*10), effectsNode(g.Effects))
	default:
		return sexp.List("polyline", ptsNode(g.Points), strokeNode(g.Stroke), fillNode(g.Fill))
	}
}

func pinNode(p Pin) *sexp.Node {
	style := p.Style
	if style == "" {
		style = "line"
	}
	n := sexp.List("pin", p.Type, style, atAngleNode(p.Position, p.Angle), sexp.List("length", p.Length))
	if p.Hide {
		n.Add("hide")
	}
	name := p.Name
	if name == "" {
		name = "~"
	}
	n.Add(sexp.List("name", sexp.Quoted(name), effectsNode(DefaultEffects())),
		sexp.List("number", sexp.Quoted(p.Number), effectsNode(DefaultEffects())))
	return n
}

func symbolNode(sym *Symbol, pc *pageContext) *sexp.Node {
	n := sexp.List("symbol", sexp.List("lib_id", sexp.Quoted(sym.LibID)), atAngleNode(sym.Position, sym.Angle))
	if sym.Mirror != "" {
		n.Add(sexp.List("mirror", sym.Mirror))
	}
	n.Add(sexp.List("unit", sym.Unit), sexp.List("exclude_from_sim", false),
		sexp.List("in_bom", sym.InBom), sexp.List("on_board", sym.OnBoard),
		sexp.List("dnp", false), uuidNode(sym.UUID))
	for _, p := range sym.Properties {
		n.Add(propertyNode(p))
	}
	for _, p := range sym.Pins {
		n.Add(sexp.List("pin", sexp.Quoted(p.Number), uuidNode(p.UUID)))
	}
	if pc != nil {
		n.Add(sexp.List("instances", sexp.List("project", sexp.Quoted(pc.project),
			sexp.List("path", sexp.Quoted(pc.path),
				sexp.List("reference", sexp.Quoted(sym.Reference())),
				sexp.List("unit", sym.Unit)))))
	}
	return n
}

func sheetNode(sh *Sheet, pc *pageContext) *sexp.Node {
	stroke := sh.Stroke
	if stroke.Type == "" {
		stroke.Type = "solid"
	}
	n := sexp.List("sheet", atNode(sh.Position), sexp.List("size", sh.Size.Width, sh.Size.Height),
		sexp.List("fields_autoplaced", true), strokeNode(stroke),
		sexp.List("fill", sexp.List("color", 0, 0, 0, 0.0)), uuidNode(sh.UUID))

	nameEff := DefaultEffects()
	nameEff.Justify = Justify{Horizontal: "left", Vertical: "bottom"}
	fileEff := DefaultEffects()
	fileEff.Justify = Justify{Horizontal: "left", Vertical: "top"}
	n.Add(propertyNode(Property{Key: "Sheetname", Value: sh.Name,
		Position: PositionAngle{Position: sh.Position.Add(Position{Y: -0.7116})}, Effects: nameEff}))
	n.Add(propertyNode(Property{Key: "Sheetfile", Value: sh.FileName,
		Position: PositionAngle{Position: sh.Position.Add(Position{Y: sh.Size.Height + 0.5884})}, Effects: fileEff}))

	for _, p := range sh.Pins {
		eff := p.Effects
		eff.Justify = Justify{Horizontal: sheetPinJustify(p.Side)}
		n.Add(sexp.List("pin", sexp.Quoted(p.Name), shapeOrDefault(p.Shape),
			atAngleNode(p.Position, p.Side), effectsNode(eff), uuidNode(p.UUID)))
	}
	if pc != nil && sh.Page != nil {
		n.Add(sexp.List("instances", sexp.List("project", sexp.Quoted(pc.project),
			sexp.List("path", sexp.Quoted(pc.path), sexp.List("page", sexp.Quoted(strconv.Itoa(sh.Page.Number)))))))
	}
	return n
}

func shapeOrDefault(s string) string {
	if s == "" {
		return "passive"
	}
	return s
}

// labelJustify anchors a label's text at the end nearest its connection.
func labelJustify(a Angle) Justify {
	switch normAngle(a) {
	case 180, 270:
		return Justify{Horizontal: "right", Vertical: "bottom"}
	}
	return Justify{Horizontal: "left", Vertical: "bottom"}
}

// sheetPinJustify puts the text inside the sheet body.
func sheetPinJustify(side Angle) string {
	switch normAngle(side) {
	case 0, 270:
		return "right"
	}
	return "left"
}

func normAngle(a Angle) float64 {
	return math.Mod(math.Mod(float64(a), 360)+360, 360)
}

func atNode(p Position) *sexp.Node { return sexp.List("at", p.X, p.Y) }

func atAngleNode(p Position, a Angle) *sexp.Node {
	return sexp.List("at", p.X, p.Y, normAngle(a))
}

func uuidNode(id UUID) *sexp.Node { return sexp.List("uuid", string(id)) }

func ptsNode(pts []Position) *sexp.Node {
	n := sexp.List("pts")
	for _, p := range pts {
		n.Add(sexp.List("xy", p.X, p.Y))
	}
	return n
}

func strokeNode(s Stroke) *sexp.Node {
	t := s.Type
	if t == "" {
		t = "default"
	}
	return sexp.List("stroke", sexp.List("width", s.Width), sexp.List("type", t))
}

func fillNode(f Fill) *sexp.Node {
	t := f.Type
	if t == "" {
		t = "none"
	}
	return sexp.List("fill", sexp.List("type", t))
}

func effectsNode(e Effects) *sexp.Node {
	size := e.Font.Size
	if size.Height == 0 {
		size = Size{Width: DefaultTextSize, Height: DefaultTextSize}
	}
	font := sexp.List("font", sexp.List("size", size.Height, size.Width))
	if e.Font.Thickness > 0 {
		font.Add(sexp.List("thickness", e.Font.Thickness))
	}
	if e.Font.Bold {
		font.Add(sexp.List("bold", true))
	}
	if e.Font.Italic {
		font.Add(sexp.List("italic", true))
	}
	n := sexp.List("effects", font)
	if j := e.Justify; j.Horizontal != "" || j.Vertical != "" || j.Mirror {
		jn := sexp.List("justify")
		if j.Horizontal != "" {
			jn.Add(j.Horizontal)
		}
		if j.Vertical != "" {
			jn.Add(j.Vertical)
		}
		if j.Mirror {
			jn.Add("mirror")
		}
		n.Add(jn)
	}
	if e.Hide {
		n.Add(sexp.List("hide", true))
	}
	return n
}

func propertyNode(p Property) *sexp.Node {
	return sexp.List("property", sexp.Quoted(p.Key), sexp.Quoted(p.Value),
		atAngleNode(p.Position.Position, p.Position.Angle), effectsNode(p.Effects))
}

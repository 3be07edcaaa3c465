// Package schematic models KiCad schematic projects: a tree of pages, each a
// .kicad_sch file, plus the library of symbols they place. It reads and
// writes the KiCad S-expression format.
package schematic

import (
	"fmt"
)

// Item is anything that can be placed on a page.
type Item interface {
	ItemUUID() UUID
	// BoundingBox covers the visible content only; hidden fields are
	// ignored.
	BoundingBox() BoundingBox
	Move(delta Position)
}

// Paper is a user-sized page in mm.
type Paper struct {
	Width  float64
	Height float64
}

// Schematic is the content of one .kicad_sch file.
type Schematic struct {
	Version      int
	Generator    string
	GeneratorVer string
	UUID         UUID
	Paper        Paper
	PaperName    string // set when read from a file with a named paper
	TitleBlock   TitleBlock
	LibSymbols   []*LibSymbol // embedded symbols read from a file
	BusAliases   []*BusAlias
	Symbols      []*Symbol
	Wires        []*Wire
	Buses        []*Bus
	BusEntries   []*BusEntry
	Junctions    []*Junction
	NoConnects   []*NoConnect
	Labels       []*Label
	GlobalLabels []*GlobalLabel
	HierLabels   []*HierLabel
	Sheets       []*Sheet
	Polylines    []*Polyline
	Arcs         []*Arc
	Texts        []*Text
}

// TitleBlock contains schematic title block information.
type TitleBlock struct {
	Title    string
	Date     string
	Revision string
	Company  string
	Comments []string
}

// BusAlias names a group of nets carried by a bus.
type BusAlias struct {
	Name    string
	Members []string
}

// AddMember appends name unless it is already a member.
func (a *BusAlias) AddMember(name string) {
	for _, m := range a.Members {
		if m == name {
			return
		}
	}
	a.Members = append(a.Members, name)
}

// Wire is a straight wire segment.
type Wire struct {
	Points []Position
	Stroke Stroke
	UUID   UUID
}

// Bus is a straight bus segment.
type Bus struct {
	Points []Position
	Stroke Stroke
	UUID   UUID
}

// BusEntry joins a wire to a bus.
type BusEntry struct {
	Position Position
	Size     Size
	Stroke   Stroke
	UUID     UUID
}

// Junction marks a wire junction.
type Junction struct {
	Position Position
	Diameter float64
	UUID     UUID
}

// NoConnect marks a deliberately unconnected pin.
type NoConnect struct {
	Position Position
	UUID     UUID
}

// Label is a local net label. Angle is the spin: 0 reads to the right of
// the anchor, 180 to the left.
type Label struct {
	Text     string
	Position Position
	Angle    Angle
	Effects  Effects
	UUID     UUID
}

// GlobalLabel is a net label visible across every page.
type GlobalLabel struct {
	Text     string
	Shape    string
	Position Position
	Angle    Angle
	Effects  Effects
	UUID     UUID
}

// HierLabel connects a page to the pin of its sheet symbol.
type HierLabel struct {
	Text     string
	Shape    string
	Position Position
	Angle    Angle
	Effects  Effects
	UUID     UUID
}

// Sheet is a sheet symbol referencing a child page.
type Sheet struct {
	Position Position
	Size     Size
	Stroke   Stroke
	Fill     Fill
	UUID     UUID
	Name     string
	FileName string
	Pins     []*SheetPin
	// Page is the child page; nil when read from a file.
	Page *Page
}

// SheetPin is a hierarchical pin on a sheet symbol's edge. Side is the
// edge's text angle: 0 right, 90 top, 180 left, 270 bottom.
type SheetPin struct {
	Name     string
	Shape    string
	Position Position
	Side     Angle
	Effects  Effects
	UUID     UUID
}

// Polyline is a graphic line or polygon.
type Polyline struct {
	Points []Position
	Stroke Stroke
	Fill   Fill
	UUID   UUID
}

// Arc is a graphic arc through three points.
type Arc struct {
	Start  Position
	Mid    Position
	End    Position
	Stroke Stroke
	UUID   UUID
}

// Text is free graphic text.
type Text struct {
	Text     string
	Position Position
	Angle    Angle
	Effects  Effects
	UUID     UUID
}

// NewSchematic returns an empty page body.
func NewSchematic(id UUID) *Schematic {
	return &Schematic{
		Version:      FileVersion,
		Generator:    Generator,
		GeneratorVer: GeneratorVersion,
		UUID:         id,
		Paper:        Paper{Width: 297, Height: 210},
	}
}

// Add places an item on the page.
func (s *Schematic) Add(item Item) error {
	switch v := item.(type) {
	case *Symbol:
		s.Symbols = append(s.Symbols, v)
	case *Wire:
		s.Wires = append(s.Wires, v)
	case *Bus:
		s.Buses = append(s.Buses, v)
	case *BusEntry:
		s.BusEntries = append(s.BusEntries, v)
	case *Junction:
		s.Junctions = append(s.Junctions, v)
	case *NoConnect:
		s.NoConnects = append(s.NoConnects, v)
	case *Label:
		s.Labels = append(s.Labels, v)
	case *GlobalLabel:
		s.GlobalLabels = append(s.GlobalLabels, v)
	case *HierLabel:
		s.HierLabels = append(s.HierLabels, v)
	case *Sheet:
		s.Sheets = append(s.Sheets, v)
	case *Polyline:
		s.Polylines = append(s.Polylines, v)
	case *Arc:
		s.Arcs = append(s.Arcs, v)
	case *Text:
		s.Texts = append(s.Texts, v)
	default:
		return fmt.Errorf("unsupported item type %T", item)
	}
	return nil
}

// Items returns every placed item.
func (s *Schematic) Items() []Item {
	var items []Item
	for _, v := range s.Symbols {
		items = append(items, v)
	}
	for _, v := range s.Wires {
		items = append(items, v)
	}
	for _, v := range s.Buses {
		items = append(items, v)
	}
	for _, v := range s.BusEntries {
		items = append(items, v)
	}
	for _, v := range s.Junctions {
		items = append(items, v)
	}
	for _, v := range s.NoConnects {
		items = append(items, v)
	}
	for _, v := range s.Labels {
		items = append(items, v)
	}
	for _, v := range s.GlobalLabels {
		items = append(items, v)
	}
	for _, v := range s.HierLabels {
		items = append(items, v)
	}
	for _, v := range s.Sheets {
		items = append(items, v)
	}
	for _, v := range s.Polylines {
		items = append(items, v)
	}
	for _, v := range s.Arcs {
		items = append(items, v)
	}
	for _, v := range s.Texts {
		items = append(items, v)
	}
	return items
}

// GetBoundingBox covers the visible content of every item.
func (s *Schematic) GetBoundingBox() BoundingBox {
	bbox := NewBoundingBox()
	for _, it := range s.Items() {
		bbox.ExpandBox(it.BoundingBox())
	}
	return bbox
}

// Move translates every item.
func (s *Schematic) Move(delta Position) {
	for _, it := range s.Items() {
		it.Move(delta)
	}
}

// BusAlias returns the alias with the given name.
func (s *Schematic) BusAlias(name string) *BusAlias {
	for _, a := range s.BusAliases {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// GetSymbol returns a symbol by reference designator.
func (s *Schematic) GetSymbol(ref string) *Symbol {
	for _, sym := range s.Symbols {
		if sym.Reference() == ref {
			return sym
		}
	}
	return nil
}

// GetAllReferences returns all reference designators.
func (s *Schematic) GetAllReferences() []string {
	var refs []string
	for _, sym := range s.Symbols {
		if r := sym.Reference(); r != "" {
			refs = append(refs, r)
		}
	}
	return refs
}

// GetLabels returns all label names (local + global + hierarchical).
func (s *Schematic) GetLabels() []string {
	seen := make(map[string]bool)
	var labels []string
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			labels = append(labels, t)
		}
	}
	for _, l := range s.Labels {
		add(l.Text)
	}
	for _, l := range s.GlobalLabels {
		add(l.Text)
	}
	for _, l := range s.HierLabels {
		add(l.Text)
	}
	return labels
}

func pointsBox(pts []Position) BoundingBox {
	bb := NewBoundingBox()
	for _, p := range pts {
		bb.Expand(p)
	}
	return bb
}

func movePoints(pts []Position, d Position) {
	for i := range pts {
		pts[i] = pts[i].Add(d)
	}
}

func (w *Wire) ItemUUID() UUID               { return w.UUID }
func (w *Wire) BoundingBox() BoundingBox     { return pointsBox(w.Points) }
func (w *Wire) Move(d Position)              { movePoints(w.Points, d) }
func (b *Bus) ItemUUID() UUID                { return b.UUID }
func (b *Bus) BoundingBox() BoundingBox      { return pointsBox(b.Points) }
func (b *Bus) Move(d Position)               { movePoints(b.Points, d) }
func (p *Polyline) ItemUUID() UUID           { return p.UUID }
func (p *Polyline) BoundingBox() BoundingBox { return pointsBox(p.Points) }
func (p *Polyline) Move(d Position)          { movePoints(p.Points, d) }

func (e *BusEntry) ItemUUID() UUID { return e.UUID }
func (e *BusEntry) BoundingBox() BoundingBox {
	return pointsBox([]Position{e.Position, e.Position.Add(Position{X: e.Size.Width, Y: e.Size.Height})})
}
func (e *BusEntry) Move(d Position) { e.Position = e.Position.Add(d) }

func (j *Junction) ItemUUID() UUID           { return j.UUID }
func (j *Junction) BoundingBox() BoundingBox { return pointsBox([]Position{j.Position}) }
func (j *Junction) Move(d Position)          { j.Position = j.Position.Add(d) }

func (n *NoConnect) ItemUUID() UUID           { return n.UUID }
func (n *NoConnect) BoundingBox() BoundingBox { return pointsBox([]Position{n.Position}) }
func (n *NoConnect) Move(d Position)          { n.Position = n.Position.Add(d) }

func (a *Arc) ItemUUID() UUID           { return a.UUID }
func (a *Arc) BoundingBox() BoundingBox { return pointsBox([]Position{a.Start, a.Mid, a.End}) }
func (a *Arc) Move(d Position) {
	a.Start, a.Mid, a.End = a.Start.Add(d), a.Mid.Add(d), a.End.Add(d)
}

// labelBox covers a label reading away from its anchor in the spin
// direction.
func labelBox(text string, at Position, spin Angle, eff Effects) BoundingBox {
	eff.Justify = Justify{Horizontal: "left"}
	return textBox(text, at, spin, eff)
}

func (l *Label) ItemUUID() UUID           { return l.UUID }
func (l *Label) BoundingBox() BoundingBox { return labelBox(l.Text, l.Position, l.Angle, l.Effects) }
func (l *Label) Move(d Position)          { l.Position = l.Position.Add(d) }

func (l *GlobalLabel) ItemUUID() UUID { return l.UUID }
func (l *GlobalLabel) BoundingBox() BoundingBox {
	return labelBox(l.Text, l.Position, l.Angle, l.Effects)
}
func (l *GlobalLabel) Move(d Position) { l.Position = l.Position.Add(d) }

func (l *HierLabel) ItemUUID() UUID { return l.UUID }
func (l *HierLabel) BoundingBox() BoundingBox {
	return labelBox(l.Text, l.Position, l.Angle, l.Effects)
}
func (l *HierLabel) Move(d Position) { l.Position = l.Position.Add(d) }

func (t *Text) ItemUUID() UUID { return t.UUID }
func (t *Text) BoundingBox() BoundingBox {
	if t.Effects.Hide {
		return NewBoundingBox()
	}
	return textBox(t.Text, t.Position, t.Angle, t.Effects)
}
func (t *Text) Move(d Position) { t.Position = t.Position.Add(d) }

func (s *Sheet) ItemUUID() UUID { return s.UUID }
func (s *Sheet) BoundingBox() BoundingBox {
	bb := pointsBox([]Position{s.Position, s.Position.Add(Position{X: s.Size.Width, Y: s.Size.Height})})
	for _, p := range s.Pins {
		bb.Expand(p.Position)
	}
	return bb
}
func (s *Sheet) Move(d Position) {
	s.Position = s.Position.Add(d)
	for _, p := range s.Pins {
		p.Position = p.Position.Add(d)
	}
}

// Rect returns the sheet body's corners.
func (s *Sheet) Rect() BoundingBox {
	return pointsBox([]Position{s.Position, s.Position.Add(Position{X: s.Size.Width, Y: s.Size.Height})})
}

// Pin returns the sheet pin with the given UUID.
func (s *Sheet) Pin(id UUID) *SheetPin {
	for _, p := range s.Pins {
		if p.UUID == id {
			return p
		}
	}
	return nil
}

package archive

import (
	"time"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/geom"
)

// Point is an archive coordinate.
type Point = geom.Point

// Archive is the parsed form of a schematic archive.
type Archive struct {
	Header      Header
	Assignments Assignments
	Library     Library
	Parts       Table[PartID, *Part]
	Sheets      Sheets
	Schematic   Schematic
}

// Header carries the document identity and its unit.
type Header struct {
	Format           Format
	JobFile          string
	JobTitle         string
	Generator        string
	GeneratorVersion string
	Resolution       Resolution
	Timestamp        time.Time
}

// Format is the declared archive type and version.
type Format struct {
	Type  string
	Major int64
	Minor int64
}

// Resolution is the base unit every coordinate is expressed in.
type Resolution int

const (
	HundredthMicrometre Resolution = iota
	TenthMicrometre
	Thou
)

// UnitMM returns the millimetre size of one unit.
func (r Resolution) UnitMM() float64 {
	switch r {
	case TenthMicrometre:
		return 1e-4
	case Thou:
		return 0.0254
	default:
		return 1e-5
	}
}

func (r Resolution) String() string {
	switch r {
	case TenthMicrometre:
		return "TENTH MICROMETRE"
	case Thou:
		return "THOU"
	default:
		return "HUNDREDTH MICROMETRE"
	}
}

// Assignments holds the design-wide code tables and settings.
type Assignments struct {
	LineCodes  Table[LineCodeID, *LineCode]
	TextCodes  Table[TextCodeID, *TextCode]
	RouteCodes Table[RouteCodeID, *RouteCode]
	AttrNames  Table[AttrID, *AttrName]
	Grids      Grids
	Settings   Settings
}

type LineCode struct {
	ID    LineCodeID
	Name  string
	Width int64
	Style string
}

type TextCode struct {
	ID        TextCodeID
	Name      string
	LineWidth int64
	Height    int64
	Width     int64
}

type RouteCode struct {
	ID    RouteCodeID
	Name  string
	Width int64
}

type AttrName struct {
	ID   AttrID
	Name string
}

// Grid is a named step.
type Grid struct {
	Name  string
	StepX int64
	StepY int64
}

type Grids struct {
	Working Grid
	Screen  Grid
}

type Settings struct {
	Units        string
	DesignArea   [2]Point
	AllowBarText bool
}

// DesignCenter is the centre of the design area; page coordinates are
// taken relative to it.
func (s Settings) DesignCenter() Point {
	return Point{
		X: (s.DesignArea[0].X + s.DesignArea[1].X) / 2,
		Y: (s.DesignArea[0].Y + s.DesignArea[1].Y) / 2,
	}
}

// Library holds every symbol definition.
type Library struct {
	Symdefs Table[SymdefID, *Symdef]
}

// Symdef is a library template. Geometry is relative to Origin.
type Symdef struct {
	ID            SymdefID
	ReferenceName string
	Alternate     string
	Version       int64
	Origin        Point
	Figures       []*Figure
	Terminals     Table[TerminalID, *Terminal]
	Texts         []*Text
	TextLocations Table[AttrID, *AttrLocation]
	Gates         int64
}

// Name returns the reference name with the alternate appended.
func (s *Symdef) Name() string {
	if s.Alternate == "" {
		return s.ReferenceName
	}
	return s.ReferenceName + " (" + s.Alternate + ")"
}

type Terminal struct {
	ID          TerminalID
	Position    Point
	Orientation int64
}

// ShapeKind classifies a shape.
type ShapeKind int

const (
	OpenShape ShapeKind = iota
	Outline
	Solid
	Hatched
)

// VertexKind distinguishes straight and arc segments ending at a vertex.
type VertexKind int

const (
	VertexPoint VertexKind = iota
	VertexCWArc
	VertexACWArc
)

type Vertex struct {
	Kind   VertexKind
	End    Point
	Center Point
}

type Shape struct {
	Kind     ShapeKind
	Vertices []Vertex
	Cutouts  [][]Vertex
}

// Closed reports whether the shape is drawn as a closed outline.
func (s Shape) Closed() bool { return s.Kind != OpenShape }

type Figure struct {
	ID       FigureID
	LineCode LineCodeID
	Layer    LayerID
	Shape    Shape
	Group    GroupID
}

// Justification of multi-line text.
type Justification int

const (
	JustifyLeft Justification = iota
	JustifyCenter
	JustifyRight
)

type Text struct {
	ID            TextID
	Text          string
	TextCode      TextCodeID
	Layer         LayerID
	Position      Point
	Orientation   int64
	Mirror        bool
	Alignment     geom.Alignment
	Justification Justification
	Group         GroupID
}

// AttrLocation places an attribute's text.
type AttrLocation struct {
	Attr          AttrID
	TextCode      TextCodeID
	Position      Point
	Orientation   int64
	Mirror        bool
	Alignment     geom.Alignment
	Justification Justification
	Invisible     bool
}

// PinType is the electrical type of a part pin.
type PinType int

const (
	PinUncommitted PinType = iota
	PinInput
	PinOutputOr
	PinOutputNotOr
	PinOutputNotNormOr
	PinPower
	PinGround
	PinTristateBidir
	PinTristateInput
	PinTristateDriver
)

type Part struct {
	ID         PartID
	Name       string
	Version    int64
	Definition PartDefinition
	Attributes Table[AttrID, string]
}

type PartDefinition struct {
	Name            string
	Gates           Table[string, *Gate]
	Pins            Table[PinID, *PartPin]
	SwapGroups      []SwapGroup
	PinEquivalences [][]PinID
}

// Gate binds a gate letter to its canonical symbol definition.
type Gate struct {
	ID     string
	Symdef SymdefID
}

type PartPin struct {
	ID         PinID
	Gate       string
	Terminal   TerminalID
	Type       PinType
	Identifier string
	Name       string
}

// Number returns the destination pin number: the identifier when named,
// otherwise the numeric pin id.
func (p *PartPin) Number() string {
	if p.Identifier != "" {
		return p.Identifier
	}
	return formatInt(int64(p.ID))
}

type SwapGroup struct {
	Name  string
	Gates []string
}

// Sheets lists the sheets in declaration order.
type Sheets struct {
	Names Table[LayerID, string]
}

// Schematic holds every placed item.
type Schematic struct {
	Groups           Table[GroupID, *Group]
	ReuseBlocks      Table[ReuseBlockID, *ReuseBlock]
	Figures          Table[FigureID, *Figure]
	Symbols          Table[SymbolID, *Symbol]
	Buses            Table[BusID, *Bus]
	Blocks           Table[BlockID, *Block]
	Nets             Table[NetID, *Net]
	Texts            Table[TextID, *Text]
	DocSymbols       Table[DocSymbolID, *DocSymbol]
	Dimensions       Table[DimensionID, *Dimension]
	VariantHierarchy []Variant
}

type Group struct {
	ID     GroupID
	Name   string
	Parent GroupID
}

type ReuseBlock struct {
	ID       ReuseBlockID
	Name     string
	FileName string
}

type Variant struct {
	ID     VariantID
	Name   string
	Parent VariantID
}

// SymbolKind is the closed set of symbol variants.
type SymbolKind int

const (
	// SymbolComponent is a gate of a part.
	SymbolComponent SymbolKind = iota
	// SymbolGlobalSignal is a power or ground symbol.
	SymbolGlobalSignal
	// SymbolSignalRef is an off-sheet signal reference.
	SymbolSignalRef
	// SymbolGraphic has neither a part nor a variant.
	SymbolGraphic
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolComponent:
		return "component"
	case SymbolGlobalSignal:
		return "global signal"
	case SymbolSignalRef:
		return "signal reference"
	default:
		return "graphic"
	}
}

// Ratio is a rational scale factor.
type Ratio struct {
	Num, Den int64
}

// Identity reports a 1:1 ratio.
func (r Ratio) Identity() bool { return r.Den == 0 || r.Num == r.Den }

type Symbol struct {
	ID           SymbolID
	Kind         SymbolKind
	Symdef       SymdefID
	Layer        LayerID
	Origin       Point
	Orientation  int64
	Mirror       bool
	Scale        Ratio
	Gate         string
	Part         PartID
	ComponentRef string
	SignalName   string
	Attributes   Table[AttrID, *AttrValue]
	Group        GroupID
	ReuseBlock   ReuseBlockID
}

// GateID returns the gate letter, defaulting to "A".
func (s *Symbol) GateID() string {
	if s.Gate == "" {
		return "A"
	}
	return s.Gate
}

// AttrValue is an attribute override, optionally with its own placement.
type AttrValue struct {
	Attr     AttrID
	Value    string
	Location *AttrLocation
}

// NetLabel places the name of a net at an element.
type NetLabel struct {
	Position    Point
	Orientation int64
	Alignment   geom.Alignment
	TextCode    TextCodeID
}

type Bus struct {
	ID       BusID
	LineCode LineCodeID
	Layer    LayerID
	Name     string
	Shape    Shape
	Label    *NetLabel
}

// BlockKind separates the two ends of a hierarchical link.
type BlockKind int

const (
	// BlockChild is a sheet symbol drawn on a parent sheet.
	BlockChild BlockKind = iota
	// BlockParent is the interface to the parent drawn inside a child sheet.
	BlockParent
)

type Block struct {
	ID         BlockID
	Kind       BlockKind
	Layer      LayerID
	AssocSheet LayerID
	Name       string
	Figures    []*Figure
	Terminals  Table[TerminalID, *BlockTerminal]
}

type BlockTerminal struct {
	ID          TerminalID
	Position    Point
	Orientation int64
	Name        string
}

// ElementKind is the closed set of net element kinds.
type ElementKind int

const (
	ElementJunction ElementKind = iota
	ElementPin
	ElementBusTerm
	ElementBlockTerm
	ElementDangler
)

func (k ElementKind) String() string {
	switch k {
	case ElementJunction:
		return "junction"
	case ElementPin:
		return "pin"
	case ElementBusTerm:
		return "bus terminal"
	case ElementBlockTerm:
		return "block terminal"
	default:
		return "dangler"
	}
}

// Element is a net member. Which fields apply depends on Kind.
type Element struct {
	ID       ElementID
	Kind     ElementKind
	Layer    LayerID
	Position Point
	Second   Point
	Symbol   SymbolID
	Bus      BusID
	Block    BlockID
	Terminal TerminalID
	Label    *NetLabel
}

type Connection struct {
	Start     ElementID
	End       ElementID
	Layer     LayerID
	RouteCode RouteCodeID
	Path      []Point
}

type Net struct {
	ID          NetID
	Name        string
	SignalNum   int64
	HasSignal   bool
	RouteCode   RouteCodeID
	Elements    Table[ElementID, *Element]
	Connections []*Connection
}

// DisplayName is the explicit name, else "$<signal number>", else "$<id>".
func (n *Net) DisplayName() string {
	switch {
	case n.Name != "":
		return n.Name
	case n.HasSignal:
		return "$" + formatInt(n.SignalNum)
	default:
		return "$" + string(n.ID)
	}
}

type DocSymbol struct {
	ID          DocSymbolID
	Symdef      SymdefID
	Layer       LayerID
	Origin      Point
	Orientation int64
	Mirror      bool
	Scale       Ratio
	Group       GroupID
}

type Dimension struct {
	ID       DimensionID
	Kind     string
	Layer    LayerID
	LineCode LineCodeID
	TextCode TextCodeID
	Start    Point
	End      Point
	Text     string
	TextPos  Point
	HasText  bool
}

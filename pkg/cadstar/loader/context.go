package loader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/archive"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/diag"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/geom"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

// importContext carries everything one import needs. Nothing in it
// outlives the import.
type importContext struct {
	arc    *archive.Archive
	design Design
	report diag.Reporter
	opts   Options
	log    *slog.Logger

	space geom.Space
	grid  float64
	ns    uuid.UUID

	// library symbols by cache key: part, override clone, scaled copy or
	// power symbol
	libs *cache.Cache
	// terminal to pin tables by part/gate
	pinTables map[string]map[archive.TerminalID]*archive.PartPin

	pages     map[archive.LayerID]*schematic.Page
	pageOrder []*schematic.Page
	sheets    map[archive.BlockID]*schematic.Sheet
	sheetPins map[archive.BlockID]map[archive.TerminalID]*schematic.SheetPin
	hierPins  map[archive.BlockID]map[archive.TerminalID]*schematic.HierLabel
	aliases   map[archive.BusID]*schematic.BusAlias

	symbols      map[archive.SymbolID]*schematic.Symbol
	powerSymbols map[archive.SymbolID]*schematic.Symbol
	signalRefs   map[archive.SymbolID]*schematic.GlobalLabel
	powerSeq     int

	// keys of diagnostics reported once per import
	reported map[string]bool
}

func newImportContext(arc *archive.Archive, design Design, report diag.Reporter, opts Options) *importContext {
	c := &importContext{
		arc:    arc,
		design: design,
		report: report,
		opts:   opts,
		log:    opts.Logger,
		space: geom.Space{
			Origin: arc.Assignments.Settings.DesignCenter(),
			UnitMM: arc.Header.Resolution.UnitMM(),
		},
		ns:           uuid.NewSHA1(uuid.NameSpaceURL, []byte("csa2kicad:"+opts.ProjectName)),
		libs:         cache.New(cache.NoExpiration, 0),
		pinTables:    make(map[string]map[archive.TerminalID]*archive.PartPin),
		pages:        make(map[archive.LayerID]*schematic.Page),
		sheets:       make(map[archive.BlockID]*schematic.Sheet),
		sheetPins:    make(map[archive.BlockID]map[archive.TerminalID]*schematic.SheetPin),
		hierPins:     make(map[archive.BlockID]map[archive.TerminalID]*schematic.HierLabel),
		aliases:      make(map[archive.BusID]*schematic.BusAlias),
		symbols:      make(map[archive.SymbolID]*schematic.Symbol),
		powerSymbols: make(map[archive.SymbolID]*schematic.Symbol),
		signalRefs:   make(map[archive.SymbolID]*schematic.GlobalLabel),
		reported:     make(map[string]bool),
	}
	c.grid = opts.GridStepMM
	if c.grid <= 0 {
		c.grid = c.space.Length(arc.Assignments.Grids.Working.StepX)
	}
	return c
}

func (c *importContext) warnf(format string, args ...any) {
	c.report.Report(fmt.Sprintf(format, args...), diag.Warning, diag.Body)
}

// warnOnce reports a warning the first time key is seen.
func (c *importContext) warnOnce(key, format string, args ...any) {
	if c.reported[key] {
		return
	}
	c.reported[key] = true
	c.warnf(format, args...)
}

func (c *importContext) errorf(format string, args ...any) {
	c.report.Report(fmt.Sprintf(format, args...), diag.Error, diag.Body)
}

func (c *importContext) infof(format string, args ...any) {
	c.report.Report(fmt.Sprintf(format, args...), diag.Info, diag.Body)
}

// uuid derives a stable identifier for a destination item from the kind
// and archive ids it was built from.
func (c *importContext) uuid(kind string, ids ...any) schematic.UUID {
	parts := make([]string, 0, len(ids)+1)
	parts = append(parts, kind)
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return schematic.UUID(uuid.NewSHA1(c.ns, []byte(strings.Join(parts, "/"))).String())
}

// pageFor returns the page an item is drawn on. Items on a sheet that is
// undeclared or outside the hierarchy are skipped with one warning per
// item and sheet; NO_SHEET items are virtual and skipped quietly.
func (c *importContext) pageFor(kind string, id any, layer archive.LayerID) *schematic.Page {
	if pg := c.pages[layer]; pg != nil {
		return pg
	}
	if layer == archive.NoSheet {
		return nil
	}
	where := "unknown sheet"
	if _, ok := c.arc.Sheets.Names.Get(layer); ok {
		where = "sheet outside the hierarchy"
	}
	c.warnOnce(fmt.Sprintf("page/%s/%v/%s", kind, id, layer),
		"%s %v is on %s %s and was skipped", kind, id, where, layer)
	return nil
}

// sheetPages returns the pages of every archive sheet in declaration order.
func (c *importContext) sheetPages() []*schematic.Page {
	var out []*schematic.Page
	for _, id := range c.arc.Sheets.Names.Keys() {
		if p := c.pages[id]; p != nil {
			out = append(out, p)
		}
	}
	return out
}

// pageXY maps a sheet coordinate to the destination page.
func (c *importContext) pageXY(p archive.Point) schematic.Position {
	return schematic.FromVec(c.space.ToDestinationPoint(p))
}

func (c *importContext) libID(name string) string {
	return c.opts.LibraryName + ":" + name
}

func (c *importContext) lineStroke(id archive.LineCodeID) schematic.Stroke {
	lc, ok := c.arc.Assignments.LineCodes.Get(id)
	if !ok {
		return schematic.Stroke{}
	}
	return schematic.Stroke{Width: c.space.Length(lc.Width), Type: lineStyle(lc.Style)}
}

func lineStyle(s string) string {
	switch s {
	case "SOLID":
		return "solid"
	case "DASH":
		return "dash"
	case "DOT":
		return "dot"
	case "DASHDOT":
		return "dash_dot"
	case "DASHDOTDOT":
		return "dash_dot_dot"
	}
	return ""
}

// textEffects builds font effects from a text code. An unknown code keeps
// the default size.
func (c *importContext) textEffects(id archive.TextCodeID) schematic.Effects {
	eff := schematic.DefaultEffects()
	tc, ok := c.arc.Assignments.TextCodes.Get(id)
	if !ok {
		return eff
	}
	h := c.space.Length(tc.Height)
	w := h
	if tc.Width > 0 {
		w = c.space.Length(tc.Width)
	}
	eff.Font.Size = schematic.Size{Width: w, Height: h}
	if tc.LineWidth > 0 {
		eff.Font.Thickness = c.space.Length(tc.LineWidth)
	}
	return eff
}

// justify converts an anchor to KiCad justification. Centre is the KiCad
// default and stays empty.
func justify(a geom.Alignment) schematic.Justify {
	var j schematic.Justify
	switch a.Horizontal() {
	case geom.HLeft:
		j.Horizontal = "left"
	case geom.HRight:
		j.Horizontal = "right"
	}
	switch a.Vertical() {
	case geom.VBottom:
		j.Vertical = "bottom"
	case geom.VTop:
		j.Vertical = "top"
	}
	return j
}

// placement is the archive transform of an instance.
func placement(origin, symdefOrigin archive.Point, rotation int64, mirror bool, scale archive.Ratio) geom.Transform {
	return geom.Transform{
		Move:     origin.Sub(symdefOrigin),
		Rotation: rotation,
		ScaleNum: scale.Num,
		ScaleDen: scale.Den,
		Center:   symdefOrigin,
		Mirror:   mirror,
	}
}

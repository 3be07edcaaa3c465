// Package loader rebuilds a parsed schematic archive as a KiCad-style
// hierarchical project.
//
// Loading runs in fixed passes: format checks, the sheet hierarchy,
// library symbols and instances, buses, nets, free graphics and finally
// page sizing. Content the destination cannot express is approximated and
// reported through a diag.Reporter; only structural failures of the
// destination abort the import.
package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/archive"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/diag"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

// ErrNoRootSheet is returned when every sheet is the child of another.
var ErrNoRootSheet = errors.New("no root sheet")

// Design is the destination the loader builds into.
type Design interface {
	CreateSheet(parent *schematic.Page, name string, pos schematic.Position, size schematic.Size) (*schematic.Page, error)
	AppendItem(page *schematic.Page, item schematic.Item) error
	CreateLibrarySymbol(name string) (*schematic.LibSymbol, error)
	SaveLibrarySymbol(sym *schematic.LibSymbol) error
	RegisterBusAlias(page *schematic.Page, name string) (*schematic.BusAlias, error)
}

// Options tune an import.
type Options struct {
	// ProjectName names a synthetic root page and seeds item UUIDs.
	ProjectName string
	// LibraryName prefixes every lib_id. It must match the destination
	// library.
	LibraryName string
	// GridStepMM overrides the archive's working grid for page sizing.
	GridStepMM float64
	// OrphanStepMM spaces the sheet symbols on a synthetic root page.
	OrphanStepMM float64
	// TranslateFields rewrites <@FIELD@> templates in free text.
	TranslateFields bool
	Logger          *slog.Logger
}

// DefaultOptions returns the options the CLI starts from.
func DefaultOptions() Options {
	return Options{
		ProjectName:     "design",
		OrphanStepMM:    25.4,
		TranslateFields: true,
	}
}

// Load imports arc into design. Diagnostics go to report; a nil report
// discards them.
func Load(arc *archive.Archive, design Design, report diag.Reporter, opts Options) error {
	if report == nil {
		report = diag.Discard
	}
	c := newImportContext(arc, design, report, opts.withDefaults())
	for _, p := range c.passes() {
		c.log.Debug("import pass", "pass", p.name)
		if err := p.run(); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}
	c.log.Debug("import finished", "pages", len(c.pageOrder), "symbols", len(c.symbols))
	return nil
}

// withDefaults fills unset options from DefaultOptions. TranslateFields
// is left as given.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ProjectName == "" {
		o.ProjectName = d.ProjectName
	}
	if o.LibraryName == "" {
		o.LibraryName = o.ProjectName
	}
	if o.OrphanStepMM <= 0 {
		o.OrphanStepMM = d.OrphanStepMM
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

type pass struct {
	name string
	run  func() error
}

// passes lists the import steps in the order they must run.
func (c *importContext) passes() []pass {
	return []pass{
		{"fidelity", c.checkFidelity},
		{"sheets", c.loadSheets},
		{"parts", c.loadParts},
		{"blocks", c.loadParentBlocks},
		{"buses", c.loadBuses},
		{"symbols", c.loadSymbols},
		{"nets", c.loadNets},
		{"graphics", c.loadGraphics},
		{"layout", c.layoutPages},
	}
}

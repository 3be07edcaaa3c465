package schematic

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrDuplicateSymbol = errors.New("library symbol already exists")
	ErrRootExists      = errors.New("project already has a root page")
	ErrNoParent        = errors.New("parent page is not part of the project")
)

// Page is one schematic file in the hierarchy.
type Page struct {
	Name     string
	FileName string
	Number   int
	Parent   *Page
	Children []*Page
	// Sheet is the sheet symbol on the parent page; nil for the root.
	Sheet     *Sheet
	Schematic *Schematic
}

// UUID returns the page's schematic UUID.
func (p *Page) UUID() UUID { return p.Schematic.UUID }

// InstancePath is the KiCad sheet path of the page: the root UUID
// followed by each sheet symbol UUID down to p.
func (p *Page) InstancePath() string {
	if p.Parent == nil {
		return "/" + string(p.Schematic.UUID)
	}
	return p.Parent.InstancePath() + "/" + string(p.Sheet.UUID)
}

// Project is a hierarchy of pages and the library their symbols use.
type Project struct {
	Name    string
	Root    *Page
	Library *Library
	// Store, when set, receives every saved library symbol.
	Store SymbolStore

	pages []*Page
	files map[string]bool
	seq   int
}

// NewProject creates an empty project with a library of the same name.
func NewProject(name, libraryName string) *Project {
	if libraryName == "" {
		libraryName = name
	}
	return &Project{
		Name:    name,
		Library: NewLibrary(libraryName),
		files:   make(map[string]bool),
	}
}

// Pages returns every page in creation order.
func (p *Project) Pages() []*Page { return p.pages }

// Walk visits pages depth first from the root.
func (p *Project) Walk(fn func(page *Page, depth int) error) error {
	if p.Root == nil {
		return nil
	}
	var walk func(*Page, int) error
	walk = func(pg *Page, depth int) error {
		if err := fn(pg, depth); err != nil {
			return err
		}
		for _, c := range pg.Children {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(p.Root, 0)
}

// NewUUID returns the next project-scoped identifier. Identifiers are
// derived from the project name so repeated runs produce the same ids.
func (p *Project) NewUUID() UUID {
	p.seq++
	return UUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", p.Name, p.seq))).String())
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

func (p *Project) fileName(name string) string {
	base := strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "_")
	if base == "" {
		base = "sheet"
	}
	file := base + ".kicad_sch"
	for i := 2; p.files[file]; i++ {
		file = fmt.Sprintf("%s_%d.kicad_sch", base, i)
	}
	p.files[file] = true
	return file
}

func (p *Project) owns(page *Page) bool {
	for _, pg := range p.pages {
		if pg == page {
			return true
		}
	}
	return false
}

// CreateSheet adds a page. With a nil parent it becomes the root page;
// otherwise a sheet symbol at pos with the given size is placed on the
// parent.
func (p *Project) CreateSheet(parent *Page, name string, pos Position, size Size) (*Page, error) {
	page := &Page{
		Name:      name,
		Number:    len(p.pages) + 1,
		Parent:    parent,
		Schematic: NewSchematic(p.NewUUID()),
	}
	page.Schematic.TitleBlock.Title = name

	if parent == nil {
		if p.Root != nil {
			return nil, ErrRootExists
		}
		page.FileName = p.fileName(p.Name)
		p.Root = page
		p.pages = append(p.pages, page)
		return page, nil
	}

	if !p.owns(parent) {
		return nil, fmt.Errorf("%w: %q", ErrNoParent, parent.Name)
	}
	page.FileName = p.fileName(name)
	page.Sheet = &Sheet{
		Position: pos,
		Size:     size,
		UUID:     p.NewUUID(),
		Name:     name,
		FileName: page.FileName,
		Page:     page,
	}
	if err := parent.Schematic.Add(page.Sheet); err != nil {
		return nil, err
	}
	parent.Children = append(parent.Children, page)
	p.pages = append(p.pages, page)
	return page, nil
}

// AppendItem places item on page.
func (p *Project) AppendItem(page *Page, item Item) error {
	if page == nil {
		return fmt.Errorf("cannot place %T: no page", item)
	}
	return page.Schematic.Add(item)
}

// CreateLibrarySymbol registers a new, empty symbol.
func (p *Project) CreateLibrarySymbol(name string) (*LibSymbol, error) {
	sym := NewLibSymbol(name)
	if err := p.Library.Add(sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// SaveLibrarySymbol registers sym if needed and hands it to the store.
func (p *Project) SaveLibrarySymbol(sym *LibSymbol) error {
	if err := p.Library.Add(sym); err != nil {
		return err
	}
	if p.Store == nil {
		return nil
	}
	if err := p.Store.Put(sym); err != nil {
		return fmt.Errorf("failed to store symbol %q: %w", sym.Name, err)
	}
	return nil
}

// RegisterBusAlias returns the page's alias called name, creating it on
// first use.
func (p *Project) RegisterBusAlias(page *Page, name string) (*BusAlias, error) {
	if page == nil {
		return nil, fmt.Errorf("cannot register bus alias %q: no page", name)
	}
	if a := page.Schematic.BusAlias(name); a != nil {
		return a, nil
	}
	a := &BusAlias{Name: name}
	page.Schematic.BusAliases = append(page.Schematic.BusAliases, a)
	return a, nil
}

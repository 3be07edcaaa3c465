package archive

import (
	"github.com/OpenTraceLab/csa2kicad/pkg/sexp"
)

// Opaque archive identifiers. Entities refer to each other only through
// these, never through pointers.
type (
	LayerID      string
	SymdefID     string
	PartID       string
	SymbolID     string
	NetID        string
	ElementID    string
	BusID        string
	BlockID      string
	FigureID     string
	TextID       string
	DocSymbolID  string
	DimensionID  string
	GroupID      string
	ReuseBlockID string
	VariantID    string
	LineCodeID   string
	TextCodeID   string
	RouteCodeID  string
	AttrID       string
	TerminalID   int64
	PinID        int64
)

// Layer sentinels. On a schematic archive every layer is a sheet.
const (
	NoSheet   LayerID = "NO_SHEET"
	AllSheets LayerID = "ALL_SHEETS"
	NoLink    LayerID = "NO_LINK"
)

// Pseudo attributes used as ATTRLOC keys on symbol definitions.
const (
	AttrDesignator AttrID = "DESIGNATOR"
	AttrPartName   AttrID = "PARTNAME"
)

// Table is an ID-keyed map that remembers declaration order.
type Table[K comparable, V any] struct {
	items map[K]V
	order []K
}

// Add inserts v under id. A repeated id is a structural error at n.
func (t *Table[K, V]) Add(n *sexp.Node, id K, v V) error {
	if t.items == nil {
		t.items = make(map[K]V)
	}
	if _, dup := t.items[id]; dup {
		return n.Errorf(sexp.ErrDuplicateID, "%v", id)
	}
	t.items[id] = v
	t.order = append(t.order, id)
	return nil
}

// Get looks up id.
func (t *Table[K, V]) Get(id K) (V, bool) {
	v, ok := t.items[id]
	return v, ok
}

// Keys returns the ids in declaration order.
func (t *Table[K, V]) Keys() []K { return t.order }

// Len returns the number of entries.
func (t *Table[K, V]) Len() int { return len(t.order) }

// Values returns the entries in declaration order.
func (t *Table[K, V]) Values() []V {
	out := make([]V, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.items[k])
	}
	return out
}

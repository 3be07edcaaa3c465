// Package sexp reads and writes S-expression documents as trees of tagged
// nodes. A node's head atom is its name, the remaining atoms are its
// attributes and nested lists are its children, each kept in document order.
package sexp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Structural error kinds. Use errors.Is to test a *NodeError against them.
var (
	ErrUnknownNode     = errors.New("unknown node")
	ErrMissingAttr     = errors.New("missing attribute")
	ErrUnexpectedAttr  = errors.New("unexpected attribute")
	ErrMissingChild    = errors.New("missing child node")
	ErrUnexpectedChild = errors.New("unexpected child node")
	ErrBadValue        = errors.New("bad value")
	ErrDuplicateID     = errors.New("duplicate id")
)

// NodeError is a structural error located at a node.
type NodeError struct {
	Node   string
	Path   string
	Line   int
	Detail string
	Err    error
}

func (e *NodeError) Error() string {
	msg := fmt.Sprintf("%s %q at %s (line %d)", e.Err, e.Node, e.Path, e.Line)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *NodeError) Unwrap() error { return e.Err }

// Node is one list in a document.
type Node struct {
	Name     string
	Attrs    []string
	Children []*Node
	Parent   *Node
	Line     int

	quoted map[int]bool
}

// Path returns the ancestor chain from the root to n, e.g.
// "CADSTARSCM > SCHEMATIC > SYMBOL".
func (n *Node) Path() string {
	var names []string
	for cur := n; cur != nil; cur = cur.Parent {
		names = append(names, cur.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " > ")
}

// Errorf builds a *NodeError for n wrapping kind.
func (n *Node) Errorf(kind error, format string, args ...any) error {
	return &NodeError{
		Node:   n.Name,
		Path:   n.Path(),
		Line:   n.Line,
		Detail: fmt.Sprintf(format, args...),
		Err:    kind,
	}
}

// Unknown reports n as an unrecognized node.
func (n *Node) Unknown() error {
	e := &NodeError{Node: n.Name, Path: n.Path(), Line: n.Line, Err: ErrUnknownNode}
	if n.Parent != nil {
		e.Detail = "not valid inside " + n.Parent.Name
	}
	return e
}

// CheckAttrs fails unless n carries between min and max attributes.
// A negative max means unbounded.
func (n *Node) CheckAttrs(min, max int) error {
	if len(n.Attrs) < min {
		return n.Errorf(ErrMissingAttr, "want at least %d, have %d", min, len(n.Attrs))
	}
	if max >= 0 && len(n.Attrs) > max {
		return n.Errorf(ErrUnexpectedAttr, "want at most %d, have %d", max, len(n.Attrs))
	}
	return nil
}

// CheckNoChildren fails if n has any children.
func (n *Node) CheckNoChildren() error {
	if len(n.Children) > 0 {
		return n.Children[0].Errorf(ErrUnexpectedChild, "%s takes no children", n.Name)
	}
	return nil
}

// Attr returns attribute i.
func (n *Node) Attr(i int) (string, error) {
	if i < 0 || i >= len(n.Attrs) {
		return "", n.Errorf(ErrMissingAttr, "attribute %d", i)
	}
	return n.Attrs[i], nil
}

// OptAttr returns attribute i, or "" when absent.
func (n *Node) OptAttr(i int) string {
	if i < 0 || i >= len(n.Attrs) {
		return ""
	}
	return n.Attrs[i]
}

// Int returns attribute i as an integer.
func (n *Node) Int(i int) (int64, error) {
	s, err := n.Attr(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, n.Errorf(ErrBadValue, "attribute %d: %q is not an integer", i, s)
	}
	return v, nil
}

// Float returns attribute i as a float.
func (n *Node) Float(i int) (float64, error) {
	s, err := n.Attr(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, n.Errorf(ErrBadValue, "attribute %d: %q is not a number", i, s)
	}
	return v, nil
}

// HasAttr reports whether any attribute equals v.
func (n *Node) HasAttr(v string) bool {
	for _, a := range n.Attrs {
		if a == v {
			return true
		}
	}
	return false
}

// Child returns the first child named name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// RequireChild returns the first child named name or a missing-child error.
func (n *Node) RequireChild(name string) (*Node, error) {
	if c := n.Child(name); c != nil {
		return c, nil
	}
	return nil, n.Errorf(ErrMissingChild, "%s", name)
}

// ChildrenNamed returns every child named name.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

package sexp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Quoted marks a builder item that is always written as a quoted string.
type Quoted string

// List builds a node. Items may be strings (bare atoms), Quoted, integer and
// float values, bools (yes/no), *Node and []*Node children. Nil nodes are
// skipped so optional children can be passed inline.
func List(name string, items ...any) *Node {
	n := &Node{Name: name}
	return n.Add(items...)
}

// Add appends items to n using the same rules as List.
func (n *Node) Add(items ...any) *Node {
	for _, it := range items {
		switch v := it.(type) {
		case nil:
		case *Node:
			if v != nil {
				v.Parent = n
				n.Children = append(n.Children, v)
			}
		case []*Node:
			for _, c := range v {
				if c != nil {
					c.Parent = n
					n.Children = append(n.Children, c)
				}
			}
		case Quoted:
			n.addAttr(string(v), true)
		case string:
			n.addAttr(v, false)
		case int:
			n.addAttr(strconv.Itoa(v), false)
		case int64:
			n.addAttr(strconv.FormatInt(v, 10), false)
		case float64:
			n.addAttr(FormatFloat(v), false)
		case bool:
			if v {
				n.addAttr("yes", false)
			} else {
				n.addAttr("no", false)
			}
		default:
			panic(fmt.Sprintf("sexp: unsupported item type %T", it))
		}
	}
	return n
}

func (n *Node) addAttr(v string, quoted bool) {
	if quoted {
		if n.quoted == nil {
			n.quoted = make(map[int]bool)
		}
		n.quoted[len(n.Attrs)] = true
	}
	n.Attrs = append(n.Attrs, v)
}

// FormatFloat writes v with at most four decimals and no trailing zeros.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return s
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '(', ')', '"', '#', '\\':
			return true
		}
	}
	return false
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)
	return `"` + r.Replace(s) + `"`
}

func (n *Node) atom(i int) string {
	s := n.Attrs[i]
	if n.quoted[i] || needsQuote(s) {
		return quote(s)
	}
	return s
}

// String renders n on a single line.
func (n *Node) String() string {
	var b strings.Builder
	n.writeFlat(&b)
	return b.String()
}

func (n *Node) writeFlat(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(n.Name)
	for i := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(n.atom(i))
	}
	for _, c := range n.Children {
		b.WriteByte(' ')
		c.writeFlat(b)
	}
	b.WriteByte(')')
}

// WriteTo writes n indented by two spaces per level. Lists whose children
// are all leaves stay on one line.
func (n *Node) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: bufio.NewWriter(w)}
	n.writeIndented(cw, 0)
	cw.WriteString("\n")
	if cw.err == nil {
		cw.err = cw.w.Flush()
	}
	return cw.n, cw.err
}

func (n *Node) isShallow() bool {
	for _, c := range n.Children {
		if len(c.Children) > 0 {
			return false
		}
	}
	return len(n.Children) <= 2
}

func (n *Node) writeIndented(w *countWriter, depth int) {
	if n.isShallow() {
		w.WriteString(n.String())
		return
	}
	w.WriteString("(" + n.Name)
	for i := range n.Attrs {
		w.WriteString(" " + n.atom(i))
	}
	pad := strings.Repeat("  ", depth+1)
	for _, c := range n.Children {
		w.WriteString("\n" + pad)
		c.writeIndented(w, depth+1)
	}
	w.WriteString("\n" + strings.Repeat("  ", depth) + ")")
}

type countWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countWriter) WriteString(s string) {
	if c.err != nil {
		return
	}
	k, err := c.w.WriteString(s)
	c.n += int64(k)
	c.err = err
}

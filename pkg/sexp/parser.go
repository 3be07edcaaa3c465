package sexp

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Parser builds Node trees from a lexer
type Parser struct {
	lexer   *Lexer
	current Token
}

// NewParser creates a new parser from an io.Reader
func NewParser(r io.Reader) *Parser {
	return &Parser{
		lexer: NewLexer(r),
	}
}

// ParseAll parses all top-level lists from the input
func (p *Parser) ParseAll() ([]*Node, error) {
	var result []*Node

	if err := p.advance(); err != nil {
		return nil, err
	}

	for p.current.Type != TokenEOF {
		if p.current.Type != TokenLeftParen {
			return nil, fmt.Errorf("line %d: expected '(' at top level, got %s %q",
				p.current.Line, p.current.Type, p.current.Value)
		}
		node, err := p.parseList(nil)
		if err != nil {
			return nil, err
		}
		result = append(result, node)

		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (p *Parser) advance() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

// parseList parses a list whose '(' is the current token. The head atom
// becomes the node name, remaining atoms its attributes and sub-lists its
// children.
func (p *Parser) parseList(parent *Node) (*Node, error) {
	line := p.current.Line

	if err := p.advance(); err != nil {
		return nil, err
	}
	switch p.current.Type {
	case TokenSymbol, TokenString:
	case TokenRightParen:
		return nil, fmt.Errorf("line %d: empty list", line)
	case TokenEOF:
		return nil, fmt.Errorf("line %d: unexpected EOF in list", line)
	default:
		return nil, fmt.Errorf("line %d: list must start with a name, got %s", line, p.current.Type)
	}

	node := &Node{Name: p.current.Value, Parent: parent, Line: line}

	for {
		if err := p.advance(); err != nil {
			return nil, err
		}

		switch p.current.Type {
		case TokenRightParen:
			return node, nil
		case TokenEOF:
			return nil, fmt.Errorf("line %d: unexpected EOF in list %q", line, node.Name)
		case TokenLeftParen:
			child, err := p.parseList(node)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		default:
			node.addAttr(p.current.Value, p.current.Type == TokenString)
		}
	}
}

// Parse parses all top-level lists from an io.Reader.
func Parse(r io.Reader) ([]*Node, error) {
	return NewParser(r).ParseAll()
}

// ParseString parses lists from a string.
func ParseString(s string) ([]*Node, error) {
	return Parse(strings.NewReader(s))
}

// ParseRoot parses a document that must hold exactly one top-level list.
func ParseRoot(r io.Reader) (*Node, error) {
	nodes, err := Parse(r)
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return nil, fmt.Errorf("empty document")
	case 1:
		return nodes[0], nil
	default:
		return nil, fmt.Errorf("expected one root list, found %d", len(nodes))
	}
}

// ParseFile opens and parses a single-root document.
func ParseFile(filename string) (*Node, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ParseRoot(f)
}

package sexp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLeftParen
	TokenRightParen
	TokenSymbol
	TokenString
)

var tokenNames = [...]string{
	TokenEOF:        "EOF",
	TokenLeftParen:  "'('",
	TokenRightParen: "')'",
	TokenSymbol:     "symbol",
	TokenString:     "string",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is one lexeme and the line it starts on.
type Token struct {
	Type  TokenType
	Value string
	Line  int
}

// Lexer splits a reader into tokens. Both CADSTAR archives and KiCad
// files go through it: strings accept doubled quotes as well as backslash
// escapes, and # starts a comment outside strings.
type Lexer struct {
	r    *bufio.Reader
	line int
}

// NewLexer creates a new lexer
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{r: bufio.NewReader(r), line: 1}
}

func (l *Lexer) next() (rune, error) {
	ch, _, err := l.r.ReadRune()
	if err == nil && ch == '\n' {
		l.line++
	}
	return ch, err
}

func (l *Lexer) back(ch rune) {
	_ = l.r.UnreadRune()
	if ch == '\n' {
		l.line--
	}
}

// skip consumes blanks and comments up to the next significant rune.
func (l *Lexer) skip() (rune, error) {
	comment := false
	for {
		ch, err := l.next()
		if err != nil {
			return 0, err
		}
		switch {
		case comment:
			comment = ch != '\n'
		case ch == '#':
			comment = true
		case !unicode.IsSpace(ch):
			return ch, nil
		}
	}
}

// NextToken reads the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	ch, err := l.skip()
	if errors.Is(err, io.EOF) {
		return Token{Type: TokenEOF, Line: l.line}, nil
	}
	if err != nil {
		return Token{}, err
	}

	switch ch {
	case '(':
		return Token{Type: TokenLeftParen, Value: "(", Line: l.line}, nil
	case ')':
		return Token{Type: TokenRightParen, Value: ")", Line: l.line}, nil
	case '"':
		return l.quoted()
	}
	l.back(ch)
	return l.symbol()
}

var escapes = map[rune]rune{'n': '\n', 't': '\t', 'r': '\r'}

// quoted reads the rest of a string whose opening quote is consumed.
func (l *Lexer) quoted() (Token, error) {
	start := l.line
	var sb strings.Builder
	for {
		ch, err := l.next()
		if errors.Is(err, io.EOF) {
			return Token{}, fmt.Errorf("line %d: unexpected EOF in string", start)
		}
		if err != nil {
			return Token{}, err
		}

		switch ch {
		case '"':
			nx, err := l.next()
			if err == nil && nx == '"' {
				sb.WriteRune('"')
				continue
			}
			if err == nil {
				l.back(nx)
			}
			return Token{Type: TokenString, Value: sb.String(), Line: start}, nil
		case '\\':
			esc, err := l.next()
			if err != nil {
				return Token{}, fmt.Errorf("line %d: unexpected EOF after backslash", l.line)
			}
			if r, ok := escapes[esc]; ok {
				esc = r
			}
			sb.WriteRune(esc)
		default:
			sb.WriteRune(ch)
		}
	}
}

func endsSymbol(ch rune) bool {
	return unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == '"'
}

// symbol reads an unquoted atom: a keyword, identifier or number.
func (l *Lexer) symbol() (Token, error) {
	var sb strings.Builder
	for {
		ch, err := l.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Token{}, err
		}
		if endsSymbol(ch) {
			l.back(ch)
			break
		}
		sb.WriteRune(ch)
	}
	if sb.Len() == 0 {
		return Token{}, fmt.Errorf("line %d: empty symbol", l.line)
	}
	return Token{Type: TokenSymbol, Value: sb.String(), Line: l.line}, nil
}

package sexp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, in string) []Token {
	t.Helper()
	l := NewLexer(strings.NewReader(in))
	var toks []Token
	for {
		tok, err := l.NextToken()
		require.NoError(t, err)
		if tok.Type == TokenEOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexerTokens(t *testing.T) {
	toks := lexAll(t, "(a \"b c\")\n# note ( \"\n(d 1.5)")
	want := []Token{
		{TokenLeftParen, "(", 1},
		{TokenSymbol, "a", 1},
		{TokenString, "b c", 1},
		{TokenRightParen, ")", 1},
		{TokenLeftParen, "(", 3},
		{TokenSymbol, "d", 3},
		{TokenSymbol, "1.5", 3},
		{TokenRightParen, ")", 3},
	}
	assert.Equal(t, want, toks)
}

func TestLexerStringEscapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"say ""hi"""`, `say "hi"`},
		{`"a\"b"`, `a"b`},
		{`"x\ny"`, "x\ny"},
		{`"tab\there"`, "tab\there"},
		{`"back\\slash"`, `back\slash`},
		{`""`, ""},
	}
	for _, tt := range tests {
		toks := lexAll(t, tt.in)
		require.Len(t, toks, 1, tt.in)
		assert.Equal(t, TokenString, toks[0].Type)
		assert.Equal(t, tt.want, toks[0].Value, tt.in)
	}
}

func TestLexerMultilineStringKeepsStartLine(t *testing.T) {
	toks := lexAll(t, "\n\"one\ntwo\" x")
	require.Len(t, toks, 2)
	assert.Equal(t, 2, toks[0].Line)
	assert.Equal(t, 3, toks[1].Line)
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer(strings.NewReader(`"open`))
	_, err := l.NextToken()
	assert.ErrorContains(t, err, "unexpected EOF in string")
}

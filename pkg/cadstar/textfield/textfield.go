// Package textfield rewrites archive text-field tokens such as
// <@DESIGN TITLE@> into destination text variables such as ${TITLE}.
package textfield

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var fieldLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Field", Pattern: `<@[^@]*@>`},
	{Name: "Text", Pattern: `[^<]+`},
	{Name: "Lt", Pattern: `<`},
})

// Template is a string split into literal runs and field tokens.
type Template struct {
	Fragments []*Fragment `parser:"@@*"`
}

// Fragment is one literal run or one field token.
type Fragment struct {
	Field *string `parser:"  @Field"`
	Text  *string `parser:"| @(Text | Lt)"`
}

var parser = participle.MustBuild[Template](participle.Lexer(fieldLexer))

// variables maps archive field names to destination variable names.
var variables = map[string]string{
	"DESIGN TITLE":  "TITLE",
	"SHEET_NAME":    "SHEETNAME",
	"SHEET_NUMBER":  "#",
	"NUM_OF_SHEETS": "##",
	"COMPANY_NAME":  "COMPANY",
	"DATE":          "CURRENT_DATE",
	"DESIGN_TITLE":  "TITLE",
	"SHEET_TITLE":   "SHEETNAME",
}

// Parse splits s into fragments.
func Parse(s string) (*Template, error) {
	t, err := parser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text fields: %w", err)
	}
	return t, nil
}

// Fields returns the field names referenced in s, in order.
func Fields(s string) ([]string, error) {
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range t.Fragments {
		if f.Field != nil {
			out = append(out, fieldName(*f.Field))
		}
	}
	return out, nil
}

// Translate replaces every field token in s with its destination variable.
// Unknown fields keep their own name as the variable name.
func Translate(s string) (string, error) {
	if !strings.Contains(s, "<@") {
		return s, nil
	}
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range t.Fragments {
		switch {
		case f.Field != nil:
			b.WriteString(Variable(fieldName(*f.Field)))
		case f.Text != nil:
			b.WriteString(*f.Text)
		}
	}
	return b.String(), nil
}

// Variable returns the ${...} reference for an archive field name.
func Variable(name string) string {
	if v, ok := variables[name]; ok {
		return "${" + v + "}"
	}
	return "${" + name + "}"
}

func fieldName(token string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(token, "<@"), "@>"))
}

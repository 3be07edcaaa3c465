package sexp

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `(ROOT "v1" # trailing comment
  (SECTION a b
    (ITEM 12 -3.5 "with space")
    (ITEM 7 0 "say ""hi""")
  )
)`

func TestParseTree(t *testing.T) {
	root, err := ParseRoot(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "ROOT", root.Name)
	assert.Equal(t, []string{"v1"}, root.Attrs)
	require.Len(t, root.Children, 1)

	sec := root.Child("SECTION")
	require.NotNil(t, sec)
	assert.Equal(t, []string{"a", "b"}, sec.Attrs)
	assert.Same(t, root, sec.Parent)

	items := sec.ChildrenNamed("ITEM")
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Line)
	assert.Equal(t, "ROOT > SECTION > ITEM", items[0].Path())

	v, err := items[0].Int(0)
	require.NoError(t, err)
	assert.EqualValues(t, 12, v)

	f, err := items[0].Float(1)
	require.NoError(t, err)
	assert.InDelta(t, -3.5, f, 1e-9)

	assert.Equal(t, "with space", items[0].OptAttr(2))
	assert.Equal(t, `say "hi"`, items[1].OptAttr(2))
}

func TestNodeErrors(t *testing.T) {
	root, err := ParseRoot(strings.NewReader(`(A (B x (C)))`))
	require.NoError(t, err)
	b := root.Child("B")
	c := b.Child("C")

	err = c.Unknown()
	assert.True(t, errors.Is(err, ErrUnknownNode))
	assert.Contains(t, err.Error(), "A > B > C")

	_, err = b.Attr(3)
	assert.True(t, errors.Is(err, ErrMissingAttr))

	_, err = b.Int(0)
	assert.True(t, errors.Is(err, ErrBadValue))

	assert.True(t, errors.Is(b.CheckAttrs(2, 2), ErrMissingAttr))
	assert.NoError(t, root.CheckAttrs(0, -1))
	assert.True(t, errors.Is(b.CheckNoChildren(), ErrUnexpectedChild))

	_, err = root.RequireChild("Z")
	var nerr *NodeError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "A", nerr.Path)
	assert.True(t, errors.Is(err, ErrMissingChild))
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"unterminated list":   `(A (B 1)`,
		"unterminated string": `(A "abc`,
		"empty list":          `(A ())`,
		"bare atom":           `A`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseString(doc)
			assert.Error(t, err)
		})
	}

	_, err := ParseRoot(strings.NewReader(`(A) (B)`))
	assert.Error(t, err)
}

func TestBuildAndWrite(t *testing.T) {
	n := List("kicad_sch",
		List("version", 20231120),
		List("generator", Quoted("csa2kicad")),
		List("wire",
			List("pts", List("xy", 1.5, 2.0), List("xy", 3.25, -0.00001)),
			List("uuid", Quoted("abc")),
		),
		List("label", "two words", List("at", 1.0, 2.0, 0)),
		(*Node)(nil),
	)

	assert.Equal(t,
		`(kicad_sch (version 20231120) (generator "csa2kicad") (wire (pts (xy 1.5 2) (xy 3.25 0)) (uuid "abc")) (label "two words" (at 1 2 0)))`,
		n.String())

	var buf bytes.Buffer
	_, err := n.WriteTo(&buf)
	require.NoError(t, err)

	back, err := ParseRoot(&buf)
	require.NoError(t, err)
	assert.Equal(t, n.String(), back.String())
}

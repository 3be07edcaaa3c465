package loader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/archive"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/diag"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

const header = `(HEADER (FORMAT SCHEMATIC 8 0) (RESOLUTION METRIC TENTH MICROMETRE))`

// parseInline parses an archive made of the test header and body.
func parseInline(t *testing.T, body string) *archive.Archive {
	t.Helper()
	arc, err := archive.ParseReader(strings.NewReader("(CADSTARSCM " + header + "\n" + body + ")"))
	require.NoError(t, err)
	return arc
}

func parseDemo(t *testing.T) *archive.Archive {
	t.Helper()
	arc, err := archive.ParseFile("../archive/testdata/demo.csa")
	require.NoError(t, err)
	return arc
}

// loadUnsized runs every pass except page sizing so coordinates stay in
// the archive's frame.
func loadUnsized(t *testing.T, arc *archive.Archive, opts Options) (*schematic.Project, *diag.Collector, error) {
	t.Helper()
	if opts.ProjectName == "" {
		opts.ProjectName = "demo"
	}
	opts = opts.withDefaults()
	proj := schematic.NewProject(opts.ProjectName, opts.LibraryName)
	col := diag.NewCollector()
	c := newImportContext(arc, proj, col, opts)
	for _, p := range c.passes() {
		if p.name == "layout" {
			break
		}
		if err := p.run(); err != nil {
			return proj, col, err
		}
	}
	return proj, col, nil
}

func pageNamed(t *testing.T, p *schematic.Project, name string) *schematic.Page {
	t.Helper()
	for _, pg := range p.Pages() {
		if pg.Name == name {
			return pg
		}
	}
	require.Failf(t, "page not found", "no page %q", name)
	return nil
}

func symbolByRef(t *testing.T, pg *schematic.Page, ref string) *schematic.Symbol {
	t.Helper()
	s := pg.Schematic.GetSymbol(ref)
	require.NotNil(t, s, "symbol %s", ref)
	return s
}

func assertAt(t *testing.T, want, got schematic.Position, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-6, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, 1e-6, msgAndArgs...)
}

func messages(ds []diag.Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Message
	}
	return out
}

func anyContains(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestLoadDemo(t *testing.T) {
	arc := parseDemo(t)
	proj := schematic.NewProject("demo", "demo")
	col := diag.NewCollector()

	require.NoError(t, Load(arc, proj, col, Options{ProjectName: "demo", TranslateFields: true}))

	require.NotNil(t, proj.Root)
	assert.Equal(t, "Top", proj.Root.Name)
	assert.Equal(t, "demo.kicad_sch", proj.Root.FileName)
	require.Len(t, proj.Pages(), 2)
	power := pageNamed(t, proj, "Power supply")
	assert.Equal(t, "Power_supply.kicad_sch", power.FileName)
	assert.Same(t, proj.Root, power.Parent)

	var names []string
	for _, s := range proj.Library.Symbols() {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"RES_10K", "RES_10K (RES (US))", "74HC00", "GND (0V)"}, names)

	root := proj.Root.Schematic
	r1 := symbolByRef(t, proj.Root, "R1")
	assert.Equal(t, "demo:RES_10K", r1.LibID)
	assert.Equal(t, "RES_10K", r1.Value())
	require.NotNil(t, r1.Property("Tolerance"))
	assert.Equal(t, "1%", r1.Property("Tolerance").Value)
	assert.True(t, r1.Property("Tolerance").Effects.Hide)

	r2 := symbolByRef(t, proj.Root, "R2")
	assert.Equal(t, "demo:RES_10K (RES (US))", r2.LibID)
	assert.Equal(t, schematic.Angle(90), r2.Angle)
	require.NotNil(t, r2.Property("Tolerance"))
	assert.Equal(t, "5%", r2.Property("Tolerance").Value)
	assert.True(t, r2.Property("Tolerance").Effects.Hide)

	u1 := symbolByRef(t, proj.Root, "U1")
	assert.Equal(t, 2, u1.Unit)
	assert.Equal(t, "demo:74HC00", u1.LibID)

	var pwr *schematic.Symbol
	for _, s := range root.Symbols {
		if s.Lib != nil && s.Lib.Power {
			pwr = s
		}
	}
	require.NotNil(t, pwr)
	assert.Equal(t, "0V", pwr.Value())
	assert.Equal(t, "#PWR01", pwr.Reference())
	assert.False(t, pwr.InBom)

	var labels []string
	for _, l := range root.Labels {
		labels = append(labels, l.Text)
	}
	assert.Contains(t, labels, "$7")
	assert.Contains(t, labels, "D0")
	assert.Contains(t, labels, BusLabel("DATA"))
	require.NotNil(t, root.BusAlias("DATA"))
	assert.Equal(t, []string{"D0"}, root.BusAlias("DATA").Members)
	assert.Len(t, root.BusEntries, 1)
	assert.Len(t, root.Buses, 1)

	var texts []string
	for _, tx := range root.Texts {
		texts = append(texts, tx.Text)
	}
	assert.Contains(t, texts, "${TITLE} sheet ${#}")
	assert.Contains(t, texts, "ACME")

	require.Len(t, root.Sheets, 1)
	sh := root.Sheets[0]
	assert.Equal(t, "Power supply", sh.Name)
	require.Len(t, sh.Pins, 1)
	assert.Equal(t, "VIN", sh.Pins[0].Name)
	assert.Equal(t, schematic.Angle(180), sh.Pins[0].Side)

	ps := power.Schematic
	require.Len(t, ps.HierLabels, 1)
	assert.Equal(t, "VIN", ps.HierLabels[0].Text)
	require.Len(t, ps.GlobalLabels, 1)
	assert.Equal(t, "CLK", ps.GlobalLabels[0].Text)
	var powerTexts []string
	for _, tx := range ps.Texts {
		powerTexts = append(powerTexts, tx.Text)
	}
	assert.Contains(t, powerTexts, "50mm")
	// the all-sheets figure lands on both pages
	assert.NotEmpty(t, root.Polylines)
	assert.NotEmpty(t, ps.Polylines)

	assert.Zero(t, col.Count(diag.Error), messages(col.Items))
	warnings := messages(col.Filter(diag.Warning))
	assert.True(t, anyContains(warnings, "group"), warnings)
	assert.True(t, anyContains(warnings, "dimension DM1"), warnings)
	assert.False(t, anyContains(warnings, "newer than"), warnings)
	assert.True(t, anyContains(messages(col.Filter(diag.Info)), "P_NAND"))
}

func TestLoadDemoPagesAreSized(t *testing.T) {
	proj := schematic.NewProject("demo", "demo")
	require.NoError(t, Load(parseDemo(t), proj, nil, Options{ProjectName: "demo"}))

	for _, pg := range proj.Pages() {
		s := pg.Schematic
		assert.Equal(t, "User", s.PaperName, pg.Name)
		assert.Equal(t, "Demo board", s.TitleBlock.Title)
		assert.Equal(t, "2021-03-14", s.TitleBlock.Date)
		assert.Equal(t, []string{pg.Name}, s.TitleBlock.Comments)

		bb := s.GetBoundingBox()
		assert.GreaterOrEqual(t, bb.Min.X, 0.0, pg.Name)
		assert.GreaterOrEqual(t, bb.Min.Y, 0.0, pg.Name)
		assert.LessOrEqual(t, bb.Max.X, s.Paper.Width, pg.Name)
		assert.LessOrEqual(t, bb.Max.Y, s.Paper.Height, pg.Name)
	}
}

func TestLoadIsDeterministic(t *testing.T) {
	render := func() []byte {
		proj := schematic.NewProject("demo", "demo")
		require.NoError(t, Load(parseDemo(t), proj, nil, Options{ProjectName: "demo"}))
		var buf bytes.Buffer
		for _, pg := range proj.Pages() {
			_, err := proj.PageNode(pg).WriteTo(&buf)
			require.NoError(t, err)
		}
		_, err := proj.LibraryNode().WriteTo(&buf)
		require.NoError(t, err)
		return buf.Bytes()
	}
	first := render()
	assert.NotEmpty(t, first)
	assert.Equal(t, string(first), string(render()))
}

func TestLoadUsesLibraryName(t *testing.T) {
	proj := schematic.NewProject("demo", "parts")
	require.NoError(t, Load(parseDemo(t), proj, nil, Options{ProjectName: "demo", LibraryName: "parts"}))
	assert.Equal(t, "parts:RES_10K", symbolByRef(t, proj.Root, "R1").LibID)
}

func TestNewerFormatVersionWarns(t *testing.T) {
	arc := parseInline(t, `(SHEETS (SHEET S1 "Main"))`)
	arc.Header.Format.Major, arc.Header.Format.Minor = 9, 1
	_, col, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	head := false
	for _, d := range col.Items {
		if d.Placement == diag.Head && d.Severity == diag.Warning {
			head = true
		}
	}
	assert.True(t, head, messages(col.Items))
}

func TestRotationsAreQuantized(t *testing.T) {
	arc := parseInline(t, `
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC
 (TEXT T1 "a" TC0 S1 (PT 0 0) (ORIENT 450))
 (TEXT T2 "b" TC0 S1 (PT 0 0) (ORIENT 460))
 (TEXT T3 "c" TC0 S1 (PT 0 0) (ORIENT 900)))`)
	proj, col, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	texts := proj.Root.Schematic.Texts
	require.Len(t, texts, 3)
	assert.Equal(t, schematic.Angle(0), texts[0].Angle)
	assert.Equal(t, schematic.Angle(90), texts[1].Angle)
	assert.Equal(t, schematic.Angle(90), texts[2].Angle)

	warnings := messages(col.Filter(diag.Warning))
	assert.Len(t, warnings, 2)
	assert.True(t, anyContains(warnings, "text T1"))
	assert.True(t, anyContains(warnings, "text T2"))
}

func TestFieldTemplatesCanBeKept(t *testing.T) {
	body := `
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC (TEXT T1 "<@DESIGN TITLE@>" TC0 S1 (PT 0 0)))`

	proj, _, err := loadUnsized(t, parseInline(t, body), Options{TranslateFields: true})
	require.NoError(t, err)
	assert.Equal(t, "${TITLE}", proj.Root.Schematic.Texts[0].Text)

	proj, _, err = loadUnsized(t, parseInline(t, body), Options{})
	require.NoError(t, err)
	assert.Equal(t, "<@DESIGN TITLE@>", proj.Root.Schematic.Texts[0].Text)
}

func TestGateUnit(t *testing.T) {
	tests := []struct {
		gate string
		want int
	}{
		{"A", 1},
		{"B", 2},
		{"Z", 26},
		{"AA", 27},
		{"AB", 28},
		{"b", 2},
		{"", 0},
		{"1", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GateUnit(tt.gate), tt.gate)
	}
}

func TestPowerSymbolName(t *testing.T) {
	assert.Equal(t, "GND (0V)", PowerSymbolName("GND", "0V"))
	assert.Equal(t, "VCC", PowerSymbolName("VCC", "VCC"))
	assert.Equal(t, "VCC", PowerSymbolName("VCC", ""))
}

func TestSymdefTextRotationWarnsOnce(t *testing.T) {
	arc := parseInline(t, `
(LIBRARY
 (SYMDEF SD_VCC "VCC" (PT 0 0)
  (TERMINAL 1 (PT 0 0))
  (TEXT T1 "pwr" TC0 (PT 0 25400) (ORIENT 450))))
(SHEETS (SHEET S1 "Main"))
(SCHEMATIC
 (SYMBOL SYM1 SD_VCC S1 (PT 0 0) (SYMVARIANT GLOBALSIGNAL "+5V"))
 (SYMBOL SYM2 SD_VCC S1 (PT 100000 0) (SYMVARIANT GLOBALSIGNAL "+3V3")))`)
	proj, col, err := loadUnsized(t, arc, Options{})
	require.NoError(t, err)

	require.Equal(t, 2, proj.Library.Len())
	var rotated []string
	for _, w := range messages(col.Filter(diag.Warning)) {
		if strings.Contains(w, "symbol definition SD_VCC") {
			rotated = append(rotated, w)
		}
	}
	assert.Len(t, rotated, 1, rotated)
}

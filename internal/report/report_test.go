package report

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/diag"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

func sampleProject(t *testing.T) *schematic.Project {
	t.Helper()
	proj := schematic.NewProject("demo", "demo")
	root, err := proj.CreateSheet(nil, "Top", schematic.Position{}, schematic.Size{})
	require.NoError(t, err)
	child, err := proj.CreateSheet(root, "Power", schematic.Position{X: 10, Y: 10}, schematic.Size{Width: 20, Height: 10})
	require.NoError(t, err)

	require.NoError(t, proj.AppendItem(root, &schematic.Wire{Points: []schematic.Position{{}, {X: 5}}}))
	require.NoError(t, proj.AppendItem(root, &schematic.Label{Text: "A"}))
	require.NoError(t, proj.AppendItem(child, &schematic.HierLabel{Text: "VIN"}))
	require.NoError(t, proj.AppendItem(child, &schematic.Text{Text: "note"}))
	_, err = proj.CreateLibrarySymbol("RES")
	require.NoError(t, err)
	return proj
}

func sampleDiagnostics() *diag.Collector {
	col := diag.NewCollector()
	col.Report("symbol S1 skipped", diag.Warning, diag.Body)
	col.Report("format newer", diag.Warning, diag.Head)
	col.Report("swap groups", diag.Info, diag.Body)
	return col
}

func TestBuild(t *testing.T) {
	r := Build(sampleProject(t), sampleDiagnostics())

	assert.Equal(t, "demo", r.Project)
	assert.Equal(t, 1, r.LibrarySymbols)
	assert.Equal(t, 2, r.Warnings)
	assert.Equal(t, 1, r.Infos)
	assert.Zero(t, r.Errors)

	require.Len(t, r.Pages, 2)
	assert.Equal(t, Page{Name: "Top", File: "demo.kicad_sch", Wires: 1, Labels: 1, Sheets: 1}, r.Pages[0])
	assert.Equal(t, Page{Name: "Power", File: "Power.kicad_sch", Depth: 1, Labels: 1, Graphics: 1}, r.Pages[1])

	require.Len(t, r.Diagnostics, 3)
	assert.Equal(t, "format newer", r.Diagnostics[0].Message)
	assert.Equal(t, "warning", r.Diagnostics[0].Severity)
	assert.Equal(t, "head", r.Diagnostics[0].Placement)
}

func TestWriteYAML(t *testing.T) {
	r := Build(sampleProject(t), sampleDiagnostics())
	var buf bytes.Buffer
	require.NoError(t, r.WriteYAML(&buf))

	var back Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, *r, back)
	assert.Contains(t, buf.String(), "library_symbols: 1")
}

func TestWriteXLSX(t *testing.T) {
	r := Build(sampleProject(t), sampleDiagnostics())
	var buf bytes.Buffer
	require.NoError(t, r.WriteXLSX(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SummarySheet, PagesSheet, DiagnosticsSheet}, f.GetSheetList())

	pages, err := f.GetRows(PagesSheet)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, []string{"Top", "demo.kicad_sch", "0", "0", "1", "1", "1", "0"}, pages[1])

	diags, err := f.GetRows(DiagnosticsSheet)
	require.NoError(t, err)
	require.Len(t, diags, 4)
	assert.Equal(t, "format newer", diags[1][2])
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, "xlsx", FormatFor("out/report.XLSX", ""))
	assert.Equal(t, "yaml", FormatFor("report.yml", ""))
	assert.Equal(t, "yaml", FormatFor("report", ""))
	assert.Equal(t, "xlsx", FormatFor("report.yaml", "XLSX"))
}

func TestSave(t *testing.T) {
	r := Build(sampleProject(t), sampleDiagnostics())
	dir := t.TempDir()

	require.NoError(t, r.Save(filepath.Join(dir, "report.yaml"), ""))
	require.NoError(t, r.Save(filepath.Join(dir, "report.xlsx"), ""))
	f, err := excelize.OpenFile(filepath.Join(dir, "report.xlsx"))
	require.NoError(t, err)
	f.Close()

	assert.Error(t, r.Save(filepath.Join(dir, "report.csv"), "csv"))
}

// Package report summarises an import: the pages written, the library
// size and every diagnostic, as YAML or as a spreadsheet.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/diag"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

// Report is the outcome of one import.
type Report struct {
	Project        string       `yaml:"project"`
	Library        string       `yaml:"library"`
	LibrarySymbols int          `yaml:"library_symbols"`
	Errors         int          `yaml:"errors"`
	Warnings       int          `yaml:"warnings"`
	Infos          int          `yaml:"infos"`
	Pages          []Page       `yaml:"pages"`
	Diagnostics    []Diagnostic `yaml:"diagnostics,omitempty"`
}

// Page counts the content of one destination page.
type Page struct {
	Name     string `yaml:"name"`
	File     string `yaml:"file"`
	Depth    int    `yaml:"depth"`
	Symbols  int    `yaml:"symbols"`
	Wires    int    `yaml:"wires"`
	Labels   int    `yaml:"labels"`
	Sheets   int    `yaml:"sheets"`
	Graphics int    `yaml:"graphics"`
}

// Diagnostic is one reported message.
type Diagnostic struct {
	Severity  string `yaml:"severity"`
	Placement string `yaml:"placement"`
	Message   string `yaml:"message"`
}

// Build summarises proj and the diagnostics collected while importing it.
// Diagnostics are listed head first, then body, then tail.
func Build(proj *schematic.Project, col *diag.Collector) *Report {
	r := &Report{
		Project:        proj.Name,
		Library:        proj.Library.Name,
		LibrarySymbols: proj.Library.Len(),
		Errors:         col.Count(diag.Error),
		Warnings:       col.Count(diag.Warning),
		Infos:          col.Count(diag.Info),
	}
	_ = proj.Walk(func(pg *schematic.Page, depth int) error {
		s := pg.Schematic
		r.Pages = append(r.Pages, Page{
			Name:     pg.Name,
			File:     pg.FileName,
			Depth:    depth,
			Symbols:  len(s.Symbols),
			Wires:    len(s.Wires) + len(s.Buses),
			Labels:   len(s.Labels) + len(s.GlobalLabels) + len(s.HierLabels),
			Sheets:   len(s.Sheets),
			Graphics: len(s.Polylines) + len(s.Arcs) + len(s.Texts),
		})
		return nil
	})
	for _, d := range col.Ordered() {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Severity:  d.Severity.String(),
			Placement: d.Placement.String(),
			Message:   d.Message,
		})
	}
	return r
}

// WriteYAML encodes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// Sheet names of the spreadsheet report.
const (
	SummarySheet     = "Summary"
	PagesSheet       = "Pages"
	DiagnosticsSheet = "Diagnostics"
)

// Workbook lays the report out on three sheets.
func (r *Report) Workbook() (*excelize.File, error) {
	f := excelize.NewFile()
	for _, name := range []string{SummarySheet, PagesSheet, DiagnosticsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	summary := [][]any{
		{"Project", r.Project},
		{"Library", r.Library},
		{"Library symbols", r.LibrarySymbols},
		{"Errors", r.Errors},
		{"Warnings", r.Warnings},
		{"Infos", r.Infos},
	}
	if err := setRows(f, SummarySheet, summary); err != nil {
		return nil, err
	}

	pages := [][]any{{"Name", "File", "Depth", "Symbols", "Wires", "Labels", "Sheets", "Graphics"}}
	for _, p := range r.Pages {
		pages = append(pages, []any{p.Name, p.File, p.Depth, p.Symbols, p.Wires, p.Labels, p.Sheets, p.Graphics})
	}
	if err := setRows(f, PagesSheet, pages); err != nil {
		return nil, err
	}

	diags := [][]any{{"Severity", "Placement", "Message"}}
	for _, d := range r.Diagnostics {
		diags = append(diags, []any{d.Severity, d.Placement, d.Message})
	}
	if err := setRows(f, DiagnosticsSheet, diags); err != nil {
		return nil, err
	}
	return f, nil
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to fill %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// WriteXLSX writes the spreadsheet report.
func (r *Report) WriteXLSX(w io.Writer) error {
	f, err := r.Workbook()
	if err != nil {
		return fmt.Errorf("failed to build report workbook: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write report workbook: %w", err)
	}
	return nil
}

// FormatFor picks a report format: format when set, else the file
// extension. Unknown extensions give yaml.
func FormatFor(path, format string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return "xlsx"
	}
	return "yaml"
}

// Save writes the report to path in the given format.
func (r *Report) Save(path, format string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	switch FormatFor(path, format) {
	case "xlsx":
		err = r.WriteXLSX(out)
	case "yaml":
		err = r.WriteYAML(out)
	default:
		err = fmt.Errorf("unknown report format %q", format)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/csa2kicad/internal/libstore"
	"github.com/OpenTraceLab/csa2kicad/internal/report"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/archive"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/diag"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/loader"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

var (
	importOutput  string
	importName    string
	importReport  string
	importNoStore bool
)

var importCmd = &cobra.Command{
	Use:   "import <archive.csa>",
	Short: "Convert an archive into a KiCad project",
	Long: `Convert a CADSTAR schematic archive into a hierarchical KiCad project.

Every sheet becomes a .kicad_sch file in the output directory and every
symbol lands in <library>.kicad_sym. With --lib-db the symbols are also
stored in a library database shared between imports.

Diagnostics about content that could not be carried over are logged;
--report writes them, with a per-page summary, as YAML or XLSX.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	f := importCmd.Flags()
	f.StringVarP(&importOutput, "output", "o", ".", "output directory")
	f.StringVar(&importName, "name", "", "project name (default: archive file name)")
	f.StringVar(&importReport, "report", "", "write an import report (.yaml or .xlsx)")
	f.String("lib-db", "", "library database to store symbols in")
	f.String("lib-name", "", "symbol library name (default: project name)")
	f.String("report-format", "", "report format: yaml or xlsx (default: from the file name)")
	f.Float64("grid", 0, "page sizing grid in mm (default: the archive's working grid)")
	f.Bool("keep-fields", false, "keep <@FIELD@> templates in text instead of translating them")

	for key, flag := range map[string]string{
		"library.path":  "lib-db",
		"library.name":  "lib-name",
		"report.format": "report-format",
		"grid_step_mm":  "grid",
	} {
		if err := settings.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// projectName derives a project name from an archive path.
func projectName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if keep, _ := cmd.Flags().GetBool("keep-fields"); keep {
		cfg.Text.TranslateFields = false
	}

	arc, err := archive.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error parsing archive: %w", err)
	}

	name := importName
	if name == "" {
		name = projectName(args[0])
	}
	proj := schematic.NewProject(name, cfg.Library.Name)

	if cfg.Library.Path != "" {
		store, err := libstore.Open(cfg.Library.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		proj.Store = store
	}

	col := diag.NewCollector()
	reporter := diag.Multi{col, diag.LogReporter{Logger: logger}}
	if err := loader.Load(arc, proj, reporter, cfg.LoaderOptions(name, logger)); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if err := schematic.WriteProject(importOutput, proj); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d pages and %d library symbols to %s\n",
		len(proj.Pages()), proj.Library.Len(), importOutput)
	fmt.Fprintf(out, "Diagnostics: %d errors, %d warnings, %d notes\n",
		col.Count(diag.Error), col.Count(diag.Warning), col.Count(diag.Info))

	if importReport != "" {
		if err := report.Build(proj, col).Save(importReport, cfg.Report.Format); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report: %s\n", importReport)
	}
	return nil
}

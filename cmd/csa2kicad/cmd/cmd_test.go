package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoArchive = "../../../pkg/cadstar/archive/testdata/demo.csa"

// resetFlags puts every flag back to its default so runs do not leak
// into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestInfo(t *testing.T) {
	out, err := run(t, "info", demoArchive)
	require.NoError(t, err)
	for _, want := range []string{
		"Format: SCHEMATIC 8.0",
		"Title: Demo board",
		"Sheets: 2",
		"SHEET2: Power",
		"BLK1 (child) on SHEET1 -> SHEET2: Power supply [1 terminals]",
		"BLK2 (parent) on SHEET2 -> SHEET1",
	} {
		assert.Contains(t, out, want)
	}
}

func TestImportWritesProject(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.yaml")

	out, err := run(t, "import", demoArchive, "-o", dir, "--report", reportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 pages")
	assert.Contains(t, out, "0 errors")

	for _, name := range []string{"demo.kicad_sch", "Power_supply.kicad_sch", "demo.kicad_sym", "report.yaml"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	out, err = run(t, "sch", "info", filepath.Join(dir, "demo.kicad_sch"))
	require.NoError(t, err)
	assert.Contains(t, out, "R: R1, R2")
	assert.Contains(t, out, "Power supply (Power_supply.kicad_sch)")

	out, err = run(t, "sch", "info", filepath.Join(dir, "demo.kicad_sch"), "R1")
	require.NoError(t, err)
	assert.Contains(t, out, "Library: demo:RES_10K")
	assert.Contains(t, out, "Tolerance: 1%")
}

func TestImportName(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "import", demoArchive, "-o", dir, "--name", "board", "--lib-name", "parts")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "board.kicad_sch"))
	assert.FileExists(t, filepath.Join(dir, "parts.kicad_sym"))
}

func TestImportFillsLibraryDatabase(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "symbols.db")

	_, err := run(t, "import", demoArchive, "-o", dir, "--lib-db", db)
	require.NoError(t, err)

	out, err := run(t, "lib", "list", db)
	require.NoError(t, err)
	assert.Contains(t, out, "4 symbols")
	assert.Contains(t, out, "RES_10K")
	assert.Contains(t, out, "GND (0V)")

	sym := filepath.Join(dir, "shared.kicad_sym")
	out, err = run(t, "lib", "export", db, sym)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 4 symbols")
	data, err := os.ReadFile(sym)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kicad_symbol_lib")
}

func TestImportErrors(t *testing.T) {
	_, err := run(t, "import", "missing.csa", "-o", t.TempDir())
	assert.Error(t, err)

	_, err = run(t, "import", demoArchive, "-o", t.TempDir(), "--report-format", "csv")
	assert.ErrorContains(t, err, "report.format")

	_, err = run(t, "import")
	assert.Error(t, err)
}

func TestProjectName(t *testing.T) {
	assert.Equal(t, "demo", projectName("/tmp/x/demo.csa"))
	assert.Equal(t, "a.b", projectName("a.b.csa"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.True(t, cfg.Text.TranslateFields)
	assert.InDelta(t, 25.4, cfg.OrphanStepMM, 1e-9)
}

func TestFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csa2kicad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grid_step_mm: 2.54
library:
  name: shared
  path: /tmp/shared.db
text:
  translate_fields: false
report:
  format: xlsx
`), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.InDelta(t, 2.54, cfg.GridStepMM, 1e-9)
	assert.InDelta(t, 25.4, cfg.OrphanStepMM, 1e-9)
	assert.Equal(t, "shared", cfg.Library.Name)
	assert.Equal(t, "/tmp/shared.db", cfg.Library.Path)
	assert.False(t, cfg.Text.TranslateFields)
	assert.Equal(t, "xlsx", cfg.Report.Format)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csa2kicad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orphan_step_mm: 50\n"), 0o644))
	t.Setenv("CSA2KICAD_ORPHAN_STEP_MM", "12.7")
	t.Setenv("CSA2KICAD_LIBRARY_NAME", "envlib")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.InDelta(t, 12.7, cfg.OrphanStepMM, 1e-9)
	assert.Equal(t, "envlib", cfg.Library.Name)
}

func TestMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		bad    string
	}{
		{"negative grid", func(c *Config) { c.GridStepMM = -1 }, "grid_step_mm"},
		{"zero orphan step", func(c *Config) { c.OrphanStepMM = 0 }, "orphan_step_mm"},
		{"qualified library name", func(c *Config) { c.Library.Name = "a:b" }, "library.name"},
		{"unknown report format", func(c *Config) { c.Report.Format = "csv" }, "report.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.bad)
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoaderOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Library.Name = "lib"
	cfg.GridStepMM = 1.27
	opts := cfg.LoaderOptions("board", nil)
	assert.Equal(t, "board", opts.ProjectName)
	assert.Equal(t, "lib", opts.LibraryName)
	assert.InDelta(t, 1.27, opts.GridStepMM, 1e-9)
	assert.True(t, opts.TranslateFields)
}

// Package config loads csa2kicad settings from defaults, an optional YAML
// file and CSA2KICAD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/loader"
)

// EnvPrefix prefixes every environment variable, e.g. CSA2KICAD_GRID_STEP_MM
// or CSA2KICAD_LIBRARY_PATH.
const EnvPrefix = "CSA2KICAD"

// Config controls an import.
type Config struct {
	// Page sizing grid; 0 uses the archive's working grid.
	GridStepMM float64 `mapstructure:"grid_step_mm"`
	// Spacing of sheet symbols on a synthetic root page.
	OrphanStepMM float64 `mapstructure:"orphan_step_mm"`

	Library LibraryConfig `mapstructure:"library"`
	Text    TextConfig    `mapstructure:"text"`
	Report  ReportConfig  `mapstructure:"report"`
}

// LibraryConfig names the destination symbol library and where it is kept.
type LibraryConfig struct {
	// Path of the bolt symbol store; empty keeps symbols in memory only.
	Path string `mapstructure:"path"`
	// Name prefixes every lib_id; empty uses the project name.
	Name string `mapstructure:"name"`
}

// TextConfig controls free text conversion.
type TextConfig struct {
	TranslateFields bool `mapstructure:"translate_fields"`
}

// ReportConfig selects the import report format.
type ReportConfig struct {
	// Format is yaml or xlsx; empty picks it from the report file name.
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	d := loader.DefaultOptions()
	return &Config{
		GridStepMM:   d.GridStepMM,
		OrphanStepMM: d.OrphanStepMM,
		Text:         TextConfig{TranslateFields: d.TranslateFields},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.GridStepMM < 0 {
		errs = append(errs, fmt.Errorf("grid_step_mm must not be negative, got %g", c.GridStepMM))
	}
	if c.OrphanStepMM <= 0 {
		errs = append(errs, fmt.Errorf("orphan_step_mm must be positive, got %g", c.OrphanStepMM))
	}
	if strings.Contains(c.Library.Name, ":") {
		errs = append(errs, fmt.Errorf("library.name %q must not contain ':'", c.Library.Name))
	}
	switch strings.ToLower(c.Report.Format) {
	case "", "yaml", "xlsx":
	default:
		errs = append(errs, fmt.Errorf("report.format must be yaml or xlsx, got %q", c.Report.Format))
	}
	return errors.Join(errs...)
}

// LoaderOptions converts the settings for a project.
func (c *Config) LoaderOptions(project string, logger *slog.Logger) loader.Options {
	return loader.Options{
		ProjectName:     project,
		LibraryName:     c.Library.Name,
		GridStepMM:      c.GridStepMM,
		OrphanStepMM:    c.OrphanStepMM,
		TranslateFields: c.Text.TranslateFields,
		Logger:          logger,
	}
}

// New returns a viper instance preloaded with the defaults and bound to
// the environment.
func New() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("grid_step_mm", d.GridStepMM)
	v.SetDefault("orphan_step_mm", d.OrphanStepMM)
	v.SetDefault("library.path", d.Library.Path)
	v.SetDefault("library.name", d.Library.Name)
	v.SetDefault("text.translate_fields", d.Text.TranslateFields)
	v.SetDefault("report.format", d.Report.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file, when given, into v and returns the validated settings.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

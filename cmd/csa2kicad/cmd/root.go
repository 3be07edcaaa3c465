package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/csa2kicad/internal/config"
)

var (
	// Global flags
	verbose    bool
	configFile string

	settings = config.New()
	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

var rootCmd = &cobra.Command{
	Use:   "csa2kicad",
	Short: "Convert CADSTAR schematic archives to KiCad projects",
	Long: `csa2kicad reads a CADSTAR schematic archive (.csa) and writes a
hierarchical KiCad project: one .kicad_sch per sheet plus a .kicad_sym
library holding every symbol the design uses.

Examples:
  csa2kicad import board.csa -o board/              # Convert an archive
  csa2kicad import board.csa --report report.xlsx   # Also write an import report
  csa2kicad info board.csa                          # Summarise an archive
  csa2kicad sch info board/board.kicad_sch          # Summarise a written sheet`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges defaults, the --config file, the environment and
// bound flags.
func loadConfig() (*config.Config, error) {
	return config.Load(settings, configFile)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml)")
}

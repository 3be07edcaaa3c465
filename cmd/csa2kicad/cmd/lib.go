package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/csa2kicad/internal/libstore"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

var libCmd = &cobra.Command{
	Use:   "lib",
	Short: "Symbol library database operations",
	Long:  `Commands for the symbol database filled by "import --lib-db".`,
}

var libListCmd = &cobra.Command{
	Use:   "list <library.db>",
	Short: "List stored symbols",
	Args:  cobra.ExactArgs(1),
	RunE:  runLibList,
}

var libExportCmd = &cobra.Command{
	Use:   "export <library.db> <output.kicad_sym>",
	Short: "Write every stored symbol to a .kicad_sym library",
	Args:  cobra.ExactArgs(2),
	RunE:  runLibExport,
}

func init() {
	rootCmd.AddCommand(libCmd)
	libCmd.AddCommand(libListCmd)
	libCmd.AddCommand(libExportCmd)
}

func runLibList(cmd *cobra.Command, args []string) error {
	store, err := libstore.Open(args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	names, err := store.Names()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d symbols\n", len(names))
	for _, n := range names {
		sym, err := store.Get(n)
		if err != nil {
			return err
		}
		pins := 0
		for _, u := range sym.Units {
			pins += len(u.Pins)
		}
		kind := ""
		if sym.Power {
			kind = " power"
		}
		fmt.Fprintf(out, "  %s (%d pins%s)\n", n, pins, kind)
	}
	return nil
}

func runLibExport(cmd *cobra.Command, args []string) error {
	store, err := libstore.Open(args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	base := filepath.Base(args[1])
	name := strings.TrimSuffix(base, filepath.Ext(base))
	lib, err := store.Library(name)
	if err != nil {
		return err
	}
	proj := schematic.NewProject(name, name)
	proj.Library = lib

	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if _, err := proj.LibraryNode().WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d symbols to %s\n", lib.Len(), args[1])
	return nil
}

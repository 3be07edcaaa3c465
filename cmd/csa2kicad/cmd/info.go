package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/archive"
)

var infoCmd = &cobra.Command{
	Use:   "info <archive.csa>",
	Short: "Show archive information",
	Long: `Display a summary of a CADSTAR schematic archive: header, sheets and
how many parts, symbols, nets and buses it holds.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	arc, err := archive.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error parsing archive: %w", err)
	}
	showArchiveSummary(cmd.OutOrStdout(), arc, args[0])
	return nil
}

func showArchiveSummary(w io.Writer, arc *archive.Archive, filename string) {
	h := arc.Header
	fmt.Fprintf(w, "Archive: %s\n", filename)
	fmt.Fprintf(w, "Format: %s %d.%d\n", h.Format.Type, h.Format.Major, h.Format.Minor)
	if h.Generator != "" {
		fmt.Fprintf(w, "Generator: %s", h.Generator)
		if h.GeneratorVersion != "" {
			fmt.Fprintf(w, " %s", h.GeneratorVersion)
		}
		fmt.Fprintln(w)
	}
	if h.JobTitle != "" {
		fmt.Fprintf(w, "Title: %s\n", h.JobTitle)
	}
	if !h.Timestamp.IsZero() {
		fmt.Fprintf(w, "Saved: %s\n", h.Timestamp.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Resolution: %s\n", h.Resolution)
	fmt.Fprintln(w)

	s := arc.Schematic
	fmt.Fprintln(w, "Statistics:")
	fmt.Fprintf(w, "  Sheets: %d\n", arc.Sheets.Names.Len())
	fmt.Fprintf(w, "  Symbol definitions: %d\n", arc.Library.Symdefs.Len())
	fmt.Fprintf(w, "  Parts: %d\n", arc.Parts.Len())
	fmt.Fprintf(w, "  Symbols: %d\n", s.Symbols.Len())
	fmt.Fprintf(w, "  Blocks: %d\n", s.Blocks.Len())
	fmt.Fprintf(w, "  Nets: %d\n", s.Nets.Len())
	fmt.Fprintf(w, "  Buses: %d\n", s.Buses.Len())
	fmt.Fprintf(w, "  Figures: %d\n", s.Figures.Len())
	fmt.Fprintf(w, "  Texts: %d\n", s.Texts.Len())
	fmt.Fprintln(w)

	if arc.Sheets.Names.Len() > 0 {
		fmt.Fprintln(w, "Sheets:")
		for _, id := range arc.Sheets.Names.Keys() {
			name, _ := arc.Sheets.Names.Get(id)
			fmt.Fprintf(w, "  %s: %s\n", id, name)
		}
	}

	if s.Blocks.Len() > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Blocks:")
		for _, blk := range s.Blocks.Values() {
			kind := "child"
			if blk.Kind == archive.BlockParent {
				kind = "parent"
			}
			fmt.Fprintf(w, "  %s (%s) on %s -> %s", blk.ID, kind, blk.Layer, blk.AssocSheet)
			if blk.Name != "" {
				fmt.Fprintf(w, ": %s", blk.Name)
			}
			fmt.Fprintf(w, " [%d terminals]\n", blk.Terminals.Len())
		}
	}
}

package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

var schCmd = &cobra.Command{
	Use:   "sch",
	Short: "KiCad schematic file operations",
	Long:  `Commands for inspecting written KiCad schematic files (.kicad_sch)`,
}

var schInfoCmd = &cobra.Command{
	Use:   "info <schematic_file> [component]",
	Short: "Show schematic information",
	Long: `Display information about a KiCad schematic file.

Without component argument: shows schematic summary
With component argument: shows details for that specific component`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSchInfo,
}

func init() {
	rootCmd.AddCommand(schCmd)
	schCmd.AddCommand(schInfoCmd)
}

func runSchInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]
	sch, err := schematic.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("error parsing schematic: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(args) >= 2 {
		return showComponentDetails(out, sch, args[1])
	}

	showSchemSummary(out, sch, filename)
	return nil
}

func showSchemSummary(w io.Writer, sch *schematic.Schematic, filename string) {
	fmt.Fprintf(w, "Schematic: %s\n", filename)
	fmt.Fprintf(w, "Version: %d\n", sch.Version)
	fmt.Fprintf(w, "Generator: %s", sch.Generator)
	if sch.GeneratorVer != "" {
		fmt.Fprintf(w, " v%s", sch.GeneratorVer)
	}
	fmt.Fprintln(w)
	if sch.PaperName != "" {
		fmt.Fprintf(w, "Paper: %s (%.2f x %.2f mm)\n", sch.PaperName, sch.Paper.Width, sch.Paper.Height)
	} else {
		fmt.Fprintf(w, "Paper: %.2f x %.2f mm\n", sch.Paper.Width, sch.Paper.Height)
	}
	fmt.Fprintln(w)

	tb := sch.TitleBlock
	if tb.Title != "" || tb.Revision != "" || len(tb.Comments) > 0 {
		fmt.Fprintln(w, "Title Block:")
		if tb.Title != "" {
			fmt.Fprintf(w, "  Title: %s\n", tb.Title)
		}
		if tb.Date != "" {
			fmt.Fprintf(w, "  Date: %s\n", tb.Date)
		}
		if tb.Revision != "" {
			fmt.Fprintf(w, "  Revision: %s\n", tb.Revision)
		}
		if tb.Company != "" {
			fmt.Fprintf(w, "  Company: %s\n", tb.Company)
		}
		for i, c := range tb.Comments {
			fmt.Fprintf(w, "  Comment %d: %s\n", i+1, c)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Statistics:")
	fmt.Fprintf(w, "  Components: %d\n", len(sch.Symbols))
	fmt.Fprintf(w, "  Library symbols: %d\n", len(sch.LibSymbols))
	fmt.Fprintf(w, "  Wires: %d\n", len(sch.Wires))
	fmt.Fprintf(w, "  Buses: %d\n", len(sch.Buses))
	fmt.Fprintf(w, "  Bus entries: %d\n", len(sch.BusEntries))
	fmt.Fprintf(w, "  Junctions: %d\n", len(sch.Junctions))
	fmt.Fprintf(w, "  Labels: %d\n", len(sch.Labels))
	fmt.Fprintf(w, "  Global labels: %d\n", len(sch.GlobalLabels))
	fmt.Fprintf(w, "  Hierarchical labels: %d\n", len(sch.HierLabels))
	fmt.Fprintf(w, "  Sheets: %d\n", len(sch.Sheets))
	fmt.Fprintf(w, "  Graphics: %d\n", len(sch.Polylines)+len(sch.Arcs)+len(sch.Texts))
	fmt.Fprintln(w)

	if len(sch.Symbols) > 0 {
		fmt.Fprintln(w, "Components:")

		// Group by reference prefix
		byPrefix := make(map[string][]string)
		for _, sym := range sch.Symbols {
			if ref := sym.Reference(); ref != "" {
				prefix := getRefPrefix(ref)
				byPrefix[prefix] = append(byPrefix[prefix], ref)
			}
		}

		var prefixes []string
		for p := range byPrefix {
			prefixes = append(prefixes, p)
		}
		sort.Strings(prefixes)

		for _, prefix := range prefixes {
			refs := byPrefix[prefix]
			sort.Strings(refs)
			fmt.Fprintf(w, "  %s: %s\n", prefix, strings.Join(refs, ", "))
		}
		fmt.Fprintln(w)
	}

	labels := sch.GetLabels()
	if len(labels) > 0 {
		fmt.Fprintln(w, "Net Labels:")
		sort.Strings(labels)
		for _, l := range labels {
			fmt.Fprintf(w, "  %s\n", l)
		}
		fmt.Fprintln(w)
	}

	if len(sch.Sheets) > 0 {
		fmt.Fprintln(w, "Hierarchical Sheets:")
		for _, sheet := range sch.Sheets {
			fmt.Fprintf(w, "  %s (%s)\n", sheet.Name, sheet.FileName)
			if len(sheet.Pins) > 0 {
				var pinNames []string
				for _, p := range sheet.Pins {
					pinNames = append(pinNames, p.Name)
				}
				fmt.Fprintf(w, "    Pins: %s\n", strings.Join(pinNames, ", "))
			}
		}
	}
}

func showComponentDetails(w io.Writer, sch *schematic.Schematic, ref string) error {
	sym := sch.GetSymbol(ref)
	if sym == nil {
		return fmt.Errorf("component '%s' not found", ref)
	}

	fmt.Fprintf(w, "Component: %s\n", ref)
	fmt.Fprintf(w, "Library: %s\n", sym.LibID)
	fmt.Fprintf(w, "Position: (%.2f, %.2f)\n", sym.Position.X, sym.Position.Y)
	if sym.Angle != 0 {
		fmt.Fprintf(w, "Rotation: %d°\n", int(sym.Angle))
	}
	if sym.Mirror != "" {
		fmt.Fprintf(w, "Mirror: %s\n", sym.Mirror)
	}
	fmt.Fprintf(w, "Unit: %d\n", sym.Unit)
	fmt.Fprintln(w)

	if len(sym.Properties) > 0 {
		fmt.Fprintln(w, "Properties:")
		for _, prop := range sym.Properties {
			fmt.Fprintf(w, "  %s: %s\n", prop.Key, prop.Value)
		}
		fmt.Fprintln(w)
	}

	libSym := findLibSymbol(sch, sym.LibID)
	if libSym == nil {
		return nil
	}
	var pins []schematic.Pin
	for _, u := range libSym.Units {
		if u.Number == 0 || u.Number == sym.Unit {
			pins = append(pins, u.Pins...)
		}
	}
	if len(pins) > 0 {
		fmt.Fprintln(w, "Pins:")
		for _, pin := range pins {
			fmt.Fprintf(w, "  %s (%s): %s %s\n", pin.Number, pin.Name, pin.Type, pin.Style)
		}
	}
	return nil
}

// findLibSymbol matches an embedded symbol by full lib_id or by its name
// within the library.
func findLibSymbol(sch *schematic.Schematic, libID string) *schematic.LibSymbol {
	_, name, _ := strings.Cut(libID, ":")
	for _, ls := range sch.LibSymbols {
		if ls.Name == libID || ls.Name == name {
			return ls
		}
	}
	return nil
}

func getRefPrefix(ref string) string {
	// Extract prefix (letters before numbers)
	for i, c := range ref {
		if c >= '0' && c <= '9' {
			return ref[:i]
		}
	}
	return ref
}

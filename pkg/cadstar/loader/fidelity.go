package loader

import (
	"fmt"

	version "github.com/mcuadros/go-version"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/diag"
)

// MaxFormatVersion is the newest archive format the loader was written
// against. Newer archives still load, with a warning.
const MaxFormatVersion = "8.0"

// checkFidelity reports archive features that have no destination
// equivalent, once per feature.
func (c *importContext) checkFidelity() error {
	h := c.arc.Header
	v := fmt.Sprintf("%d.%d", h.Format.Major, h.Format.Minor)
	if version.Compare(v, MaxFormatVersion, ">") {
		c.report.Report(fmt.Sprintf("archive format %s is newer than the supported %s; unknown content may be lost",
			v, MaxFormatVersion), diag.Warning, diag.Head)
	}

	s := c.arc.Schematic
	if n := s.Groups.Len(); n > 0 {
		c.warnf("%d groups were ignored; grouped items are loaded individually", n)
	}
	if n := len(s.VariantHierarchy); n > 0 {
		c.warnf("%d design variants were ignored; only the master variant is loaded", n)
	}
	if n := s.ReuseBlocks.Len(); n > 0 {
		c.warnf("%d reuse blocks were ignored; their items are loaded as ordinary items", n)
	}
	return nil
}

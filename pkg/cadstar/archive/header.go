package archive

import (
	"strings"
	"time"

	"github.com/OpenTraceLab/csa2kicad/pkg/sexp"
)

func parseHeader(n *sexp.Node, h *Header) error {
	if err := n.CheckAttrs(0, 0); err != nil {
		return err
	}
	seenResolution := false
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "FORMAT":
			err = parseFormat(c, &h.Format)
		case "JOBFILE":
			h.JobFile, err = single(c)
		case "JOBTITLE":
			h.JobTitle, err = single(c)
		case "GENERATOR":
			if err = c.CheckAttrs(1, 2); err == nil {
				h.Generator = c.Attrs[0]
				h.GeneratorVersion = c.OptAttr(1)
				err = c.CheckNoChildren()
			}
		case "RESOLUTION":
			seenResolution = true
			h.Resolution, err = parseResolution(c)
		case "TIMESTAMP":
			h.Timestamp, err = parseTimestamp(c)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return err
		}
	}
	if !seenResolution {
		return n.Errorf(sexp.ErrMissingChild, "RESOLUTION")
	}
	return nil
}

func parseFormat(n *sexp.Node, f *Format) error {
	if err := n.CheckAttrs(3, 3); err != nil {
		return err
	}
	if err := n.CheckNoChildren(); err != nil {
		return err
	}
	f.Type = n.Attrs[0]
	if f.Type != "SCHEMATIC" {
		return n.Errorf(sexp.ErrBadValue, "archive type %q is not a schematic", f.Type)
	}
	var err error
	if f.Major, err = n.Int(1); err != nil {
		return err
	}
	f.Minor, err = n.Int(2)
	return err
}

var resolutions = map[string]Resolution{
	"METRIC HUNDREDTH MICROMETRE": HundredthMicrometre,
	"METRIC TENTH MICROMETRE":     TenthMicrometre,
	"IMPERIAL THOU":               Thou,
}

func parseResolution(n *sexp.Node) (Resolution, error) {
	if err := n.CheckNoChildren(); err != nil {
		return 0, err
	}
	key := strings.Join(n.Attrs, " ")
	r, ok := resolutions[key]
	if !ok {
		return 0, n.Errorf(sexp.ErrBadValue, "resolution %q", key)
	}
	return r, nil
}

func parseTimestamp(n *sexp.Node) (time.Time, error) {
	if err := n.CheckAttrs(6, 6); err != nil {
		return time.Time{}, err
	}
	var v [6]int
	for i := range v {
		x, err := n.Int(i)
		if err != nil {
			return time.Time{}, err
		}
		v[i] = int(x)
	}
	return time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], v[5], 0, time.UTC), nil
}

func parseAssignments(n *sexp.Node, a *Assignments) error {
	if err := n.CheckAttrs(0, 0); err != nil {
		return err
	}
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "CODEDEFS":
			err = parseCodedefs(c, a)
		case "GRIDS":
			err = parseGrids(c, &a.Grids)
		case "SETTINGS":
			err = parseSettings(c, &a.Settings)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func parseCodedefs(n *sexp.Node, a *Assignments) error {
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "LINECODE":
			err = parseLineCode(c, a)
		case "TEXTCODE":
			err = parseTextCode(c, a)
		case "ROUTECODE":
			if err = c.CheckAttrs(3, 3); err != nil {
				break
			}
			var w int64
			if w, err = c.Int(2); err != nil {
				break
			}
			rc := &RouteCode{ID: RouteCodeID(c.Attrs[0]), Name: c.Attrs[1], Width: w}
			err = a.RouteCodes.Add(c, rc.ID, rc)
		case "ATTRNAME":
			if err = c.CheckAttrs(2, 2); err != nil {
				break
			}
			an := &AttrName{ID: AttrID(c.Attrs[0]), Name: c.Attrs[1]}
			err = a.AttrNames.Add(c, an.ID, an)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// parseLineCode reads (LINECODE id name (WIDTH w) [(STYLE s)]).
func parseLineCode(n *sexp.Node, a *Assignments) error {
	if err := n.CheckAttrs(2, 2); err != nil {
		return err
	}
	lc := &LineCode{ID: LineCodeID(n.Attrs[0]), Name: n.Attrs[1], Style: "SOLID"}
	seenWidth := false
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "WIDTH":
			seenWidth = true
			lc.Width, err = singleInt(c)
		case "STYLE":
			lc.Style, err = single(c)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return err
		}
	}
	if !seenWidth {
		return n.Errorf(sexp.ErrMissingChild, "WIDTH")
	}
	return a.LineCodes.Add(n, lc.ID, lc)
}

// parseTextCode reads (TEXTCODE id name linewidth height [width]).
func parseTextCode(n *sexp.Node, a *Assignments) error {
	if err := n.CheckAttrs(4, 5); err != nil {
		return err
	}
	if err := n.CheckNoChildren(); err != nil {
		return err
	}
	tc := &TextCode{ID: TextCodeID(n.Attrs[0]), Name: n.Attrs[1]}
	var err error
	if tc.LineWidth, err = n.Int(2); err != nil {
		return err
	}
	if tc.Height, err = n.Int(3); err != nil {
		return err
	}
	if len(n.Attrs) == 5 {
		if tc.Width, err = n.Int(4); err != nil {
			return err
		}
	}
	return a.TextCodes.Add(n, tc.ID, tc)
}

func parseGrids(n *sexp.Node, g *Grids) error {
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "WORKINGGRID":
			g.Working, err = parseGrid(c)
		case "SCREENGRID":
			g.Screen, err = parseGrid(c)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// parseGrid reads (WORKINGGRID (STEPGRID name x y)).
func parseGrid(n *sexp.Node) (Grid, error) {
	if err := n.CheckAttrs(0, 0); err != nil {
		return Grid{}, err
	}
	if len(n.Children) != 1 {
		return Grid{}, n.Errorf(sexp.ErrMissingChild, "STEPGRID")
	}
	s := n.Children[0]
	if s.Name != "STEPGRID" {
		return Grid{}, s.Unknown()
	}
	if err := s.CheckAttrs(3, 3); err != nil {
		return Grid{}, err
	}
	x, err := s.Int(1)
	if err != nil {
		return Grid{}, err
	}
	y, err := s.Int(2)
	if err != nil {
		return Grid{}, err
	}
	return Grid{Name: s.Attrs[0], StepX: x, StepY: y}, nil
}

func parseSettings(n *sexp.Node, s *Settings) error {
	for _, c := range n.Children {
		var err error
		switch c.Name {
		case "UNITS":
			s.Units, err = single(c)
		case "DESIGNAREA":
			if len(c.Children) != 2 {
				err = c.Errorf(sexp.ErrMissingChild, "design area needs two points")
				break
			}
			if s.DesignArea[0], err = parsePoint(c.Children[0]); err != nil {
				break
			}
			s.DesignArea[1], err = parsePoint(c.Children[1])
		case "ALLOWBARTEXT":
			s.AllowBarText = true
			err = flag(c)
		default:
			err = c.Unknown()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

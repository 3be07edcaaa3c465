package loader

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/archive"
	"github.com/OpenTraceLab/csa2kicad/pkg/cadstar/geom"
	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

// outline is one drawable piece of an archive shape: a straight run or a
// single arc.
type outline struct {
	points []r2.Vec
	arc    bool
	start  r2.Vec
	mid    r2.Vec
	end    r2.Vec
	fill   string
}

// traceShape splits a shape and its cutouts into straight runs and arcs.
// conv maps archive points into the target space; arc midpoints are found
// in archive space first so any mirror in conv is respected.
func traceShape(s archive.Shape, conv func(archive.Point) r2.Vec) []outline {
	fill := "none"
	switch s.Kind {
	case archive.Solid:
		fill = "outline"
	case archive.Hatched:
		fill = "background"
	}
	pieces := traceLoop(s.Vertices, s.Closed(), conv)
	if len(pieces) == 1 && !pieces[0].arc && s.Closed() {
		pieces[0].fill = fill
	}
	for _, cut := range s.Cutouts {
		pieces = append(pieces, traceLoop(cut, true, conv)...)
	}
	return pieces
}

func traceLoop(vs []archive.Vertex, closed bool, conv func(archive.Point) r2.Vec) []outline {
	if len(vs) == 0 {
		return nil
	}
	var out []outline
	prev := vs[0].End
	run := []r2.Vec{conv(prev)}
	flush := func() {
		if len(run) >= 2 {
			out = append(out, outline{points: run})
		}
	}
	for _, v := range vs[1:] {
		if v.Kind == archive.VertexPoint {
			run = append(run, conv(v.End))
		} else {
			flush()
			mid := geom.ArcMid(prev.Vec(), v.End.Vec(), v.Center.Vec(), v.Kind == archive.VertexCWArc)
			out = append(out, outline{
				arc:   true,
				start: conv(prev),
				mid:   conv(geom.RoundPoint(mid)),
				end:   conv(v.End),
			})
			run = []r2.Vec{conv(v.End)}
		}
		prev = v.End
	}
	if closed && prev != vs[0].End {
		run = append(run, conv(vs[0].End))
	}
	flush()
	return out
}

func positions(vs []r2.Vec) []schematic.Position {
	out := make([]schematic.Position, len(vs))
	for i, v := range vs {
		out[i] = schematic.FromVec(v)
	}
	return out
}

func (o outline) symGraphic(stroke schematic.Stroke) schematic.SymGraphic {
	if o.arc {
		return schematic.SymGraphic{
			Type:   "arc",
			Start:  schematic.FromVec(o.start),
			Mid:    schematic.FromVec(o.mid),
			End:    schematic.FromVec(o.end),
			Stroke: stroke,
		}
	}
	return schematic.SymGraphic{
		Type:   "polyline",
		Points: positions(o.points),
		Stroke: stroke,
		Fill:   schematic.Fill{Type: o.fill},
	}
}

func (o outline) item(stroke schematic.Stroke, id schematic.UUID) schematic.Item {
	if o.arc {
		return &schematic.Arc{
			Start:  schematic.FromVec(o.start),
			Mid:    schematic.FromVec(o.mid),
			End:    schematic.FromVec(o.end),
			Stroke: stroke,
			UUID:   id,
		}
	}
	return &schematic.Polyline{
		Points: positions(o.points),
		Stroke: stroke,
		Fill:   schematic.Fill{Type: o.fill},
		UUID:   id,
	}
}

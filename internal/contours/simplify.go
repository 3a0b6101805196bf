package contours

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"page-vectorizer/internal/geometry"
)

// Simplify reduces vertices with Douglas-Peucker at Tolerance pixels. A zero
// tolerance only removes duplicate and collinear vertices. Polygons whose
// outer ring collapses are dropped, as are collapsed holes and polylines.
type Simplify struct {
	Tolerance float64
}

func (s Simplify) Name() string {
	return fmt.Sprintf("simplify(%g)", s.Tolerance)
}

func (s Simplify) Apply(in Payload) (Payload, error) {
	if s.Tolerance < 0 {
		return Payload{}, fmt.Errorf("negative simplification tolerance %g", s.Tolerance)
	}

	dp := simplify.DouglasPeucker(s.Tolerance)
	out := make([]geometry.Shape, 0, len(in.Shapes))

	for _, shape := range in.Shapes {
		switch v := shape.(type) {
		case geometry.Polygon:
			if p, ok := simplifyPolygon(dp, v); ok {
				out = append(out, p)
			}
		case geometry.Polyline:
			if l, ok := simplifyPolyline(dp, v); ok {
				out = append(out, l)
			}
		default:
			return Payload{}, fmt.Errorf("cannot simplify %T", shape)
		}
	}

	return Payload{Mask: in.Mask, Shapes: out}, nil
}

func simplifyPolygon(dp *simplify.DouglasPeuckerSimplifier, p geometry.Polygon) (geometry.Polygon, bool) {
	if len(p.Polygon) == 0 {
		return geometry.Polygon{}, false
	}

	rings := make([]orb.Ring, 0, len(p.Polygon))
	for i, r := range p.Polygon {
		simplified, ok := dp.Simplify(r.Clone()).(orb.Ring)
		if !ok || len(simplified) < 4 {
			if i == 0 {
				return geometry.Polygon{}, false
			}
			continue
		}
		rings = append(rings, simplified)
	}

	return geometry.NewPolygon(rings[0], rings[1:]...), true
}

func simplifyPolyline(dp *simplify.DouglasPeuckerSimplifier, l geometry.Polyline) (geometry.Polyline, bool) {
	simplified, ok := dp.Simplify(l.Line.Clone()).(orb.LineString)
	if !ok || len(simplified) < 2 {
		return geometry.Polyline{}, false
	}
	return geometry.Polyline{Line: simplified, Width: l.Width}, true
}

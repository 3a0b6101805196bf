package contours

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"page-vectorizer/internal/geometry"
	"page-vectorizer/internal/labels"
)

// EstimatePolyline fits a centerline along Orientation to each separator
// outline. The outline is cut into unit-wide slabs perpendicular to the
// orientation; each slab contributes its midpoint to the centerline and its
// perpendicular extent to the width estimate. Width is the median extent plus
// one pixel, since traced outlines run through boundary pixel centers.
type EstimatePolyline struct {
	Orientation labels.Orientation
}

func (e EstimatePolyline) Name() string {
	return fmt.Sprintf("estimate_polyline(%s)", e.Orientation)
}

func (e EstimatePolyline) Apply(in Payload) (Payload, error) {
	if e.Orientation.IsZero() {
		return Payload{}, fmt.Errorf("polyline estimation needs an orientation")
	}

	out := make([]geometry.Shape, 0, len(in.Shapes))
	for _, shape := range in.Shapes {
		polygon, ok := shape.(geometry.Polygon)
		if !ok {
			return Payload{}, fmt.Errorf("polyline estimation expects polygons, got %T", shape)
		}
		if line, ok := e.estimate(polygon); ok {
			out = append(out, line)
		}
	}

	return Payload{Mask: in.Mask, Shapes: out}, nil
}

// frame maps raster coordinates to (along, across) the orientation and back.
type frame struct {
	u, v orb.Point
}

func newFrame(o labels.Orientation) frame {
	return frame{
		u: orb.Point{o.DX, o.DY},
		v: orb.Point{-o.DY, o.DX},
	}
}

func (f frame) toLocal(p orb.Point) orb.Point {
	return orb.Point{
		p[0]*f.u[0] + p[1]*f.u[1],
		p[0]*f.v[0] + p[1]*f.v[1],
	}
}

func (f frame) toRaster(p orb.Point) orb.Point {
	return orb.Point{
		p[0]*f.u[0] + p[1]*f.v[0],
		p[0]*f.u[1] + p[1]*f.v[1],
	}
}

func (e EstimatePolyline) estimate(p geometry.Polygon) (geometry.Polyline, bool) {
	f := newFrame(e.Orientation)

	// Holes do not change the outer extent of a slab.
	outer := p.Outer()
	if len(outer) == 0 {
		return geometry.Polyline{}, false
	}
	local := make(orb.LineString, len(outer))
	for i, pt := range outer {
		local[i] = f.toLocal(pt)
	}
	if !orb.Ring(local).Closed() {
		local = append(local, local[0])
	}

	bound := local.Bound()
	var centers orb.LineString
	var extents []float64

	for s := bound.Min[0]; s <= bound.Max[0]; s++ {
		slab := orb.Bound{
			Min: orb.Point{s - 0.5, bound.Min[1] - 1},
			Max: orb.Point{s + 0.5, bound.Max[1] + 1},
		}
		pieces := clip.LineString(slab, local.Clone())
		if len(pieces) == 0 {
			continue
		}

		b := pieces.Bound()
		centers = append(centers, roundPoint(f.toRaster(orb.Point{s, (b.Min[1] + b.Max[1]) / 2})))
		extents = append(extents, b.Max[1]-b.Min[1])
	}

	if len(centers) < 2 {
		return geometry.Polyline{}, false
	}

	return geometry.Polyline{Line: centers, Width: median(extents) + 1}, true
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// roundPoint drops rotation noise below 1e-6 px and normalizes -0 to 0.
func roundPoint(p orb.Point) orb.Point {
	const scale = 1e6
	return orb.Point{
		math.Round(p[0]*scale)/scale + 0,
		math.Round(p[1]*scale)/scale + 0,
	}
}

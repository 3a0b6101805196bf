package contours

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"page-vectorizer/internal/geometry"
)

// Decompose splits raw outlines into simple polygons. Rings are cut wherever
// they revisit a vertex; outer pieces are wound counter-clockwise and hole
// pieces clockwise. Each hole piece is attached to the outer piece that
// contains it. Pieces with no area are dropped.
type Decompose struct{}

func (Decompose) Name() string {
	return "decompose"
}

func (Decompose) Apply(in Payload) (Payload, error) {
	out := make([]geometry.Shape, 0, len(in.Shapes))

	for _, shape := range in.Shapes {
		polygon, ok := shape.(geometry.Polygon)
		if !ok {
			return Payload{}, fmt.Errorf("decompose expects polygons, got %T", shape)
		}
		for _, piece := range decomposePolygon(polygon) {
			out = append(out, piece)
		}
	}

	return Payload{Mask: in.Mask, Shapes: out}, nil
}

func decomposePolygon(p geometry.Polygon) []geometry.Polygon {
	outers := splitRing(p.Outer(), orb.CCW)
	if len(outers) == 0 {
		return nil
	}

	var holes []orb.Ring
	for _, h := range p.Holes() {
		holes = append(holes, splitRing(h, orb.CW)...)
	}

	assigned := make([][]orb.Ring, len(outers))
	for _, hole := range holes {
		inside := interiorPoint(hole)
		for i, outer := range outers {
			if planar.RingContains(outer, inside) {
				assigned[i] = append(assigned[i], hole)
				break
			}
		}
	}

	out := make([]geometry.Polygon, len(outers))
	for i, outer := range outers {
		out[i] = geometry.NewPolygon(outer, assigned[i]...)
	}
	return out
}

// interiorPoint returns a point strictly inside ring. The centroid of a
// non-convex ring may fall outside of it, so the point is taken just off the
// midpoint of an edge instead.
func interiorPoint(ring orb.Ring) orb.Point {
	const offset = 1e-3

	for i := 0; i+1 < len(ring); i++ {
		a, b := ring[i], ring[i+1]
		dx, dy := b[0]-a[0], b[1]-a[1]
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		mid := orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
		nx, ny := dy/length*offset, -dx/length*offset
		for _, p := range []orb.Point{{mid[0] + nx, mid[1] + ny}, {mid[0] - nx, mid[1] - ny}} {
			if planar.RingContains(ring, p) {
				return p
			}
		}
	}

	center, _ := planar.CentroidArea(ring)
	return center
}

// splitRing cuts ring into loops at repeated vertices and returns the loops
// that enclose area, closed and wound in the requested orientation.
func splitRing(ring orb.Ring, winding orb.Orientation) []orb.Ring {
	points := ring
	if len(points) > 1 && points.Closed() {
		points = points[:len(points)-1]
	}

	var pieces []orb.Ring
	stack := make([]orb.Point, 0, len(points))
	position := make(map[orb.Point]int, len(points))

	for _, pt := range points {
		if i, seen := position[pt]; seen {
			pieces = appendLoop(pieces, stack[i:], winding)
			for _, q := range stack[i+1:] {
				delete(position, q)
			}
			stack = stack[:i+1]
			continue
		}
		position[pt] = len(stack)
		stack = append(stack, pt)
	}

	return appendLoop(pieces, stack, winding)
}

func appendLoop(pieces []orb.Ring, loop []orb.Point, winding orb.Orientation) []orb.Ring {
	if len(loop) < 3 {
		return pieces
	}

	ring := make(orb.Ring, len(loop), len(loop)+1)
	copy(ring, loop)
	ring = append(ring, loop[0])

	if planar.Area(ring) == 0 {
		return pieces
	}
	if ring.Orientation() != winding {
		ring.Reverse()
	}
	return append(pieces, ring)
}

// Package geometry holds the vector results of contour extraction: region
// polygons and separator polylines. Both are plain values with no reference
// to the raster they were traced from.
package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
)

// Shape is a geometry flowing through a contour pipeline.
type Shape interface {
	// WKT returns the well-known-text encoding.
	WKT() string
	// NumPoints counts vertices, including ring closing points.
	NumPoints() int
	Bound() orb.Bound
}

// Polygon is an outer ring with optional holes. Rings are closed.
type Polygon struct {
	orb.Polygon
}

func NewPolygon(outer orb.Ring, holes ...orb.Ring) Polygon {
	p := make(orb.Polygon, 0, 1+len(holes))
	p = append(p, closeRing(outer))
	for _, h := range holes {
		p = append(p, closeRing(h))
	}
	return Polygon{Polygon: p}
}

func (p Polygon) Area() float64 {
	if len(p.Polygon) == 0 {
		return 0
	}
	return planar.Area(p.Polygon)
}

// Perimeter is the summed length of all rings.
func (p Polygon) Perimeter() float64 {
	var total float64
	for _, r := range p.Polygon {
		total += planar.Length(r)
	}
	return total
}

func (p Polygon) Outer() orb.Ring {
	if len(p.Polygon) == 0 {
		return nil
	}
	return p.Polygon[0]
}

func (p Polygon) Holes() []orb.Ring {
	if len(p.Polygon) < 2 {
		return nil
	}
	return p.Polygon[1:]
}

func (p Polygon) WKT() string {
	return wkt.MarshalString(p.Polygon)
}

func (p Polygon) NumPoints() int {
	n := 0
	for _, r := range p.Polygon {
		n += len(r)
	}
	return n
}

func (p Polygon) Bound() orb.Bound {
	return p.Polygon.Bound()
}

// Polyline is a separator centerline with its estimated stroke width.
type Polyline struct {
	Line  orb.LineString
	Width float64
}

func (l Polyline) WKT() string {
	return wkt.MarshalString(l.Line)
}

func (l Polyline) NumPoints() int {
	return len(l.Line)
}

func (l Polyline) Length() float64 {
	return planar.Length(l.Line)
}

func (l Polyline) Bound() orb.Bound {
	return l.Line.Bound()
}

func closeRing(r orb.Ring) orb.Ring {
	if len(r) == 0 || r.Closed() {
		return r
	}
	closed := make(orb.Ring, len(r), len(r)+1)
	copy(closed, r)
	return append(closed, r[0])
}

package contours

import (
	"image"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
	"page-vectorizer/internal/geometry"
)

// DefaultFrameElongation is how many band thicknesses long a margin strip
// must be before it counts as a frame.
const DefaultFrameElongation = 4.0

// HeuristicFrameDetector removes polygons that are scan artifacts along the
// page border: dark margins, binder shadows and similar strips.
type HeuristicFrameDetector struct {
	size       image.Point
	margin     float64
	elongation float64
}

// NewHeuristicFrameDetector uses margin as the relative width of the border
// band on each side of a page of the given size.
func NewHeuristicFrameDetector(size image.Point, margin float64) *HeuristicFrameDetector {
	return &HeuristicFrameDetector{
		size:       size,
		margin:     margin,
		elongation: DefaultFrameElongation,
	}
}

func (d *HeuristicFrameDetector) band() (x, y float64) {
	return d.margin * float64(d.size.X), d.margin * float64(d.size.Y)
}

// IsFrame reports whether p lies mostly inside the margin band and is a long
// thin strip relative to the band thickness.
func (d *HeuristicFrameDetector) IsFrame(p geometry.Polygon) bool {
	bandX, bandY := d.band()
	if bandX <= 0 && bandY <= 0 {
		return false
	}

	area := p.Area()
	perimeter := p.Perimeter()
	if area <= 0 || perimeter <= 0 {
		return false
	}

	inner := orb.Bound{
		Min: orb.Point{bandX, bandY},
		Max: orb.Point{float64(d.size.X) - bandX, float64(d.size.Y) - bandY},
	}
	if insideArea(inner, p) > area/2 {
		return false
	}

	band := math.Max(bandX, bandY)
	thickness := 2 * area / perimeter
	if thickness > band {
		return false
	}

	length := perimeter/2 - thickness
	return length >= d.elongation*band
}

// MultiClassFilter drops frame-like polygons from every class. Other shapes
// are kept in order.
func (d *HeuristicFrameDetector) MultiClassFilter(m Mapping) (Mapping, error) {
	out := make(Mapping, len(m))

	for name, shapes := range m {
		kept := make([]geometry.Shape, 0, len(shapes))
		for _, shape := range shapes {
			if polygon, ok := shape.(geometry.Polygon); ok && d.IsFrame(polygon) {
				continue
			}
			kept = append(kept, shape)
		}
		out[name] = kept
	}

	return out, nil
}

func insideArea(inner orb.Bound, p geometry.Polygon) float64 {
	if inner.Min[0] >= inner.Max[0] || inner.Min[1] >= inner.Max[1] {
		return 0
	}

	clipped := clip.Polygon(inner, p.Polygon.Clone())
	if len(clipped) == 0 || len(clipped[0]) < 4 {
		return 0
	}
	return planar.Area(clipped)
}

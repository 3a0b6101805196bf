package contours

import (
	"fmt"

	"page-vectorizer/internal/geometry"
)

// FilterByArea keeps polygons whose area is at least MinArea, in order.
type FilterByArea struct {
	MinArea float64
}

func (f FilterByArea) Name() string {
	return "filter_by_area"
}

func (f FilterByArea) Apply(in Payload) (Payload, error) {
	out := make([]geometry.Shape, 0, len(in.Shapes))

	for _, shape := range in.Shapes {
		polygon, ok := shape.(geometry.Polygon)
		if !ok {
			return Payload{}, fmt.Errorf("area filter expects polygons, got %T", shape)
		}
		if polygon.Area() >= f.MinArea {
			out = append(out, polygon)
		}
	}

	return Payload{Mask: in.Mask, Shapes: out}, nil
}

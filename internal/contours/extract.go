package contours

import (
	"fmt"
	"image"

	"github.com/paulmach/orb"
	"gocv.io/x/gocv"
	"page-vectorizer/internal/geometry"
	"page-vectorizer/internal/opencv/safe"
	"page-vectorizer/internal/processing/filters"
)

// Contours traces the boundaries of the foreground components of the class
// mask. When Ink is set the mask is first intersected with it; Opening and
// Dilator, if set, are then applied in that order.
//
// Each traced component becomes one raw geometry.Polygon whose holes are the
// component's inner boundaries. Raw outlines may touch themselves; run
// Decompose to obtain simple polygons.
type Contours struct {
	Ink     *safe.Mat
	Opening filters.Filter
	Dilator filters.Filter
}

func (c Contours) Name() string {
	return "contours"
}

func (c Contours) Apply(in Payload) (Payload, error) {
	if err := safe.ValidateBinary(in.Mask, "contours"); err != nil {
		return Payload{}, err
	}

	work, err := in.Mask.Clone()
	if err != nil {
		return Payload{}, err
	}
	defer func() { work.Close() }()

	if c.Ink != nil {
		if err := safe.ValidateSameSize(in.Mask, c.Ink, "ink intersection"); err != nil {
			return Payload{}, err
		}
		workMat := work.GetMat()
		gocv.BitwiseAnd(workMat, c.Ink.GetMat(), &workMat)
	}

	for _, f := range []filters.Filter{c.Opening, c.Dilator} {
		if f == nil {
			continue
		}
		next, err := f(work)
		if err != nil {
			return Payload{}, err
		}
		work.Close()
		work = next
	}

	shapes, err := trace(work)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Mask: in.Mask, Shapes: shapes}, nil
}

func trace(mask *safe.Mat) ([]geometry.Shape, error) {
	if mask.CountNonZero() == 0 {
		return nil, nil
	}

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	found := gocv.FindContoursWithParams(mask.GetMat(), &hierarchy, gocv.RetrievalCComp, gocv.ChainApproxSimple)
	defer found.Close()

	outlines := found.ToPoints()
	if hierarchy.Cols() != len(outlines) {
		return nil, fmt.Errorf("contour hierarchy has %d entries for %d outlines", hierarchy.Cols(), len(outlines))
	}

	// Two-level hierarchy: entry [next, previous, first child, parent].
	holes := make(map[int][]orb.Ring)
	var outers []int
	for i := range outlines {
		parent := int(hierarchy.GetVeciAt(0, i)[3])
		if parent < 0 {
			outers = append(outers, i)
		} else {
			holes[parent] = append(holes[parent], toRing(outlines[i]))
		}
	}

	shapes := make([]geometry.Shape, 0, len(outers))
	for _, i := range outers {
		shapes = append(shapes, geometry.NewPolygon(toRing(outlines[i]), holes[i]...))
	}
	return shapes, nil
}

func toRing(points []image.Point) orb.Ring {
	ring := make(orb.Ring, len(points))
	for i, p := range points {
		ring[i] = orb.Point{float64(p.X), float64(p.Y)}
	}
	return ring
}

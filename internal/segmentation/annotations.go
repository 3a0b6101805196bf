package segmentation

import (
	"fmt"
	"image"
	"math"

	"page-vectorizer/internal/contours"
	"page-vectorizer/internal/opencv/safe"
)

// Annotations binds a page size to its segmentation.
type Annotations struct {
	segmentation *Segmentation
	size         image.Point
}

func NewAnnotations(size image.Point, s *Segmentation) *Annotations {
	return &Annotations{segmentation: s, size: size}
}

func (a *Annotations) Segmentation() *Segmentation {
	return a.segmentation
}

// Size is the page size as (width, height) in label raster pixels.
func (a *Annotations) Size() image.Point {
	return a.size
}

// Magnitude is the characteristic page length sqrt(width*height). Relative
// size options are scaled by it.
func (a *Annotations) Magnitude() float64 {
	return math.Sqrt(float64(a.size.X) * float64(a.size.Y))
}

// CreateMultiClassContours runs constructor over a label raster of this page.
func (a *Annotations) CreateMultiClassContours(raster *safe.Mat, constructor contours.Constructor) (contours.Mapping, error) {
	if err := safe.ValidateMatForOperation(raster, "create multi-class contours"); err != nil {
		return nil, err
	}
	if got := image.Pt(raster.Cols(), raster.Rows()); got != a.size {
		return nil, fmt.Errorf("%w: label raster is %v, page is %v", safe.ErrSizeMismatch, got, a.size)
	}
	return constructor(raster)
}

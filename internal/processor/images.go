package processor

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"gocv.io/x/gocv"
	"page-vectorizer/internal/geometry"
	"page-vectorizer/internal/opencv/safe"
)

// loadInk reads a binarized page; ink is where the pixel value is 0. The
// result is a 0/255 mask.
func loadInk(path string) (*safe.Mat, error) {
	gray := gocv.IMRead(path, gocv.IMReadGrayScale)
	if gray.Empty() {
		gray.Close()
		return nil, fmt.Errorf("failed to read binarized image %s", path)
	}
	defer gray.Close()

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(gray, gocv.NewScalar(0, 0, 0, 0), gocv.NewScalar(0, 0, 0, 0), &mask)

	return safe.Own(mask, "ink")
}

func loadPage(path string) (*safe.Mat, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to read page image %s", path)
	}
	return safe.Own(mat, "page")
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 0}

// cropRegion encodes the part of page covered by polygon as PNG. Pixels in
// the bounding box but outside the polygon are white. scale maps label raster
// coordinates to page coordinates.
func cropRegion(page *safe.Mat, polygon geometry.Polygon, scale orb.Point) ([]byte, error) {
	if err := safe.ValidateMatForOperation(page, "crop region"); err != nil {
		return nil, err
	}

	rings := make([][]image.Point, 0, len(polygon.Polygon))
	var box image.Rectangle
	for i, ring := range polygon.Polygon {
		pts := make([]image.Point, len(ring))
		for j, p := range ring {
			pts[j] = image.Pt(int(math.Round(p[0]*scale[0])), int(math.Round(p[1]*scale[1])))
			pixel := image.Rectangle{Min: pts[j], Max: pts[j].Add(image.Pt(1, 1))}
			if i == 0 && j == 0 {
				box = pixel
			} else {
				box = box.Union(pixel)
			}
		}
		rings = append(rings, pts)
	}

	box = box.Intersect(image.Rect(0, 0, page.Cols(), page.Rows()))
	if box.Empty() {
		return nil, fmt.Errorf("region %v lies outside the page", polygon.Bound())
	}

	for _, ring := range rings {
		for j := range ring {
			ring[j] = ring[j].Sub(box.Min)
		}
	}

	mask := gocv.Zeros(box.Dy(), box.Dx(), gocv.MatTypeCV8UC1)
	defer mask.Close()
	outline := gocv.NewPointsVectorFromPoints(rings)
	defer outline.Close()
	gocv.FillPoly(&mask, outline, white)

	pageMat := page.GetMat()
	region := pageMat.Region(box)
	defer region.Close()

	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), box.Dy(), box.Dx(), region.Type())
	defer out.Close()
	region.CopyToWithMask(&out, mask)

	buf, err := gocv.IMEncode(gocv.PNGFileExt, out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode region crop: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

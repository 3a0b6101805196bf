package contours

import (
	"image"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"page-vectorizer/internal/geometry"
	"page-vectorizer/internal/opencv/safe"
)

// newRaster returns a zeroed 8-bit raster with every rect filled with value.
func newRaster(t *testing.T, rows, cols int, value uint8, rects ...image.Rectangle) *safe.Mat {
	t.Helper()

	m, err := safe.NewMat(rows, cols, gocv.MatTypeCV8UC1, "test_raster")
	require.NoError(t, err)
	t.Cleanup(m.Close)

	fill(t, m, value, rects...)
	return m
}

func fill(t *testing.T, m *safe.Mat, value uint8, rects ...image.Rectangle) {
	t.Helper()

	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				require.NoError(t, m.SetUCharAt(y, x, value))
			}
		}
	}
}

func rect(x0, y0, x1, y1 float64) geometry.Polygon {
	return geometry.NewPolygon(orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}})
}

func polygons(t *testing.T, shapes []geometry.Shape) []geometry.Polygon {
	t.Helper()

	out := make([]geometry.Polygon, len(shapes))
	for i, s := range shapes {
		p, ok := s.(geometry.Polygon)
		require.True(t, ok, "shape %d is %T", i, s)
		out[i] = p
	}
	return out
}

package contours

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"page-vectorizer/internal/opencv/safe"
	"page-vectorizer/internal/processing/filters"
)

func TestContoursTracesBlock(t *testing.T) {
	mask := newRaster(t, 200, 200, 255, image.Rect(10, 20, 110, 120))

	out, err := Contours{}.Apply(Payload{Mask: mask})
	require.NoError(t, err)

	ps := polygons(t, out.Shapes)
	require.Len(t, ps, 1)
	assert.InDelta(t, 99*99, ps[0].Area(), 1e-9)

	b := ps[0].Bound()
	assert.Equal(t, 10.0, b.Min[0])
	assert.Equal(t, 20.0, b.Min[1])
	assert.Equal(t, 109.0, b.Max[0])
	assert.Equal(t, 119.0, b.Max[1])
	assert.Same(t, mask, out.Mask)
}

func TestContoursEmptyMask(t *testing.T) {
	mask := newRaster(t, 50, 50, 0)

	out, err := Contours{}.Apply(Payload{Mask: mask})
	require.NoError(t, err)
	assert.Empty(t, out.Shapes)
}

func TestContoursKeepsHoles(t *testing.T) {
	mask := newRaster(t, 100, 100, 255, image.Rect(10, 10, 90, 90))
	fill(t, mask, 0, image.Rect(30, 30, 70, 70))

	out, err := Contours{}.Apply(Payload{Mask: mask})
	require.NoError(t, err)

	ps := polygons(t, out.Shapes)
	require.Len(t, ps, 1)
	assert.Len(t, ps[0].Holes(), 1)
	assert.Less(t, ps[0].Area(), 79.0*79.0)
}

func TestContoursIntersectsInk(t *testing.T) {
	mask := newRaster(t, 100, 100, 255, image.Rect(0, 0, 100, 100))
	ink := newRaster(t, 100, 100, 255, image.Rect(40, 40, 60, 60))

	out, err := Contours{Ink: ink}.Apply(Payload{Mask: mask})
	require.NoError(t, err)

	ps := polygons(t, out.Shapes)
	require.Len(t, ps, 1)
	assert.InDelta(t, 19*19, ps[0].Area(), 1e-9)
	assert.Equal(t, 100*100, mask.CountNonZero(), "the class mask must not be modified")
}

func TestContoursRejectsInkOfOtherSize(t *testing.T) {
	mask := newRaster(t, 100, 100, 255, image.Rect(0, 0, 10, 10))
	ink := newRaster(t, 100, 80, 255)

	_, err := Contours{Ink: ink}.Apply(Payload{Mask: mask})
	assert.True(t, errors.Is(err, safe.ErrSizeMismatch))
}

func TestContoursAppliesOpeningThenDilator(t *testing.T) {
	mask := newRaster(t, 100, 100, 255, image.Rect(10, 10, 40, 40), image.Rect(80, 80, 82, 82))

	stage := Contours{
		Opening: filters.NewFilter(filters.Opening, filters.Spread{Rows: 5, Cols: 5, Iterations: 1}),
		Dilator: filters.NewFilter(filters.Dilation, filters.Spread{Rows: 3, Cols: 3, Iterations: 1}),
	}
	out, err := stage.Apply(Payload{Mask: mask})
	require.NoError(t, err)

	ps := polygons(t, out.Shapes)
	require.Len(t, ps, 1, "the speck is opened away before dilation")
	assert.InDelta(t, 31*31, ps[0].Area(), 1e-9)
}

package processor

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"page-vectorizer/internal/config"
	"page-vectorizer/internal/labels"
	"page-vectorizer/internal/logger"
	"page-vectorizer/internal/opencv/safe"
	"page-vectorizer/internal/segmentation"
)

var (
	regionClasses = labels.Set{
		{ID: 0, Name: "BACKGROUND", Background: true},
		{ID: 1, Name: "TEXT"},
		{ID: 2, Name: "TABULAR"},
	}
	separatorClasses = labels.Set{
		{ID: 0, Name: "BACKGROUND", Background: true},
		{ID: 1, Name: "H", Orientation: labels.Horizontal},
		{ID: 2, Name: "V", Orientation: labels.Vertical},
	}
)

type paint struct {
	value uint8
	area  image.Rectangle
}

func raster(t *testing.T, size image.Point, background uint8, paints ...paint) *safe.Mat {
	t.Helper()

	m, err := safe.NewMat(size.Y, size.X, gocv.MatTypeCV8UC1, "fixture")
	require.NoError(t, err)

	all := append([]paint{{background, image.Rectangle{Max: size}}}, paints...)
	for _, p := range all {
		if p.value == 0 {
			continue
		}
		for y := p.area.Min.Y; y < p.area.Max.Y; y++ {
			for x := p.area.Min.X; x < p.area.Max.X; x++ {
				require.NoError(t, m.SetUCharAt(y, x, p.value))
			}
		}
	}
	return m
}

// pageFixture describes one page on disk.
type pageFixture struct {
	size        image.Point
	regions     []paint
	separators  []paint
	ink         []image.Rectangle
	noSeparator bool
}

// write creates page.png with its segmentation and binarization in dir and
// returns the page path.
func (f pageFixture) write(t *testing.T, dir string) string {
	t.Helper()

	pagePath := filepath.Join(dir, "page.png")
	paths := PathsFor(pagePath)

	binarized := raster(t, f.size, 255)
	defer binarized.Close()
	for _, r := range f.ink {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				require.NoError(t, binarized.SetUCharAt(y, x, 0))
			}
		}
	}
	require.True(t, gocv.IMWrite(paths.Binarized, binarized.GetMat()))
	require.True(t, gocv.IMWrite(pagePath, binarized.GetMat()))

	predictions := []*segmentation.Prediction{{
		Type:    segmentation.Region,
		Name:    "regions",
		Labels:  raster(t, f.size, 0, f.regions...),
		Classes: regionClasses,
	}}
	if !f.noSeparator {
		predictions = append(predictions, &segmentation.Prediction{
			Type:    segmentation.Separator,
			Name:    "separators",
			Labels:  raster(t, f.size, 0, f.separators...),
			Classes: separatorClasses,
		})
	}

	seg, err := segmentation.New(predictions...)
	require.NoError(t, err)
	defer seg.Close()
	require.NoError(t, seg.WriteFile(paths.Segmentation))

	return pagePath
}

func newProcessor(t *testing.T, mutate func(*config.Options)) *Processor {
	t.Helper()

	opts := config.Defaults()
	if mutate != nil {
		mutate(&opts)
	}
	p, err := New(opts, logger.Nop(), nil, nil)
	require.NoError(t, err)
	return p
}

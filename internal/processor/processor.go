// Package processor turns the segmentation of one page into a contours
// archive.
package processor

import (
	"context"
	"fmt"
	"image"

	"github.com/paulmach/orb"
	"page-vectorizer/internal/archive"
	"page-vectorizer/internal/config"
	"page-vectorizer/internal/logger"
	"page-vectorizer/internal/opencv/safe"
	"page-vectorizer/internal/processing/filters"
	"page-vectorizer/internal/segmentation"
	"page-vectorizer/internal/timing"
)

const component = "Processor"

// ShapeRecorder is told how many shapes of each class went into an archive.
type ShapeRecorder interface {
	ShapesWritten(predictionType, class string, n int)
}

// Result counts the shapes written per prediction.
type Result struct {
	Archive string
	Shapes  map[string]int
}

func (r Result) Total() int {
	n := 0
	for _, v := range r.Shapes {
		n += v
	}
	return n
}

type Processor struct {
	opts         config.Options
	regionSpread filters.Spread
	inkSpread    filters.Spread
	inkOpening   filters.Spread

	logger   logger.Logger
	timing   *timing.Tracker
	recorder ShapeRecorder
}

// New validates opts. tracker and recorder may be nil.
func New(opts config.Options, log logger.Logger, tracker *timing.Tracker, recorder ShapeRecorder) (*Processor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	p := &Processor{opts: opts, logger: log, timing: tracker, recorder: recorder}

	var err error
	if p.regionSpread, err = filters.ParseSpread(opts.RegionSpread); err != nil {
		return nil, err
	}
	if p.inkSpread, err = filters.ParseSpread(opts.InkSpread); err != nil {
		return nil, err
	}
	if p.inkOpening, err = filters.ParseSpread(opts.InkOpening); err != nil {
		return nil, err
	}

	return p, nil
}

// page holds the rasters shared by all predictions of one page.
type page struct {
	paths       Paths
	annotations *segmentation.Annotations
	ink         *safe.Mat
	image       *safe.Mat
	scale       orb.Point
	log         logger.Logger
}

func (pg *page) Close() {
	pg.ink.Close()
	if pg.image != nil {
		pg.image.Close()
	}
}

// Process vectorizes one page and publishes its contours archive. Nothing is
// published on error.
func (p *Processor) Process(ctx context.Context, pagePath string) (Result, error) {
	span := p.timing.Start("page")
	defer span.End()

	paths := PathsFor(pagePath)
	log := p.logger.With(map[string]interface{}{"page": pagePath})
	log.Debug(component, "processing page", nil)

	seg, err := p.load(paths.Segmentation)
	if err != nil {
		return Result{}, err
	}
	defer seg.Close()

	pg, err := p.openPage(paths, seg)
	if err != nil {
		return Result{}, err
	}
	defer pg.Close()
	pg.log = log

	w, err := archive.Create(paths.Contours)
	if err != nil {
		return Result{}, err
	}
	defer w.Abort()

	result := Result{Archive: paths.Contours, Shapes: make(map[string]int)}
	predictions := pg.annotations.Segmentation().Predictions()
	info := make(map[string]map[string]string, len(predictions))

	for _, prediction := range predictions {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		var n int
		switch prediction.Type {
		case segmentation.Region:
			n, err = p.processRegions(w, pg, prediction)
		case segmentation.Separator:
			n, err = p.processSeparators(w, pg, prediction)
		default:
			err = fmt.Errorf("no handler for predictor type %q", prediction.Type)
		}
		if err != nil {
			return Result{}, fmt.Errorf("prediction %s: %w", prediction.Name, err)
		}

		result.Shapes[prediction.Name] = n
		info[prediction.Name] = map[string]string{"type": string(prediction.Type)}
	}

	if err := w.WriteJSON(archive.MetaEntry, info); err != nil {
		return Result{}, err
	}
	if err := w.Commit(); err != nil {
		return Result{}, err
	}

	log.Info(component, "page processed", map[string]interface{}{
		"archive": paths.Contours,
		"shapes":  result.Total(),
	})

	return result, nil
}

func (p *Processor) load(path string) (*segmentation.Segmentation, error) {
	span := p.timing.Start("load_segmentation")
	defer span.End()

	return segmentation.Load(path)
}

func (p *Processor) openPage(paths Paths, seg *segmentation.Segmentation) (*page, error) {
	span := p.timing.Start("load_images")
	defer span.End()

	ink, err := loadInk(paths.Binarized)
	if err != nil {
		return nil, err
	}

	size := seg.Size()
	if got := image.Pt(ink.Cols(), ink.Rows()); got != size {
		ink.Close()
		return nil, fmt.Errorf("%w: binarized image is %v, labels are %v", safe.ErrSizeMismatch, got, size)
	}

	pg := &page{
		paths:       paths,
		annotations: segmentation.NewAnnotations(size, seg),
		ink:         ink,
		scale:       orb.Point{1, 1},
	}

	if p.opts.ExportImages {
		img, err := loadPage(paths.Page)
		if err != nil {
			ink.Close()
			return nil, err
		}
		pg.image = img
		pg.scale = orb.Point{
			float64(img.Cols()) / float64(size.X),
			float64(img.Rows()) / float64(size.Y),
		}
	}

	return pg, nil
}

func (p *Processor) recordShapes(predictionType segmentation.PredictorType, class string, n int) {
	if p.recorder != nil && n > 0 {
		p.recorder.ShapesWritten(string(predictionType), class, n)
	}
}

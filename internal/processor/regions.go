package processor

import (
	"page-vectorizer/internal/archive"
	"page-vectorizer/internal/contours"
	"page-vectorizer/internal/geometry"
	"page-vectorizer/internal/processing/filters"
	"page-vectorizer/internal/segmentation"
)

// regionConstructor traces every region class through the ink-gated contour
// pipeline and removes frame noise across classes.
func (p *Processor) regionConstructor(pg *page, prediction *segmentation.Prediction, presence filters.Filter) (contours.Constructor, func(), error) {
	ink, err := presence(pg.ink)
	if err != nil {
		return nil, nil, err
	}

	a := pg.annotations
	pipeline := contours.Pipeline{
		contours.Contours{
			Ink:     ink,
			Opening: filters.NewFilter(filters.Opening, p.inkOpening),
			Dilator: filters.NewFilter(filters.Dilation, p.regionSpread),
		},
		contours.Decompose{},
		contours.FilterByArea{MinArea: a.Magnitude() * p.opts.RegionMinSize},
	}

	pg.log.Debug(component, "region pipeline", map[string]interface{}{
		"prediction": prediction.Name,
		"stages":     pipeline.StageNames(),
	})

	constructor := contours.FoldOperator(
		contours.MultiClassConstructor(contours.Static(pipeline), prediction.Classes),
		contours.NewHeuristicFrameDetector(a.Size(), p.opts.MarginNoise).MultiClassFilter,
	)
	return constructor, ink.Close, nil
}

func (p *Processor) processRegions(w *archive.Writer, pg *page, prediction *segmentation.Prediction) (int, error) {
	span := p.timing.Start("regions")
	defer span.End()

	constructor, release, err := p.regionConstructor(pg, prediction, filters.NewFilter(filters.Dilation, p.inkSpread))
	if err != nil {
		return 0, err
	}
	defer release()

	mapping, err := pg.annotations.CreateMultiClassContours(prediction.Labels, constructor)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, class := range prediction.Classes.Exported() {
		shapes := mapping[class.Name]
		for i, shape := range shapes {
			polygon := shape.(geometry.Polygon)

			if p.opts.ExportImages {
				data, err := cropRegion(pg.image, polygon, pg.scale)
				if err != nil {
					return 0, err
				}
				if err := w.WriteBytes(archive.EntryName(prediction.Name, class.Name, i, "png"), data); err != nil {
					return 0, err
				}
			}

			if err := w.WriteText(archive.EntryName(prediction.Name, class.Name, i, "wkt"), polygon.WKT()); err != nil {
				return 0, err
			}
		}

		p.recordShapes(prediction.Type, class.Name, len(shapes))
		total += len(shapes)
	}

	pg.log.Debug(component, "regions extracted", map[string]interface{}{
		"prediction": prediction.Name,
		"regions":    total,
	})
	return total, nil
}

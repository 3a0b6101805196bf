package processor

import (
	"page-vectorizer/internal/archive"
	"page-vectorizer/internal/contours"
	"page-vectorizer/internal/geometry"
	"page-vectorizer/internal/labels"
	"page-vectorizer/internal/segmentation"
)

type separatorMeta struct {
	Width []float64 `json:"width"`
}

func (p *Processor) separatorPipeline(a *segmentation.Annotations) contours.PipelineFactory {
	tolerance := a.Magnitude() * p.opts.SepThreshold

	return func(class labels.Class) contours.Pipeline {
		return contours.Pipeline{
			contours.Contours{},
			contours.Simplify{},
			contours.EstimatePolyline{Orientation: class.Orientation},
			contours.Simplify{Tolerance: tolerance},
		}
	}
}

func (p *Processor) processSeparators(w *archive.Writer, pg *page, prediction *segmentation.Prediction) (int, error) {
	span := p.timing.Start("separators")
	defer span.End()

	constructor := contours.MultiClassConstructor(p.separatorPipeline(pg.annotations), prediction.Classes)
	mapping, err := pg.annotations.CreateMultiClassContours(prediction.Labels, constructor)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, class := range prediction.Classes.Exported() {
		shapes := mapping[class.Name]
		if len(shapes) == 0 {
			continue
		}

		meta := separatorMeta{Width: make([]float64, 0, len(shapes))}
		for i, shape := range shapes {
			polyline := shape.(geometry.Polyline)
			if err := w.WriteText(archive.EntryName(prediction.Name, class.Name, i, "wkt"), polyline.WKT()); err != nil {
				return 0, err
			}
			meta.Width = append(meta.Width, polyline.Width)
		}
		if err := w.WriteJSON(archive.ClassMetaName(prediction.Name, class.Name), meta); err != nil {
			return 0, err
		}

		p.recordShapes(prediction.Type, class.Name, len(shapes))
		total += len(shapes)
	}

	pg.log.Debug(component, "separators extracted", map[string]interface{}{
		"prediction": prediction.Name,
		"separators": total,
	})
	return total, nil
}

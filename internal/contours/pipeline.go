package contours

import (
	"fmt"

	"gocv.io/x/gocv"
	"page-vectorizer/internal/geometry"
	"page-vectorizer/internal/labels"
	"page-vectorizer/internal/opencv/safe"
)

// Payload is the value passed between stages. Mask is the isolated class
// mask and stays owned by the caller of Pipeline.Run.
type Payload struct {
	Mask   *safe.Mat
	Shapes []geometry.Shape
}

// Stage is one step of a per-class pipeline.
type Stage interface {
	Name() string
	Apply(in Payload) (Payload, error)
}

// Pipeline runs its stages left to right.
type Pipeline []Stage

func (p Pipeline) Run(mask *safe.Mat) ([]geometry.Shape, error) {
	current := Payload{Mask: mask}

	for _, stage := range p {
		next, err := stage.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("step %s failed: %w", stage.Name(), err)
		}
		next.Mask = mask
		current = next
	}

	return current.Shapes, nil
}

func (p Pipeline) StageNames() []string {
	names := make([]string, len(p))
	for i, stage := range p {
		names[i] = stage.Name()
	}
	return names
}

// PipelineFactory builds the pipeline for one class.
type PipelineFactory func(class labels.Class) Pipeline

// Static uses the same pipeline for every class.
func Static(p Pipeline) PipelineFactory {
	return func(labels.Class) Pipeline { return p }
}

// Mapping holds the shapes of every exported class, keyed by class name.
type Mapping map[string][]geometry.Shape

// Count returns the number of shapes across all classes.
func (m Mapping) Count() int {
	n := 0
	for _, v := range m {
		n += len(v)
	}
	return n
}

// Constructor computes a Mapping from a label raster.
type Constructor func(raster *safe.Mat) (Mapping, error)

// Transform rewrites a Mapping, typically across classes.
type Transform func(m Mapping) (Mapping, error)

// MultiClassConstructor runs factory(class) on the mask of every
// non-background class of classes.
func MultiClassConstructor(factory PipelineFactory, classes labels.Set) Constructor {
	return func(raster *safe.Mat) (Mapping, error) {
		if err := safe.ValidateBinary(raster, "multi-class contours"); err != nil {
			return nil, err
		}

		result := make(Mapping, len(classes))
		for _, class := range classes.Exported() {
			mask, err := isolate(raster, class)
			if err != nil {
				return nil, err
			}

			shapes, err := factory(class).Run(mask)
			mask.Close()
			if err != nil {
				return nil, fmt.Errorf("class %s: %w", class.Name, err)
			}

			if shapes == nil {
				shapes = []geometry.Shape{}
			}
			result[class.Name] = shapes
		}

		return result, nil
	}
}

// Fold composes transforms so that Fold(f1, f2)(m) == f2(f1(m)).
func Fold(transforms ...Transform) Transform {
	return func(m Mapping) (Mapping, error) {
		current := m
		for i, t := range transforms {
			next, err := t(current)
			if err != nil {
				return nil, fmt.Errorf("filter %d failed: %w", i, err)
			}
			current = next
		}
		return current, nil
	}
}

// FoldOperator applies filters, in order, to the result of base.
func FoldOperator(base Constructor, filters ...Transform) Constructor {
	folded := Fold(filters...)
	return func(raster *safe.Mat) (Mapping, error) {
		m, err := base(raster)
		if err != nil {
			return nil, err
		}
		return folded(m)
	}
}

func isolate(raster *safe.Mat, class labels.Class) (*safe.Mat, error) {
	value := float64(class.ID)
	lower := gocv.NewScalar(value, value, value, value)
	upper := gocv.NewScalar(value, value, value, value)

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(raster.GetMat(), lower, upper, &mask)

	isolated, err := safe.Own(mask, "class_"+class.Name)
	if err != nil {
		return nil, fmt.Errorf("isolating class %s: %w", class.Name, err)
	}
	return isolated, nil
}

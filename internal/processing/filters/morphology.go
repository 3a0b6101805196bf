package filters

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"page-vectorizer/internal/opencv/safe"
)

// Operation names a binary morphological operator.
type Operation int

const (
	Dilation Operation = iota
	Opening
)

func (o Operation) String() string {
	switch o {
	case Dilation:
		return "dilation"
	case Opening:
		return "opening"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// Filter maps a binary raster to a new binary raster owned by the caller.
// The input is never modified.
type Filter func(src *safe.Mat) (*safe.Mat, error)

// Identity returns a copy of its input.
func Identity(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "identity"); err != nil {
		return nil, err
	}
	return src.Clone()
}

// NewFilter builds op with a Rows x Cols rectangular structuring element
// applied Iterations times. Trivial spreads yield Identity.
func NewFilter(op Operation, spread Spread) Filter {
	if spread.IsIdentity() {
		return Identity
	}

	return func(src *safe.Mat) (*safe.Mat, error) {
		if err := safe.ValidateBinary(src, op.String()); err != nil {
			return nil, err
		}

		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: spread.Cols, Y: spread.Rows})
		defer kernel.Close()

		switch op {
		case Dilation:
			return iterate(src, spread.Iterations, kernel, dilate)
		case Opening:
			eroded, err := iterate(src, spread.Iterations, kernel, erode)
			if err != nil {
				return nil, err
			}
			defer eroded.Close()
			return iterate(eroded, spread.Iterations, kernel, dilate)
		default:
			return nil, fmt.Errorf("unsupported morphological operation: %s", op)
		}
	}
}

// ParseFilter parses text and builds op from it.
func ParseFilter(op Operation, text string) (Filter, error) {
	spread, err := ParseSpread(text)
	if err != nil {
		return nil, err
	}
	return NewFilter(op, spread), nil
}

func dilate(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) {
	gocv.Dilate(src, dst, kernel)
}

func erode(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) {
	gocv.Erode(src, dst, kernel)
}

func iterate(src *safe.Mat, n int, kernel gocv.Mat, step func(gocv.Mat, *gocv.Mat, gocv.Mat)) (*safe.Mat, error) {
	srcMat := src.GetMat()
	current := srcMat.Clone()

	for i := 0; i < n; i++ {
		next := gocv.NewMat()
		step(current, &next, kernel)
		current.Close()
		current = next
	}

	result, err := safe.Own(current, src.Tag())
	if err != nil {
		return nil, fmt.Errorf("morphology produced an empty raster: %w", err)
	}
	return result, nil
}

package segmentation

import (
	"encoding/json"
	"fmt"
	"strings"

	"page-vectorizer/internal/labels"
	"page-vectorizer/internal/opencv/safe"
)

// PredictorType selects how a prediction is vectorized.
type PredictorType string

const (
	Region    PredictorType = "REGION"
	Separator PredictorType = "SEPARATOR"
)

func (t PredictorType) Valid() bool {
	return t == Region || t == Separator
}

func (t *PredictorType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: predictor type %s", ErrInvalidSegmentation, string(data))
	}

	parsed := PredictorType(strings.ToUpper(s))
	if !parsed.Valid() {
		return fmt.Errorf("%w: unknown predictor type %q", ErrInvalidSegmentation, s)
	}
	*t = parsed
	return nil
}

// Prediction is the label raster of one predictor. Every pixel holds the id
// of one class in Classes.
type Prediction struct {
	Type    PredictorType
	Name    string
	Labels  *safe.Mat
	Classes labels.Set
}

func (p *Prediction) Close() {
	if p != nil && p.Labels != nil {
		p.Labels.Close()
	}
}

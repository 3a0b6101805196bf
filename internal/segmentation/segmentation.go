package segmentation

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"path"

	"gocv.io/x/gocv"
	"page-vectorizer/internal/labels"
	"page-vectorizer/internal/opencv/safe"
)

var ErrInvalidSegmentation = errors.New("invalid segmentation")

// MetaEntry is the container index file.
const MetaEntry = "meta.json"

type meta struct {
	Predictions []predictionMeta `json:"predictions"`
}

type predictionMeta struct {
	Name    string        `json:"name"`
	Type    PredictorType `json:"type"`
	Classes labels.Set    `json:"classes"`
}

// Segmentation is the ordered set of predictions for one page. All label
// rasters share one size. It is not modified after construction.
type Segmentation struct {
	predictions []*Prediction
	size        image.Point
}

// New takes ownership of predictions. They must have distinct names, valid
// class sets and equally sized 8-bit label rasters.
func New(predictions ...*Prediction) (*Segmentation, error) {
	if len(predictions) == 0 {
		return nil, fmt.Errorf("%w: no predictions", ErrInvalidSegmentation)
	}

	names := make(map[string]bool, len(predictions))
	var size image.Point

	for i, p := range predictions {
		if p == nil || p.Name == "" {
			return nil, fmt.Errorf("%w: prediction %d has no name", ErrInvalidSegmentation, i)
		}
		if names[p.Name] {
			return nil, fmt.Errorf("%w: duplicate prediction %q", ErrInvalidSegmentation, p.Name)
		}
		names[p.Name] = true

		if !p.Type.Valid() {
			return nil, fmt.Errorf("%w: prediction %s has type %q", ErrInvalidSegmentation, p.Name, p.Type)
		}
		if err := p.Classes.Validate(); err != nil {
			return nil, fmt.Errorf("%w: prediction %s: %v", ErrInvalidSegmentation, p.Name, err)
		}
		if err := safe.ValidateBinary(p.Labels, "label raster "+p.Name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSegmentation, err)
		}

		current := image.Pt(p.Labels.Cols(), p.Labels.Rows())
		if i == 0 {
			size = current
		} else if current != size {
			return nil, fmt.Errorf("%w: prediction %s is %v, expected %v",
				ErrInvalidSegmentation, p.Name, current, size)
		}
	}

	return &Segmentation{predictions: predictions, size: size}, nil
}

// Load reads a segmentation container: a zip holding meta.json and one
// grayscale PNG label raster per prediction, named <prediction>.png.
func Load(filename string) (*Segmentation, error) {
	r, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open segmentation: %w", err)
	}
	defer r.Close()

	var m meta
	if err := readJSON(&r.Reader, MetaEntry, &m); err != nil {
		return nil, err
	}
	if len(m.Predictions) == 0 {
		return nil, fmt.Errorf("%w: %s lists no predictions", ErrInvalidSegmentation, MetaEntry)
	}

	predictions := make([]*Prediction, 0, len(m.Predictions))
	release := func() {
		for _, p := range predictions {
			p.Close()
		}
	}

	for _, pm := range m.Predictions {
		raster, err := readLabels(&r.Reader, pm.Name+".png")
		if err != nil {
			release()
			return nil, err
		}
		predictions = append(predictions, &Prediction{
			Type:    pm.Type,
			Name:    pm.Name,
			Labels:  raster,
			Classes: pm.Classes,
		})
	}

	s, err := New(predictions...)
	if err != nil {
		release()
		return nil, err
	}
	return s, nil
}

func readEntry(r *zip.Reader, name string) ([]byte, error) {
	f, err := r.Open(path.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("%w: missing entry %s", ErrInvalidSegmentation, name)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func readJSON(r *zip.Reader, name string, v interface{}) error {
	data, err := readEntry(r, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		if errors.Is(err, ErrInvalidSegmentation) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrInvalidSegmentation, name, err)
	}
	return nil
}

func readLabels(r *zip.Reader, name string) (*safe.Mat, error) {
	data, err := readEntry(r, name)
	if err != nil {
		return nil, err
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrInvalidSegmentation, name, err)
	}

	raster, err := safe.Own(mat, "labels_"+name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSegmentation, name, err)
	}
	if raster.Type() != gocv.MatTypeCV8UC1 {
		raster.Close()
		return nil, fmt.Errorf("%w: %s is not an 8-bit single channel raster", ErrInvalidSegmentation, name)
	}
	return raster, nil
}

func (s *Segmentation) Predictions() []*Prediction {
	return s.predictions
}

// Prediction looks up a prediction by name.
func (s *Segmentation) Prediction(name string) (*Prediction, bool) {
	for _, p := range s.predictions {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Size is the label raster size as (width, height).
func (s *Segmentation) Size() image.Point {
	return s.size
}

func (s *Segmentation) Close() {
	for _, p := range s.predictions {
		p.Close()
	}
}

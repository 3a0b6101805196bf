package segmentation

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gocv.io/x/gocv"
)

// Write encodes s in the container format read by Load.
func (s *Segmentation) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	m := meta{Predictions: make([]predictionMeta, len(s.predictions))}
	for i, p := range s.predictions {
		m.Predictions[i] = predictionMeta{Name: p.Name, Type: p.Type, Classes: p.Classes}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", MetaEntry, err)
	}
	if err := writeEntry(zw, MetaEntry, data); err != nil {
		return err
	}

	for _, p := range s.predictions {
		buf, err := gocv.IMEncode(gocv.PNGFileExt, p.Labels.GetMat())
		if err != nil {
			return fmt.Errorf("failed to encode labels of %s: %w", p.Name, err)
		}
		err = writeEntry(zw, p.Name+".png", buf.GetBytes())
		buf.Close()
		if err != nil {
			return err
		}
	}

	return zw.Close()
}

// WriteFile writes the container to filename, replacing any existing file.
func (s *Segmentation) WriteFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := s.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

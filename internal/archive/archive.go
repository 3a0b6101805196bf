// Package archive writes per-page result archives. Archives are assembled in
// a pending file next to the destination and only become visible on Commit.
package archive

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/renameio/v2"
)

var (
	ErrArchiveExists = errors.New("archive already exists")
	ErrClosed        = errors.New("archive already committed or aborted")
)

// MetaEntry is the top-level index of an archive.
const MetaEntry = "meta.json"

// Epoch is the modification time stamped on every entry.
var Epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Writer builds one archive.
type Writer struct {
	path    string
	pending *renameio.PendingFile
	zw      *zip.Writer
	names   map[string]bool
	done    bool
}

// Create starts a new archive at path. It fails with ErrArchiveExists if a
// file is already there.
func Create(path string) (*Writer, error) {
	if err := checkAbsent(path); err != nil {
		return nil, err
	}

	pending, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(filepath.Dir(path)),
		renameio.WithPermissions(0o644))
	if err != nil {
		return nil, fmt.Errorf("failed to create pending archive: %w", err)
	}

	return &Writer{
		path:    path,
		pending: pending,
		zw:      zip.NewWriter(pending),
		names:   make(map[string]bool),
	}, nil
}

func checkAbsent(path string) error {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrArchiveExists, path)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
}

// WriteBytes adds one entry. Entry names must be unique.
func (w *Writer) WriteBytes(name string, data []byte) error {
	if w.done {
		return ErrClosed
	}
	if w.names[name] {
		return fmt.Errorf("duplicate archive entry %s", name)
	}

	entry, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: Epoch,
	})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	w.names[name] = true
	return nil
}

func (w *Writer) WriteText(name, text string) error {
	return w.WriteBytes(name, []byte(text))
}

// WriteJSON adds v encoded as compact JSON.
func (w *Writer) WriteJSON(name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return w.WriteBytes(name, data)
}

// Commit finishes the archive and moves it into place.
func (w *Writer) Commit() error {
	if w.done {
		return ErrClosed
	}
	w.done = true

	if err := w.zw.Close(); err != nil {
		w.pending.Cleanup()
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := checkAbsent(w.path); err != nil {
		w.pending.Cleanup()
		return err
	}
	if err := w.pending.CloseAtomicallyReplace(); err != nil {
		w.pending.Cleanup()
		return fmt.Errorf("failed to publish %s: %w", w.path, err)
	}
	return nil
}

// Abort discards the pending archive. It is a no-op after Commit.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.pending.Cleanup()
}

// EntryName is the entry of the index-th shape of a class.
func EntryName(prediction, class string, index int, ext string) string {
	return fmt.Sprintf("%s/%s/%03d.%s", prediction, class, index, ext)
}

// ClassMetaName is the per-class metadata entry.
func ClassMetaName(prediction, class string) string {
	return fmt.Sprintf("%s/%s/%s", prediction, class, MetaEntry)
}

// ReadEntries returns the entries of an archive, keyed by name, along with
// the sorted list of names.
func ReadEntries(path string) (map[string][]byte, []string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	entries := make(map[string][]byte, len(r.File))
	names := make([]string, 0, len(r.File))

	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		entries[f.Name] = data
		names = append(names, f.Name)
	}

	sort.Strings(names)
	return entries, names, nil
}

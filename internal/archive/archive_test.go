package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryName(t *testing.T) {
	assert.Equal(t, "regions/TEXT/000.wkt", EntryName("regions", "TEXT", 0, "wkt"))
	assert.Equal(t, "regions/TEXT/012.png", EntryName("regions", "TEXT", 12, "png"))
	assert.Equal(t, "separators/H/1234.wkt", EntryName("separators", "H", 1234, "wkt"))
	assert.Equal(t, "separators/H/meta.json", ClassMetaName("separators", "H"))
}

func TestCommitPublishesArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.contours.zip")

	w, err := Create(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "archive visible before commit")

	require.NoError(t, w.WriteText("regions/TEXT/000.wkt", "POLYGON((0 0,1 0,1 1,0 0))"))
	require.NoError(t, w.WriteJSON("separators/H/meta.json", map[string][]float64{"width": {4, 2.5}}))
	require.NoError(t, w.WriteJSON(MetaEntry, map[string]map[string]string{
		"separators": {"type": "SEPARATOR"},
		"regions":    {"type": "REGION"},
	}))
	require.NoError(t, w.Commit())

	entries, names, err := ReadEntries(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"meta.json", "regions/TEXT/000.wkt", "separators/H/meta.json"}, names)
	assert.Equal(t, `{"width":[4,2.5]}`, string(entries["separators/H/meta.json"]))
	assert.Equal(t, `{"regions":{"type":"REGION"},"separators":{"type":"SEPARATOR"}}`, string(entries[MetaEntry]))

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	for _, f := range r.File {
		assert.True(t, f.Modified.Equal(Epoch), "%s modified at %v", f.Name, f.Modified)
	}

	leftovers, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, leftovers, 1)
}

func TestCreateRefusesExistingArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.contours.zip")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	_, err := Create(path)
	assert.True(t, errors.Is(err, ErrArchiveExists))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestCommitRefusesArchiveCreatedMeanwhile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.contours.zip")

	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteText("a.wkt", "x"))
	require.NoError(t, os.WriteFile(path, []byte("other"), 0o644))

	err = w.Commit()
	assert.True(t, errors.Is(err, ErrArchiveExists))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "other", string(data))
}

func TestAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.contours.zip")

	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteText("a.wkt", "x"))
	require.NoError(t, w.Abort())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.ErrorIs(t, w.WriteText("b.wkt", "y"), ErrClosed)
	assert.ErrorIs(t, w.Commit(), ErrClosed)
	assert.NoError(t, w.Abort())
}

func TestDuplicateEntriesAreRejected(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "page.contours.zip"))
	require.NoError(t, err)
	defer w.Abort()

	require.NoError(t, w.WriteText("a.wkt", "x"))
	assert.Error(t, w.WriteText("a.wkt", "y"))
}

func TestArchivesAreDeterministic(t *testing.T) {
	build := func(path string) []byte {
		w, err := Create(path)
		require.NoError(t, err)
		require.NoError(t, w.WriteText(EntryName("regions", "TEXT", 0, "wkt"), "POLYGON((0 0,1 0,1 1,0 0))"))
		require.NoError(t, w.WriteJSON(MetaEntry, map[string]interface{}{"regions": map[string]string{"type": "REGION"}}))
		require.NoError(t, w.Commit())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return data
	}

	a := build(filepath.Join(t.TempDir(), "a.contours.zip"))
	b := build(filepath.Join(t.TempDir(), "b.contours.zip"))
	assert.True(t, bytes.Equal(a, b))
}

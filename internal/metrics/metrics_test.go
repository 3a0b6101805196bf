package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.PageDone(Processed)
	m.PageDone(Processed)
	m.PageDone(Failed)
	m.ShapesWritten("REGION", "TEXT", 3)
	m.ShapesWritten("REGION", "TEXT", 2)
	m.ObserveDuration("page", 40*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Pages.WithLabelValues(Processed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Pages.WithLabelValues(Failed)))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Shapes.WithLabelValues("REGION", "TEXT")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.PageDone(Skipped)

	filename := filepath.Join(t.TempDir(), "pv.prom")
	require.NoError(t, m.WriteTextfile(filename))

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pv_pages_total{result="skipped"} 1`)
}

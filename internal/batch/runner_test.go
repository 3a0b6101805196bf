package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"page-vectorizer/internal/logger"
	"page-vectorizer/internal/metrics"
	"page-vectorizer/internal/processor"
)

type fakeProcessor struct {
	mu      sync.Mutex
	pages   []string
	fail    map[string]bool
	delay   time.Duration
	running int32
	peak    int32
}

func (f *fakeProcessor) Process(_ context.Context, page string) (processor.Result, error) {
	n := atomic.AddInt32(&f.running, 1)
	defer atomic.AddInt32(&f.running, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.pages = append(f.pages, page)
	f.mu.Unlock()

	if f.fail[filepath.Base(page)] {
		return processor.Result{}, errors.New("broken page")
	}
	return processor.Result{Shapes: map[string]int{"regions": 2}}, nil
}

// readyPage creates a page with its segmentation and binarization.
func readyPage(t *testing.T, dir, name string) string {
	t.Helper()
	page := filepath.Join(dir, name)
	paths := processor.PathsFor(page)
	for _, p := range []string{page, paths.Segmentation, paths.Binarized} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	return page
}

func TestPagesListsImagesOnly(t *testing.T) {
	dir := t.TempDir()
	a := readyPage(t, dir, "b/0002.png")
	b := readyPage(t, dir, "a/0001.jpg")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	pages, err := Pages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, pages)

	single, err := Pages(a)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, single)

	_, err = Pages(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestRunProcessesReadyPages(t *testing.T) {
	dir := t.TempDir()
	readyPage(t, dir, "0001.png")
	readyPage(t, dir, "0002.png")
	broken := readyPage(t, dir, "0003.png")
	done := readyPage(t, dir, "0004.png")
	require.NoError(t, os.WriteFile(processor.PathsFor(done).Contours, nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0005.png"), []byte("x"), 0o644))

	fake := &fakeProcessor{fail: map[string]bool{"0003.png": true}}
	m := metrics.New()

	summary, err := NewRunner(fake, 2, nil, m).Run(context.Background(), dir)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 4, summary.Shapes)
	assert.Contains(t, summary.Failures, broken)

	sort.Strings(fake.pages)
	assert.Len(t, fake.pages, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Pages.WithLabelValues(metrics.Processed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Pages.WithLabelValues(metrics.Failed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Pages.WithLabelValues(metrics.Skipped)))
}

func TestRunLogsCarryRunID(t *testing.T) {
	dir := t.TempDir()
	readyPage(t, dir, "1.png")
	broken := readyPage(t, dir, "2.png")

	var buf bytes.Buffer
	log := logger.NewZerolog(zerolog.SyncWriter(&buf), logger.DebugLevel)
	fake := &fakeProcessor{fail: map[string]bool{"2.png": true}}

	summary, err := NewRunner(fake, 2, log, nil).Run(context.Background(), dir)
	require.NoError(t, err)

	var failures int
	lines := bufio.NewScanner(&buf)
	for lines.Scan() {
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(lines.Bytes(), &event))
		assert.Equal(t, summary.RunID, event["run_id"])
		if event["level"] == "error" {
			failures++
			assert.Equal(t, broken, event["page"])
		}
	}
	assert.Equal(t, 1, failures)
}

func TestRunBoundsConcurrency(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"1.png", "2.png", "3.png", "4.png", "5.png", "6.png"} {
		readyPage(t, dir, name)
	}

	fake := &fakeProcessor{delay: 20 * time.Millisecond}
	summary, err := NewRunner(fake, 2, nil, nil).Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Processed)
	assert.LessOrEqual(t, atomic.LoadInt32(&fake.peak), int32(2))
}

func TestRunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	readyPage(t, dir, "1.png")
	readyPage(t, dir, "2.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeProcessor{}
	summary, err := NewRunner(fake, 1, nil, nil).Run(ctx, dir)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, summary.Processed)
	assert.Empty(t, fake.pages)
}

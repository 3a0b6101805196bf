// Package batch walks a directory tree and vectorizes every page that is
// ready for it.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"page-vectorizer/internal/logger"
	"page-vectorizer/internal/metrics"
	"page-vectorizer/internal/processor"
)

const component = "Batch"

// PageProcessor vectorizes a single page.
type PageProcessor interface {
	Process(ctx context.Context, page string) (processor.Result, error)
}

// Summary reports the outcome of one run.
type Summary struct {
	RunID     string
	Processed int
	Skipped   int
	Failed    int
	Shapes    int
	Failures  map[string]error
}

type Runner struct {
	processor PageProcessor
	workers   int
	logger    logger.Logger
	metrics   *metrics.Metrics
}

// NewRunner runs at most workers pages at a time. m may be nil.
func NewRunner(p PageProcessor, workers int, log logger.Logger, m *metrics.Metrics) *Runner {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{processor: p, workers: workers, logger: log, metrics: m}
}

// Pages lists the page images below root in lexical order. root may also be
// a single page.
func Pages(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}
	if !info.IsDir() {
		if processor.IsPageImage(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var pages []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && processor.IsPageImage(path) {
			pages = append(pages, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(pages)
	return pages, nil
}

// Run processes every eligible page below root. A failing page is logged and
// counted; it does not stop the others. Cancelling ctx stops scheduling new
// pages and Run returns the context error once running pages finish.
func (r *Runner) Run(ctx context.Context, root string) (Summary, error) {
	summary := Summary{RunID: uuid.NewString(), Failures: make(map[string]error)}

	pages, err := Pages(root)
	if err != nil {
		return summary, err
	}

	log := r.logger.With(map[string]interface{}{"run_id": summary.RunID})
	log.Info(component, "run started", map[string]interface{}{
		"root":    root,
		"pages":   len(pages),
		"workers": r.workers,
	})

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	for _, page := range pages {
		if ctx.Err() != nil {
			break
		}
		if !processor.ShouldProcess(page) {
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			r.count(metrics.Skipped)
			log.Debug(component, "page skipped", map[string]interface{}{"page": page})
			continue
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			result, err := r.processor.Process(ctx, page)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				summary.Failures[page] = err
				r.count(metrics.Failed)
				log.Error(component, err, map[string]interface{}{"page": page})
				return nil
			}

			summary.Processed++
			summary.Shapes += result.Total()
			r.count(metrics.Processed)
			return nil
		})
	}

	g.Wait()

	log.Info(component, "run finished", map[string]interface{}{
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"shapes":    summary.Shapes,
	})

	return summary, ctx.Err()
}

func (r *Runner) count(result string) {
	if r.metrics != nil {
		r.metrics.PageDone(result)
	}
}

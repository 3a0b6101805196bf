// Package metrics exposes batch counters in the Prometheus format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Page outcomes.
const (
	Processed = "processed"
	Skipped   = "skipped"
	Failed    = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	Pages    *prometheus.CounterVec
	Shapes   *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Pages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pv_pages_total",
				Help: "Pages seen by the batch runner, by outcome",
			},
			[]string{"result"},
		),
		Shapes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pv_shapes_total",
				Help: "Shapes written to archives",
			},
			[]string{"prediction_type", "class"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pv_operation_duration_seconds",
				Help:    "Duration of page processing steps",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) PageDone(result string) {
	m.Pages.WithLabelValues(result).Inc()
}

func (m *Metrics) ShapesWritten(predictionType, class string, n int) {
	m.Shapes.WithLabelValues(predictionType, class).Add(float64(n))
}

// ObserveDuration lets a timing.Tracker feed the duration histogram.
func (m *Metrics) ObserveDuration(operation string, d time.Duration) {
	m.Duration.WithLabelValues(operation).Observe(d.Seconds())
}

// WriteTextfile dumps all metrics to filename for the node exporter
// textfile collector.
func (m *Metrics) WriteTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", filename, err)
	}
	return nil
}

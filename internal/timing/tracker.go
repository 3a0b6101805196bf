// Package timing records how long named operations take.
package timing

import (
	"sort"
	"sync"
	"time"
)

// Observer receives every completed duration.
type Observer interface {
	ObserveDuration(operation string, d time.Duration)
}

type Tracker struct {
	timings  map[string][]time.Duration
	mu       sync.RWMutex
	observer Observer
	enabled  bool
}

// NewTracker returns an enabled tracker. observer may be nil.
func NewTracker(observer Observer) *Tracker {
	return &Tracker{
		timings:  make(map[string][]time.Duration),
		observer: observer,
		enabled:  true,
	}
}

// Span is one running measurement.
type Span struct {
	tracker   *Tracker
	operation string
	start     time.Time
}

// Start begins timing operation. A nil tracker yields a span that records
// nothing.
func (tt *Tracker) Start(operation string) Span {
	if tt == nil {
		return Span{}
	}

	tt.mu.RLock()
	enabled := tt.enabled
	tt.mu.RUnlock()
	if !enabled {
		return Span{}
	}

	return Span{tracker: tt, operation: operation, start: time.Now()}
}

// End records the elapsed time and returns it.
func (s Span) End() time.Duration {
	if s.tracker == nil {
		return 0
	}

	duration := time.Since(s.start)
	s.tracker.record(s.operation, duration)
	return duration
}

func (tt *Tracker) record(operation string, d time.Duration) {
	tt.mu.Lock()
	tt.timings[operation] = append(tt.timings[operation], d)
	tt.mu.Unlock()

	if tt.observer != nil {
		tt.observer.ObserveDuration(operation, d)
	}
}

func (tt *Tracker) Timings(operation string) []time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[operation]
	if timings == nil {
		return nil
	}

	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

// Operations lists every operation with at least one recorded duration.
func (tt *Tracker) Operations() []string {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	names := make([]string, 0, len(tt.timings))
	for name := range tt.timings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (tt *Tracker) Average(operation string) time.Duration {
	timings := tt.Timings(operation)
	if len(timings) == 0 {
		return 0
	}

	var total time.Duration
	for _, duration := range timings {
		total += duration
	}

	return total / time.Duration(len(timings))
}

// Summary maps each operation to its average duration in milliseconds, in a
// shape suitable for log fields.
func (tt *Tracker) Summary() map[string]interface{} {
	summary := make(map[string]interface{})
	for _, op := range tt.Operations() {
		summary[op+"_ms"] = float64(tt.Average(op).Microseconds()) / 1000
	}
	return summary
}

func (tt *Tracker) SetEnabled(enabled bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.enabled = enabled
}

// Reset clears one operation, or everything when operation is empty.
func (tt *Tracker) Reset(operation string) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if operation == "" {
		tt.timings = make(map[string][]time.Duration)
	} else {
		delete(tt.timings, operation)
	}
}

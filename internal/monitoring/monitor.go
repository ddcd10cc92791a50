// Package monitoring tracks transcript-parsing outcomes, both as
// Prometheus collectors and as a snapshot map served on the API for
// quick inspection.
package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the transcript pipeline.
type Metrics struct {
	TranscriptsTotal    *prometheus.CounterVec
	ValidationErrors    prometheus.Counter
	ExtractorFailures   prometheus.Counter
	AppliedRecordsTotal prometheus.Counter
}

// NewMetrics registers the pipeline collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TranscriptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fridgetrack_transcripts_total",
			Help: "Transcript parse requests by validation status.",
		}, []string{"status"}),
		ValidationErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "fridgetrack_validation_errors_total",
			Help: "Individual validation errors reported to clients.",
		}),
		ExtractorFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "fridgetrack_extractor_failures_total",
			Help: "Extractor calls that failed before validation could run.",
		}),
		AppliedRecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fridgetrack_applied_records_total",
			Help: "Validated records applied to the inventory store.",
		}),
	}
}

// Monitor collects point-in-time metrics for the inspection endpoint.
type Monitor struct {
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance.
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value.
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// GetMetric returns a specific metric value.
func (m *Monitor) GetMetric(name string) (interface{}, bool) {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	value, exists := m.metrics[name]
	return value, exists
}

// GetMetrics returns all current metrics.
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	// Copy to avoid concurrent map access
	metrics := make(map[string]interface{}, len(m.metrics))
	for k, v := range m.metrics {
		metrics[k] = v
	}
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// Reset clears all metrics.
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
}

// RecordValidation records the outcome of one transcript validation.
func (m *Monitor) RecordValidation(status string, errorCount, warningCount int) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	incr := func(name string, by int) {
		if n, ok := m.metrics[name].(int); ok {
			m.metrics[name] = n + by
			return
		}
		m.metrics[name] = by
	}
	incr("transcripts_"+status, 1)
	incr("validation_errors", errorCount)
	incr("validation_warnings", warningCount)
	m.metrics["last_transcript_at"] = time.Now().Format(time.RFC3339)
}

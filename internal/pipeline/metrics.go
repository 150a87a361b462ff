package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Step outcomes used as metric labels.
const (
	stepApplied = "applied"
	stepSkipped = "skipped"
	stepFailed  = "error"
)

// Metrics contains Prometheus metrics for pipeline runs.
type Metrics struct {
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	stepsTotal  *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton pipeline metrics instance, registered
// with the default Prometheus registerer.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = NewMetrics(prometheus.DefaultRegisterer)
	})
	return metricsInstance
}

// NewMetrics creates pipeline metrics registered with reg. A nil reg
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treejoin",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total number of pipeline runs",
			},
			[]string{"pipeline", "result"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "treejoin",
				Subsystem: "pipeline",
				Name:      "run_duration_seconds",
				Help:      "Duration of pipeline runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"pipeline"},
		),
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treejoin",
				Subsystem: "pipeline",
				Name:      "steps_total",
				Help:      "Total number of pipeline steps by outcome",
			},
			[]string{"pipeline", "step_type", "result"},
		),
	}
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(pipeline, result string, seconds float64) {
	m.runsTotal.WithLabelValues(pipeline, result).Inc()
	m.runDuration.WithLabelValues(pipeline).Observe(seconds)
}

// RecordStep records the outcome of one step.
func (m *Metrics) RecordStep(pipeline, stepType, result string) {
	m.stepsTotal.WithLabelValues(pipeline, stepType, result).Inc()
}

package transform

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation names used as metric labels and span names.
const (
	OpDeepMerge     = "deep_merge"
	OpJoinArrayData = "join_array_data"
	OpJoinData      = "join_data"
	OpRemoveData    = "remove_data"
	OpPromoteData   = "promote_data"
	OpAssignDefault = "assign_empty_defaults"
	OpPrune         = "prune_empty_properties"
)

var allOperations = []string{
	OpDeepMerge, OpJoinArrayData, OpJoinData, OpRemoveData,
	OpPromoteData, OpAssignDefault, OpPrune,
}

// Metrics contains Prometheus metrics for transform operations.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton transform metrics instance, registered
// with the default Prometheus registerer.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = NewMetrics(prometheus.DefaultRegisterer)
	})
	return metricsInstance
}

// NewMetrics creates transform metrics registered with reg. A nil reg
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treejoin",
				Subsystem: "transform",
				Name:      "operations_total",
				Help:      "Total number of tree transform operations",
			},
			[]string{"operation", "result"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "treejoin",
				Subsystem: "transform",
				Name:      "operation_duration_seconds",
				Help:      "Duration of tree transform operations in seconds",
				Buckets: []float64{
					.00001, .0001, .0005, .001,
					.005, .01, .05, .1,
				},
			},
			[]string{"operation"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treejoin",
				Subsystem: "transform",
				Name:      "errors_total",
				Help:      "Total number of tree transform errors",
			},
			[]string{"operation", "error_type"},
		),
	}
}

// MustRegister additionally registers the transform collectors with
// registry, for callers that serve metrics from a custom registry.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.errorsTotal,
	)
}

// Init pre-initializes label combinations so every series is exported
// before its first use.
func (m *Metrics) Init() {
	for _, op := range allOperations {
		for _, result := range []string{"success", "error", "skipped"} {
			m.operationsTotal.WithLabelValues(op, result)
		}
		m.operationDuration.WithLabelValues(op)
	}
	for _, op := range []string{OpDeepMerge, OpJoinArrayData, OpJoinData, OpPromoteData} {
		for _, errType := range []string{"merge_type", "join", "general"} {
			m.errorsTotal.WithLabelValues(op, errType)
		}
	}
}

// RecordOperation records a completed operation.
func (m *Metrics) RecordOperation(operation, result string) {
	m.operationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordError records a failed operation, classified by err.
func (m *Metrics) RecordError(operation string, err error) {
	m.errorsTotal.WithLabelValues(operation, errorType(err)).Inc()
}

// ObserveDuration records the duration of an operation in seconds.
func (m *Metrics) ObserveDuration(operation string, seconds float64) {
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrMergeType):
		return "merge_type"
	case errors.Is(err, ErrJoin):
		return "join"
	default:
		return "general"
	}
}

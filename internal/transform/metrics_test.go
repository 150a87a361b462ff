package transform

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMetrics_Singleton(t *testing.T) {
	m1 := GetMetrics()
	m2 := GetMetrics()

	require.NotNil(t, m1)
	assert.Same(t, m1, m2)
	assert.NotNil(t, m1.operationsTotal)
	assert.NotNil(t, m1.operationDuration)
	assert.NotNil(t, m1.errorsTotal)
}

func TestMetrics_RecordOperation(t *testing.T) {
	t.Parallel()

	m := NewMetrics(nil)
	m.RecordOperation(OpJoinData, "success")
	m.RecordOperation(OpJoinData, "success")
	m.RecordOperation(OpJoinData, "error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpJoinData, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpJoinData, "error")))
}

func TestMetrics_RecordError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "merge type", err: &MergeTypeError{}, expected: "merge_type"},
		{name: "join", err: &JoinError{Message: "x"}, expected: "join"},
		{name: "wrapped join", err: errors.Join(errors.New("ctx"), &JoinError{}), expected: "join"},
		{name: "other", err: errors.New("boom"), expected: "general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewMetrics(nil)
			m.RecordError(OpDeepMerge, tt.err)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues(OpDeepMerge, tt.expected)))
		})
	}
}

func TestMetrics_ObserveDuration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveDuration(OpPrune, 0.0002)
	m.ObserveDuration(OpPrune, 0.02)

	families, err := reg.Gather()
	require.NoError(t, err)

	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "treejoin_transform_operation_duration_seconds" {
			require.Len(t, mf.GetMetric(), 1)
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, hist)
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.InDelta(t, 0.0202, hist.GetSampleSum(), 1e-9)
}

func TestMetrics_Init(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.Init()

	assert.Equal(t, len(allOperations)*3, testutil.CollectAndCount(m.operationsTotal))
	assert.Equal(t, len(allOperations), testutil.CollectAndCount(m.operationDuration))
	assert.Equal(t, 4*3, testutil.CollectAndCount(m.errorsTotal))
}

func TestMetrics_MustRegister(t *testing.T) {
	t.Parallel()

	m := NewMetrics(nil)
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() { m.MustRegister(reg) })
	assert.Panics(t, func() { m.MustRegister(reg) })
}

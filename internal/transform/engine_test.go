package transform

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/treejoin/internal/observability"
	"github.com/vyrodovalexey/treejoin/internal/tree"
)

// setupTracing installs an in-memory exporter as the global tracer
// provider. Tests using it must not be parallel.
func setupTracing(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	oldTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	transformTracer = otel.Tracer("treejoin/transform")

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(oldTP)
		transformTracer = otel.Tracer("treejoin/transform")
	})
	return exporter
}

func spanAttrs(s tracetest.SpanStub) map[string]any {
	attrs := make(map[string]any, len(s.Attributes))
	for _, a := range s.Attributes {
		attrs[string(a.Key)] = a.Value.AsInterface()
	}
	return attrs
}

func TestNewEngine_Defaults(t *testing.T) {
	t.Parallel()

	e, ok := NewEngine().(*engine)
	require.True(t, ok)
	assert.NotNil(t, e.logger)
	assert.Same(t, GetMetrics(), e.metrics)
}

func TestEngine_Operations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := NewEngine(WithMetrics(NewMetrics(nil)))

	sink := doc(obj{"team": arr{obj{"name": "a", "private": obj{"x": 1}}}})
	res, err := e.JoinData(ctx, "team", "name", sink, doc(obj{"team": arr{obj{"name": "b", "tags": nil}}}))
	require.NoError(t, err)
	assert.Same(t, sink, res)

	team := sink.Get("team")
	res, err = e.PromoteData(ctx, team, "private")
	require.NoError(t, err)
	assert.Same(t, team, res)

	assert.Same(t, sink, e.AssignEmptyDefaults(ctx, sink, []string{"projects"}, nil, nil))
	assert.Same(t, sink, e.RemoveData(ctx, sink, "tags"))

	_, err = e.DeepMerge(ctx, sink, doc(obj{"projects": arr{"hub"}}))
	require.NoError(t, err)

	_, err = e.JoinArrayData(ctx, "name", team, doc(arr{obj{"name": "a", "y": 2}}))
	require.NoError(t, err)

	assert.Same(t, sink, e.PruneEmptyProperties(ctx, sink))
	assertTree(t, obj{
		"team":     arr{obj{"name": "a", "x": 1, "y": 2}, obj{"name": "b"}},
		"projects": arr{"hub"},
	}, sink)
}

func TestEngine_ScalarIsSkipped(t *testing.T) {
	t.Parallel()

	m := NewMetrics(nil)
	e := NewEngine(WithMetrics(m))

	assert.Nil(t, e.PruneEmptyProperties(context.Background(), tree.FromString("")))
	assert.Nil(t, e.RemoveData(context.Background(), tree.FromInt(1), "k"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpPrune, "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpRemoveData, "skipped")))
}

func TestEngine_ErrorMetricsAndLogs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	m := NewMetrics(nil)
	e := NewEngine(
		WithLogger(observability.NewZapLogger(zap.New(core))),
		WithMetrics(m),
	)

	res, err := e.JoinArrayData(context.Background(), "name", doc(arr{}), doc(arr{obj{}}))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrJoin)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpJoinArrayData, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues(OpJoinArrayData, "join")))

	entries := logs.FilterMessage("transform operation failed").AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, OpJoinArrayData, entries[0].ContextMap()["operation"])
}

// TestEngine_Spans is not parallel because it replaces the global tracer
// provider.
func TestEngine_Spans(t *testing.T) {
	t.Run("success span carries attributes", func(t *testing.T) {
		exporter := setupTracing(t)
		e := NewEngine(WithMetrics(NewMetrics(nil)))

		_, err := e.JoinArrayData(context.Background(), "name",
			doc(arr{obj{"name": "a"}}), doc(arr{obj{"name": "b"}}))
		require.NoError(t, err)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "transform.join_array_data", spans[0].Name)

		attrs := spanAttrs(spans[0])
		assert.Equal(t, "name", attrs["transform.key_field"])
		assert.Equal(t, int64(1), attrs["transform.sink_len"])
		assert.Equal(t, int64(1), attrs["transform.source_len"])
		assert.Equal(t, "success", attrs["transform.result"])
	})

	t.Run("error span has error status", func(t *testing.T) {
		exporter := setupTracing(t)
		e := NewEngine(WithMetrics(NewMetrics(nil)))

		_, err := e.DeepMerge(context.Background(), doc(obj{}), doc(arr{}))
		require.Error(t, err)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "transform.deep_merge", spans[0].Name)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		require.NotEmpty(t, spans[0].Events)
		assert.Equal(t, "exception", spans[0].Events[0].Name)
	})

	t.Run("one span per operation", func(t *testing.T) {
		exporter := setupTracing(t)
		e := NewEngine(WithMetrics(NewMetrics(nil)))
		ctx := context.Background()
		n := doc(obj{"a": ""})

		e.AssignEmptyDefaults(ctx, n, []string{"b"}, []string{"c"}, nil)
		e.RemoveData(ctx, n, "x")
		_, err := e.PromoteData(ctx, n, "x")
		require.NoError(t, err)
		_, err = e.JoinData(ctx, "z", "id", n, doc(obj{}))
		require.NoError(t, err)
		e.PruneEmptyProperties(ctx, n)

		var names []string
		for _, s := range exporter.GetSpans() {
			names = append(names, s.Name)
		}
		assert.Equal(t, []string{
			"transform.assign_empty_defaults",
			"transform.remove_data",
			"transform.promote_data",
			"transform.join_data",
			"transform.prune_empty_properties",
		}, names)
		assertTree(t, obj{}, n)
	})
}

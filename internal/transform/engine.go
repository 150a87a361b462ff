package transform

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/treejoin/internal/observability"
	"github.com/vyrodovalexey/treejoin/internal/tree"
)

var transformTracer = otel.Tracer("treejoin/transform")

// Engine runs the tree transform operations with logging, metrics and
// tracing. Each method has the semantics of the package-level function of
// the same name; the trees are still mutated in place and returned.
type Engine interface {
	DeepMerge(ctx context.Context, sink, source *tree.Node) (*tree.Node, error)
	JoinArrayData(ctx context.Context, keyField string, sink, source *tree.Node) (*tree.Node, error)
	JoinData(ctx context.Context, category, keyField string, sink, source *tree.Node) (*tree.Node, error)
	RemoveData(ctx context.Context, t *tree.Node, key string) *tree.Node
	PromoteData(ctx context.Context, t *tree.Node, key string) (*tree.Node, error)
	AssignEmptyDefaults(ctx context.Context, t *tree.Node, arrayFields, mappingFields, stringFields []string) *tree.Node
	PruneEmptyProperties(ctx context.Context, t *tree.Node) *tree.Node
}

// engine implements the Engine interface.
type engine struct {
	logger  observability.Logger
	metrics *Metrics
}

// EngineOption is a functional option for configuring the engine.
type EngineOption func(*engine)

// WithLogger sets the logger for the engine.
func WithLogger(logger observability.Logger) EngineOption {
	return func(e *engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics for the engine.
func WithMetrics(metrics *Metrics) EngineOption {
	return func(e *engine) {
		e.metrics = metrics
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...EngineOption) Engine {
	e := &engine{}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = observability.NopLogger()
	}
	if e.metrics == nil {
		e.metrics = GetMetrics()
	}

	return e
}

// DeepMerge merges source into sink.
func (e *engine) DeepMerge(ctx context.Context, sink, source *tree.Node) (*tree.Node, error) {
	return e.run(ctx, OpDeepMerge, nil, func() (*tree.Node, error) {
		return DeepMerge(sink, source)
	})
}

// JoinArrayData joins the records of source into sink on keyField.
func (e *engine) JoinArrayData(ctx context.Context, keyField string, sink, source *tree.Node) (*tree.Node, error) {
	attrs := []attribute.KeyValue{
		attribute.String("transform.key_field", keyField),
		attribute.Int("transform.sink_len", sink.Len()),
		attribute.Int("transform.source_len", source.Len()),
	}
	return e.run(ctx, OpJoinArrayData, attrs, func() (*tree.Node, error) {
		return JoinArrayData(keyField, sink, source)
	})
}

// JoinData joins the category member of source into sink.
func (e *engine) JoinData(ctx context.Context, category, keyField string, sink, source *tree.Node) (*tree.Node, error) {
	attrs := []attribute.KeyValue{
		attribute.String("transform.category", category),
		attribute.String("transform.key_field", keyField),
	}
	return e.run(ctx, OpJoinData, attrs, func() (*tree.Node, error) {
		return JoinData(category, keyField, sink, source)
	})
}

// RemoveData strips key from t.
func (e *engine) RemoveData(ctx context.Context, t *tree.Node, key string) *tree.Node {
	attrs := []attribute.KeyValue{attribute.String("transform.key", key)}
	res, _ := e.run(ctx, OpRemoveData, attrs, func() (*tree.Node, error) {
		return RemoveData(t, key), nil
	})
	return res
}

// PromoteData promotes the data under key within t.
func (e *engine) PromoteData(ctx context.Context, t *tree.Node, key string) (*tree.Node, error) {
	attrs := []attribute.KeyValue{attribute.String("transform.key", key)}
	return e.run(ctx, OpPromoteData, attrs, func() (*tree.Node, error) {
		return PromoteData(t, key)
	})
}

// AssignEmptyDefaults fills missing fields of t with empty values.
func (e *engine) AssignEmptyDefaults(
	ctx context.Context,
	t *tree.Node,
	arrayFields, mappingFields, stringFields []string,
) *tree.Node {
	attrs := []attribute.KeyValue{
		attribute.Int("transform.array_fields_count", len(arrayFields)),
		attribute.Int("transform.mapping_fields_count", len(mappingFields)),
		attribute.Int("transform.string_fields_count", len(stringFields)),
	}
	res, _ := e.run(ctx, OpAssignDefault, attrs, func() (*tree.Node, error) {
		return AssignEmptyDefaults(t, arrayFields, mappingFields, stringFields), nil
	})
	return res
}

// PruneEmptyProperties strips empty fields from t.
func (e *engine) PruneEmptyProperties(ctx context.Context, t *tree.Node) *tree.Node {
	res, _ := e.run(ctx, OpPrune, nil, func() (*tree.Node, error) {
		return PruneEmptyProperties(t), nil
	})
	return res
}

// run executes fn inside a span and records its outcome. A nil result
// without error counts as skipped: the operation did not apply.
func (e *engine) run(
	ctx context.Context,
	op string,
	attrs []attribute.KeyValue,
	fn func() (*tree.Node, error),
) (*tree.Node, error) {
	ctx, span := transformTracer.Start(ctx, "transform."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	logger := e.logger.WithContext(ctx)
	start := time.Now()

	res, err := fn()
	e.metrics.ObserveDuration(op, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.RecordOperation(op, "error")
		e.metrics.RecordError(op, err)
		logger.Debug("transform operation failed",
			observability.String("operation", op),
			observability.Error(err))
		return nil, err
	}

	result := "success"
	if res == nil {
		result = "skipped"
	}
	span.SetAttributes(attribute.String("transform.result", result))
	e.metrics.RecordOperation(op, result)
	logger.Debug("transform operation completed",
		observability.String("operation", op),
		observability.String("result", result),
		observability.Duration("duration", time.Since(start)))

	return res, nil
}

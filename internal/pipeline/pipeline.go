package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vyrodovalexey/treejoin/internal/config"
	"github.com/vyrodovalexey/treejoin/internal/observability"
	"github.com/vyrodovalexey/treejoin/internal/transform"
	"github.com/vyrodovalexey/treejoin/internal/tree"
)

var pipelineTracer = otel.Tracer("treejoin/pipeline")

// ErrNoSources is returned by Run when called without source documents.
var ErrNoSources = errors.New("pipeline: no source documents")

// Pipeline folds partial source documents into one document by applying
// configured transform steps in order.
type Pipeline struct {
	name    string
	steps   []step
	engine  transform.Engine
	logger  observability.Logger
	metrics *Metrics
}

type step struct {
	config.StepConfig
	index int
	when  cel.Program
}

type options struct {
	logger  observability.Logger
	engine  transform.Engine
	metrics *Metrics
}

// Option is a functional option for configuring a pipeline.
type Option func(*options)

// WithLogger sets the logger for the pipeline.
func WithLogger(logger observability.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEngine sets the transform engine executing the steps.
func WithEngine(engine transform.Engine) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// WithMetrics sets the metrics for the pipeline.
func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = observability.NopLogger()
	}
	if o.engine == nil {
		o.engine = transform.NewEngine(transform.WithLogger(o.logger))
	}
	if o.metrics == nil {
		o.metrics = GetMetrics()
	}
	return o
}

// New validates cfg and builds a pipeline from it. Step conditions are
// compiled here, so an invalid expression fails early.
func New(cfg *config.PipelineConfig, opts ...Option) (*Pipeline, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	p := &Pipeline{
		name:    cfg.Metadata.Name,
		steps:   make([]step, 0, len(cfg.Spec.Steps)),
		engine:  o.engine,
		logger:  o.logger.With(observability.String("pipeline", cfg.Metadata.Name)),
		metrics: o.metrics,
	}

	env, err := newConditionEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	for i, sc := range cfg.Spec.Steps {
		s := step{StepConfig: sc, index: i}
		if sc.When != "" {
			s.when, err = compileCondition(env, sc.When)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i, sc.DisplayName(), err)
			}
		}
		p.steps = append(p.steps, s)
	}

	return p, nil
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// Run converts sources to trees and folds them into the first one. Each
// source may be a *tree.Node or a generic value accepted by tree.FromAny.
// The first source is modified in place and returned.
func (p *Pipeline) Run(ctx context.Context, sources ...any) (*tree.Node, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	runID := uuid.NewString()
	ctx = observability.ContextWithRunID(ctx, runID)
	ctx, span := pipelineTracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.name", p.name),
			attribute.String("pipeline.run_id", runID),
			attribute.Int("pipeline.sources", len(sources)),
			attribute.Int("pipeline.steps", len(p.steps)),
		),
	)
	defer span.End()

	logger := p.logger.WithContext(ctx)
	start := time.Now()

	doc, err := p.run(ctx, sources)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.RecordRun(p.name, "error", duration.Seconds())
		logger.Error("pipeline run failed",
			observability.Error(err),
			observability.Duration("duration", duration))
		return nil, err
	}

	p.metrics.RecordRun(p.name, "success", duration.Seconds())
	logger.Info("pipeline run completed",
		observability.Int("sources", len(sources)),
		observability.Duration("duration", duration))
	return doc, nil
}

func (p *Pipeline) run(ctx context.Context, sources []any) (*tree.Node, error) {
	nodes, err := convertSources(ctx, sources)
	if err != nil {
		return nil, err
	}

	doc, rest := nodes[0], nodes[1:]
	for i := range p.steps {
		s := &p.steps[i]
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ok, err := p.shouldApply(ctx, s, doc, len(nodes))
		if err == nil && ok {
			err = p.apply(ctx, s, doc, rest)
		}
		if err != nil {
			p.metrics.RecordStep(p.name, s.Type, stepFailed)
			return nil, fmt.Errorf("step %d (%s): %w", s.index, s.DisplayName(), err)
		}
		if !ok {
			p.metrics.RecordStep(p.name, s.Type, stepSkipped)
			p.logger.WithContext(ctx).Debug("pipeline step skipped",
				observability.Int("step", s.index),
				observability.String("name", s.DisplayName()))
			continue
		}
		p.metrics.RecordStep(p.name, s.Type, stepApplied)
	}
	return doc, nil
}

// convertSources converts the sources to trees concurrently.
func convertSources(ctx context.Context, sources []any) ([]*tree.Node, error) {
	nodes := make([]*tree.Node, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := tree.FromAny(src)
			if err != nil {
				return fmt.Errorf("source %d: %w", i, err)
			}
			nodes[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (p *Pipeline) shouldApply(ctx context.Context, s *step, doc *tree.Node, sources int) (bool, error) {
	if s.when == nil {
		return true, nil
	}
	return evalCondition(ctx, s.when, tree.ToAny(doc), sources)
}

// apply runs one step against doc. Join and merge steps fold every further
// source into doc; the other steps work on doc, or on its Category member
// when set.
func (p *Pipeline) apply(ctx context.Context, s *step, doc *tree.Node, rest []*tree.Node) error {
	switch s.Type {
	case config.StepJoin:
		for _, src := range rest {
			var err error
			if s.Category != "" {
				_, err = p.engine.JoinData(ctx, s.Category, s.KeyField, doc, src)
			} else {
				_, err = p.engine.JoinArrayData(ctx, s.KeyField, doc, src)
			}
			if err != nil {
				return err
			}
		}
	case config.StepMerge:
		for _, src := range rest {
			if _, err := p.engine.DeepMerge(ctx, doc, src); err != nil {
				return err
			}
		}
	case config.StepPromote:
		_, err := p.engine.PromoteData(ctx, target(doc, s.Category), s.Key)
		return err
	case config.StepRemove:
		p.engine.RemoveData(ctx, target(doc, s.Category), s.Key)
	case config.StepDefaults:
		p.engine.AssignEmptyDefaults(ctx, target(doc, s.Category),
			s.ArrayFields, s.MappingFields, s.StringFields)
	case config.StepPrune:
		p.engine.PruneEmptyProperties(ctx, target(doc, s.Category))
	default:
		return fmt.Errorf("unknown step type %q", s.Type)
	}
	return nil
}

func target(doc *tree.Node, category string) *tree.Node {
	if category == "" {
		return doc
	}
	return doc.Get(category)
}

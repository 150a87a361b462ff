package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/vyrodovalexey/treejoin/internal/config"
	"github.com/vyrodovalexey/treejoin/internal/observability"
	"github.com/vyrodovalexey/treejoin/internal/tree"
)

// Runner runs the current pipeline and swaps it when the configuration
// changes. Runs in progress keep the pipeline they started with.
type Runner struct {
	current atomic.Pointer[Pipeline]
	opts    []Option
	logger  observability.Logger
}

// NewRunner builds the initial pipeline from cfg.
func NewRunner(cfg *config.PipelineConfig, opts ...Option) (*Runner, error) {
	p, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		opts:   opts,
		logger: buildOptions(opts).logger,
	}
	r.current.Store(p)
	return r, nil
}

// Pipeline returns the current pipeline.
func (r *Runner) Pipeline() *Pipeline {
	return r.current.Load()
}

// Run runs the current pipeline.
func (r *Runner) Run(ctx context.Context, sources ...any) (*tree.Node, error) {
	return r.current.Load().Run(ctx, sources...)
}

// Reload builds a pipeline from cfg and makes it current. On error the
// current pipeline is kept.
func (r *Runner) Reload(cfg *config.PipelineConfig) error {
	p, err := New(cfg, r.opts...)
	if err != nil {
		return err
	}
	r.current.Store(p)
	return nil
}

// OnConfigChange is a config.ConfigCallback that reloads the pipeline.
func (r *Runner) OnConfigChange(cfg *config.PipelineConfig) {
	if err := r.Reload(cfg); err != nil {
		r.logger.Error("pipeline reload failed",
			observability.String("pipeline", cfg.Metadata.Name),
			observability.Error(err))
		return
	}
	r.logger.Info("pipeline reloaded",
		observability.String("pipeline", cfg.Metadata.Name),
		observability.Int("steps", len(cfg.Spec.Steps)))
}

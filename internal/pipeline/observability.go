package pipeline

import (
	"context"

	"github.com/vyrodovalexey/treejoin/internal/config"
	"github.com/vyrodovalexey/treejoin/internal/observability"
)

// NewLoggerFromConfig creates the logger described by spec.logging, or a
// default logger when the section is absent.
func NewLoggerFromConfig(cfg *config.PipelineConfig) (observability.Logger, error) {
	logCfg := observability.DefaultLogConfig()
	if cfg.Spec.Logging != nil {
		logCfg = *cfg.Spec.Logging
	}
	return observability.NewLogger(logCfg)
}

// NewTracerFromConfig creates the tracer described by spec.tracing. Without
// the section tracing stays disabled. The service name defaults to the
// pipeline name.
func NewTracerFromConfig(ctx context.Context, cfg *config.PipelineConfig) (*observability.Tracer, error) {
	tracerCfg := observability.TracerConfig{
		ServiceName:  cfg.Metadata.Name,
		SamplingRate: 1.0,
	}

	if cfg.Spec.Tracing != nil {
		tracerCfg = *cfg.Spec.Tracing
		if tracerCfg.ServiceName == "" {
			tracerCfg.ServiceName = cfg.Metadata.Name
		}
	}

	return observability.NewTracer(ctx, tracerCfg)
}

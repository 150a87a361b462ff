// Package observability provides the logging and tracing used by the tree
// transform engine and the pipeline runner.
//
// # Logging
//
// The Logger interface provides structured logging over zap:
//
//	logger, err := observability.NewLogger(observability.LogConfig{Level: "debug"})
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	logger.Info("pipeline finished",
//	    observability.String("pipeline", name),
//	    observability.Int("sources", n),
//	)
//
// WithContext adds the pipeline run ID and the active trace and span IDs.
//
// # Tracing
//
// NewTracer installs an OpenTelemetry tracer provider, exporting over OTLP
// gRPC when an endpoint is configured:
//
//	tracer, err := observability.NewTracer(ctx, observability.TracerConfig{
//	    Enabled:      true,
//	    OTLPEndpoint: "localhost:4317",
//	    SamplingRate: 1,
//	})
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(ctx)
package observability

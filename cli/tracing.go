package cli

import (
	"context"
	"os"
	"time"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"
)

// initTracing sets up the OTLP exporter when OTEL_EXPORTER_OTLP_ENDPOINT
// is configured; otherwise the returned shutdown function is a no-op.
func initTracing(ctx context.Context) (tracing.TpShutdownFunc, error) {
	if len(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")) == 0 {
		return func(context.Context) error { return nil }, nil
	}

	env := os.Getenv("DEPLOYMENT_MODE")
	if env == "" {
		env = "prod"
	}

	tpShutdownFn, err := tracing.InitTracer(ctx,
		&tracing.TracerConfig{
			ServiceName: "edgepick",
			Environment: env,
		},
	)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		log := logger.FromContext(ctx)
		log.DebugContext(ctx, "shutting down trace provider")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return tpShutdownFn(shutdownCtx)
	}, nil
}

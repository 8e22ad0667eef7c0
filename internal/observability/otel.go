// Package observability wires OpenTelemetry trace export into genkit.
//
// genkit instruments model calls, tool dispatch, and flows on its own
// TracerProvider; this package registers an OTLP/HTTP exporter on that
// provider so spans reach whatever collector the deployment runs
// (otel-collector, Jaeger, a vendor agent listening on 4318).
//
// Export is off unless an endpoint is configured. Exporter construction
// failures degrade gracefully: the agent keeps working, spans are
// dropped, and a warning is logged.
package observability

import (
	"context"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/skein-ai/skein/internal/config"
	"github.com/skein-ai/skein/internal/log"
)

// noopShutdown is returned when tracing is disabled or unavailable.
func noopShutdown(context.Context) error { return nil }

// Setup registers an OTLP trace exporter on genkit's TracerProvider.
// The returned shutdown function flushes pending spans; call it on
// process exit. A disabled config returns a no-op shutdown.
func Setup(ctx context.Context, cfg config.OtelConfig, logger log.Logger) (func(context.Context) error, error) {
	if !cfg.Enabled() {
		logger.Debug("trace export disabled")
		return noopShutdown, nil
	}

	// genkit's TracerProvider reads service identity from the OTEL
	// environment at span creation time.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return noopShutdown, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("trace export enabled",
		"endpoint", cfg.Endpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return tracing.TracerProvider().Shutdown, nil
}

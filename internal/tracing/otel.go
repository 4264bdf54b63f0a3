package tracing

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	providerMu sync.Mutex
	provider   *sdktrace.TracerProvider
)

// errNoProvider is returned when a processor is registered before init
var errNoProvider = errors.New("tracer provider is not initialized")

// InitOpenTelemetry installs a process-wide tracer provider for the
// valiqor binary. Nothing is exported: spans stay in process unless a
// processor is attached with RegisterSpanProcessor. Later calls are no-ops.
func InitOpenTelemetry(serviceName, serviceVersion string) error {
	providerMu.Lock()
	defer providerMu.Unlock()

	if provider != nil {
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		// schema URL conflicts still yield a usable resource
		res = resource.NewSchemaless(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		)
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return nil
}

// RegisterSpanProcessor attaches sp to the installed provider
func RegisterSpanProcessor(sp sdktrace.SpanProcessor) error {
	providerMu.Lock()
	defer providerMu.Unlock()

	if provider == nil {
		return errNoProvider
	}
	provider.RegisterSpanProcessor(sp)
	return nil
}

// ShutdownOpenTelemetry flushes the provider and forgets it, so a later
// InitOpenTelemetry installs a fresh one.
func ShutdownOpenTelemetry(ctx context.Context) error {
	providerMu.Lock()
	tp := provider
	provider = nil
	providerMu.Unlock()

	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// StartSpan starts an internal span. The run, app and env carried by ctx
// are attached as attributes, and the span's trace id is stored in ctx
// unless one is already there.
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	tc := FromContext(ctx)
	if tc.RunID != "" {
		attrs = append(attrs, attribute.String("valiqor.run_id", tc.RunID))
	}
	if tc.App != "" {
		attrs = append(attrs, attribute.String("valiqor.app", tc.App))
	}
	if tc.Env != "" {
		attrs = append(attrs, attribute.String("valiqor.env", tc.Env))
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))

	if tc.TraceID == "" {
		if sc := span.SpanContext(); sc.IsValid() {
			ctx = WithTraceID(ctx, sc.TraceID().String())
		}
	}
	return ctx, span
}

// FailSpan records err on span and marks it failed. A nil err is a no-op.
func FailSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

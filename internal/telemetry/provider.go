package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const defaultOTLPEndpoint = "localhost:4317"

type TracerConfig struct {
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	// SampleRatio applies to root spans only; children follow their parent.
	SampleRatio float64
}

// InitTracerProvider exports spans over OTLP/gRPC and installs the W3C trace
// context propagator used by the Kafka carrier.
func InitTracerProvider(ctx context.Context, cfg TracerConfig) (func(context.Context) error, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOTLPEndpoint
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithSampler(newSampler(cfg.SampleRatio)),
		trace.WithResource(newResource(cfg.ServiceName, cfg.ServiceVersion)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

func newSampler(ratio float64) trace.Sampler {
	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}

// WithHTTPRoute tags the server span with the matched ServeMux pattern.
// otelhttp starts the span before routing, so it never sees r.Pattern.
func WithHTTPRoute(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Pattern != "" {
			span := oteltrace.SpanFromContext(r.Context())
			span.SetAttributes(semconv.HTTPRoute(r.Pattern))
		}
		h(w, r)
	}
}

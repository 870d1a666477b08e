package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitMeterProvider initializes the Prometheus exporter and MeterProvider.
// It returns an http.Handler for the /metrics endpoint and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

func newResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}

// CheckoutMetrics counts checkout attempts by outcome and records how long
// each one took.
type CheckoutMetrics struct {
	checkouts otelmetric.Int64Counter
	duration  otelmetric.Float64Histogram
}

func NewCheckoutMetrics(meter otelmetric.Meter) (*CheckoutMetrics, error) {
	checkouts, err := meter.Int64Counter("fulfillment.checkouts",
		otelmetric.WithDescription("Checkout attempts by outcome."),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("fulfillment.checkout.duration",
		otelmetric.WithDescription("Checkout latency."),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &CheckoutMetrics{checkouts: checkouts, duration: duration}, nil
}

func (m *CheckoutMetrics) Record(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	m.checkouts.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

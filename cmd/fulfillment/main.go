package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"

	"github.com/joao-fontenele/fulfillment/internal/config"
	"github.com/joao-fontenele/fulfillment/internal/inventory"
	"github.com/joao-fontenele/fulfillment/internal/messaging"
	"github.com/joao-fontenele/fulfillment/internal/orders"
	"github.com/joao-fontenele/fulfillment/internal/payment"
	"github.com/joao-fontenele/fulfillment/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, telemetry.TracerConfig{
			Endpoint:       cfg.OTLPEndpoint,
			ServiceName:    config.ServiceName,
			ServiceVersion: config.ServiceVersion,
			SampleRatio:    cfg.TraceSampling,
		})
		if err != nil {
			logger.Error("failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(ctx) }()
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(config.ServiceName, config.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

	checkoutMetrics, err := telemetry.NewCheckoutMetrics(otel.Meter("orders"))
	if err != nil {
		logger.Error("failed to create checkout metrics", "error", err)
		os.Exit(1)
	}

	opts := []orders.Option{
		orders.WithLogger(logger),
		orders.WithMetrics(checkoutMetrics),
		orders.WithTaxPolicy(orders.FlatRate{BasisPoints: cfg.TaxRateBPS}),
	}

	if len(cfg.KafkaBrokers) > 0 {
		acks, err := messaging.ParseRequiredAcks(cfg.KafkaAcks)
		if err != nil {
			logger.Error("invalid kafka acks", "error", err)
			os.Exit(1)
		}
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, messaging.WithRequiredAcks(acks))
		defer func() { _ = producer.Close() }()
		opts = append(opts, orders.WithPublisher(producer))
	}

	directory, warehouses, err := seed()
	if err != nil {
		logger.Error("failed to seed catalog", "error", err)
		os.Exit(1)
	}

	service, err := orders.NewService(directory, warehouses, opts...)
	if err != nil {
		logger.Error("failed to create order service", "error", err)
		os.Exit(1)
	}

	orderHandler := orders.NewHandler(service, payment.Static(cfg.PaymentApprove), logger)
	stockHandler := inventory.NewHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /warehouses", telemetry.WithHTTPRoute(orderHandler.HandleAddWarehouse))
	mux.HandleFunc("DELETE /warehouses/{id}", telemetry.WithHTTPRoute(orderHandler.HandleRemoveWarehouse))
	mux.HandleFunc("GET /warehouses/{id}/stock", telemetry.WithHTTPRoute(stockHandler.HandleListStock))
	mux.HandleFunc("GET /warehouses/{id}/stock/{categoryId}", telemetry.WithHTTPRoute(stockHandler.HandleGetStock))
	mux.HandleFunc("GET /users/{id}/cart", telemetry.WithHTTPRoute(orderHandler.HandleGetCart))
	mux.HandleFunc("POST /users/{id}/cart", telemetry.WithHTTPRoute(orderHandler.HandleAddToCart))
	mux.HandleFunc("GET /users/{id}/orders", telemetry.WithHTTPRoute(orderHandler.HandleListUserOrders))
	mux.HandleFunc("POST /users/{id}/orders", telemetry.WithHTTPRoute(orderHandler.HandlePlaceOrder))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(orderHandler.HandleGetOrder))
	mux.HandleFunc("POST /orders/{id}/checkout", telemetry.WithHTTPRoute(orderHandler.HandleCheckout))
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, config.ServiceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting fulfillment service", "port", cfg.Port, "warehouses", len(warehouses))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/fulfillment/internal/config"
	"github.com/joao-fontenele/fulfillment/internal/messaging"
	"github.com/joao-fontenele/fulfillment/internal/notify"
	"github.com/joao-fontenele/fulfillment/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if len(cfg.KafkaBrokers) == 0 {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, telemetry.TracerConfig{
			Endpoint:       cfg.OTLPEndpoint,
			ServiceName:    "notifier",
			ServiceVersion: config.ServiceVersion,
			SampleRatio:    cfg.TraceSampling,
		})
		if err != nil {
			logger.Error("failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID,
		messaging.WithConsumerLogger(logger),
		messaging.WithSkip(func(err error) bool { return errors.Is(err, notify.ErrMalformedEvent) }),
	)
	defer func() { _ = consumer.Close() }()

	handler := notify.NewHandler(notify.LogSink{Logger: logger}, logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting notifier", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}

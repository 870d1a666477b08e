package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	ServiceName    = "fulfillment"
	ServiceVersion = "0.1.0"
)

type Config struct {
	Port           string
	TaxRateBPS     int64
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaGroupID   string
	KafkaAcks      string
	PaymentApprove bool
	OTLPEndpoint   string
	TracingEnabled bool
	TraceSampling  float64
}

// Load reads the configuration from the environment. Unset variables fall
// back to their defaults; malformed ones are an error.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getenv("PORT", "8080"),
		KafkaTopic:   getenv("KAFKA_TOPIC", "order.lifecycle"),
		KafkaGroupID: getenv("KAFKA_GROUP_ID", "fulfillment-notifier"),
		KafkaAcks:    getenv("KAFKA_REQUIRED_ACKS", "all"),
		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	switch cfg.KafkaAcks {
	case "all", "one", "none":
	default:
		return nil, fmt.Errorf("KAFKA_REQUIRED_ACKS must be all, one or none, got %q", cfg.KafkaAcks)
	}

	bps, err := strconv.ParseInt(getenv("TAX_RATE_BPS", "500"), 10, 64)
	if err != nil || bps < 0 {
		return nil, fmt.Errorf("TAX_RATE_BPS must be a non-negative integer, got %q", os.Getenv("TAX_RATE_BPS"))
	}
	cfg.TaxRateBPS = bps

	if cfg.PaymentApprove, err = strconv.ParseBool(getenv("PAYMENT_APPROVE", "true")); err != nil {
		return nil, fmt.Errorf("PAYMENT_APPROVE: %w", err)
	}

	if cfg.TracingEnabled, err = strconv.ParseBool(getenv("TRACING_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("TRACING_ENABLED: %w", err)
	}

	ratio, err := strconv.ParseFloat(getenv("TRACE_SAMPLE_RATIO", "1"), 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("TRACE_SAMPLE_RATIO must be between 0 and 1, got %q", os.Getenv("TRACE_SAMPLE_RATIO"))
	}
	cfg.TraceSampling = ratio

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

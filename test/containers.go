package test

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type KafkaSetup struct {
	Brokers []string
	cleanup func()
}

func (k *KafkaSetup) Cleanup() {
	k.cleanup()
}

// SetupKafka starts a single-node broker and creates topics up front so
// consumer groups never race auto-creation.
func SetupKafka(ctx context.Context, t *testing.T, topics ...string) *KafkaSetup {
	t.Helper()

	container, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.8.0",
		kafka.WithClusterID("test-cluster"),
	)
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	brokers, err := container.Brokers(ctx)
	if err != nil {
		cleanup()
		t.Fatalf("failed to get kafka brokers: %v", err)
	}

	if err := createTopics(ctx, brokers[0], topics...); err != nil {
		cleanup()
		t.Fatalf("failed to create topics: %v", err)
	}

	return &KafkaSetup{Brokers: brokers, cleanup: cleanup}
}

func createTopics(ctx context.Context, broker string, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}

	conn, err := segkafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("dial %s: %w", broker, err)
	}
	defer func() { _ = conn.Close() }()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}

	controllerConn, err := segkafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer func() { _ = controllerConn.Close() }()

	configs := make([]segkafka.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, segkafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}
	return controllerConn.CreateTopics(configs...)
}

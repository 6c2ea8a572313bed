package testutil

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaAddrEnv names the variable holding the broker used by integration tests
const KafkaAddrEnv = "TICKBOOK_TEST_KAFKA"

// KafkaAddr returns the integration test broker address
func KafkaAddr() string {
	if addr := os.Getenv(KafkaAddrEnv); addr != "" {
		return addr
	}
	return "localhost:9092"
}

// SkipIfKafkaUnavailable skips the test if Kafka is unavailable on the specified address
func SkipIfKafkaUnavailable(t *testing.T, kafkaAddr string) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping Kafka test in short mode")
	}

	conn, err := net.DialTimeout("tcp", kafkaAddr, 2*time.Second)
	if err != nil {
		t.Skipf("Skipping test: Kafka not available at %s - %v", kafkaAddr, err)
		return
	}
	_ = conn.Close()

	// A TCP listener is not enough, the broker must answer metadata requests
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	kconn, err := kafka.DialContext(ctx, "tcp", kafkaAddr)
	if err != nil {
		t.Skipf("Skipping test: Kafka at %s is not responding - %v", kafkaAddr, err)
		return
	}
	defer kconn.Close()

	if _, err := kconn.Brokers(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Skipf("Skipping test: Kafka at %s is not responding correctly - %v", kafkaAddr, err)
	}
}

// CreateTopic creates topic with a single partition, ignoring an existing one
func CreateTopic(t *testing.T, kafkaAddr, topic string) {
	t.Helper()

	conn, err := kafka.Dial("tcp", kafkaAddr)
	if err != nil {
		t.Fatalf("failed to dial Kafka: %v", err)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		t.Fatalf("failed to create topic %s: %v", topic, err)
	}
}

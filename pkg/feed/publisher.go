package feed

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"
)

// Publisher writes records to a Kafka topic, keyed by trader so one trader's
// records stay in order on one partition
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewPublisher connects a synchronous producer to brokers
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewPublisherWithProducer(producer, topic), nil
}

// NewPublisherWithProducer wraps an existing producer
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) message(rec Record) (*sarama.ProducerMessage, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(rec.Trader), 10)),
		Value: sarama.ByteEncoder(data),
	}, nil
}

// Publish sends one record
func (p *Publisher) Publish(rec Record) error {
	msg, err := p.message(rec)
	if err != nil {
		return err
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}
	return nil
}

// PublishAll sends records in batches of batchSize
func (p *Publisher) PublishAll(records []Record, batchSize int) error {
	if batchSize < 1 {
		batchSize = 1
	}
	batch := make([]*sarama.ProducerMessage, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.producer.SendMessages(batch); err != nil {
			return fmt.Errorf("failed to send messages to Kafka: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, rec := range records {
		msg, err := p.message(rec)
		if err != nil {
			return err
		}
		batch = append(batch, msg)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// Close closes the producer
func (p *Publisher) Close() error {
	return p.producer.Close()
}

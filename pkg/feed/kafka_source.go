package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	tomb "gopkg.in/tomb.v2"
)

// MessageReader is the part of *kafka.Reader the source consumes
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConfig configures a KafkaSource
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// KafkaSource consumes JSON encoded records from a Kafka topic and delivers
// them on a channel in partition order
type KafkaSource struct {
	reader  MessageReader
	records chan Record
	logger  zerolog.Logger
	t       *tomb.Tomb
	skipped int
}

// NewKafkaSource creates a source reading cfg.Topic
func NewKafkaSource(cfg KafkaConfig, logger zerolog.Logger) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  250 * time.Millisecond,
	})
	return NewKafkaSourceWithReader(reader, logger)
}

// NewKafkaSourceWithReader creates a source over an existing reader
func NewKafkaSourceWithReader(reader MessageReader, logger zerolog.Logger) *KafkaSource {
	return &KafkaSource{
		reader:  reader,
		records: make(chan Record, 1024),
		logger:  logger.With().Str("component", "kafka_source").Logger(),
	}
}

// Start launches the consumer goroutine. The returned channel is closed when
// the source stops, whether through Stop, ctx or a read error.
func (s *KafkaSource) Start(ctx context.Context) <-chan Record {
	t, ctx := tomb.WithContext(ctx)
	s.t = t
	t.Go(func() error {
		defer close(s.records)
		return s.consume(ctx)
	})
	return s.records
}

func (s *KafkaSource) consume(ctx context.Context) error {
	s.logger.Info().Msg("Starting Kafka consumer")
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		var rec Record
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			s.skipped++
			s.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("Skipping malformed record")
			continue
		}

		select {
		case s.records <- rec:
		case <-ctx.Done():
			return nil
		}
	}
}

// Skipped returns how many messages could not be decoded. Call after the
// record channel is closed.
func (s *KafkaSource) Skipped() int {
	return s.skipped
}

// Stop stops the consumer, waits for it and closes the reader. It returns
// the error that ended consumption, if any.
func (s *KafkaSource) Stop() error {
	var err error
	if s.t != nil {
		s.t.Kill(nil)
		err = s.t.Wait()
	}
	if cerr := s.reader.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("failed to close reader: %w", cerr))
	}
	return err
}

// Drain collects up to max records (all when max is 0) from ch and
// translates them. It stops early when ch closes, ctx ends or no record
// arrives within idle (never when idle is 0).
func Drain(ctx context.Context, ch <-chan Record, translator *Translator, max int, idle time.Duration) ([]Action, error) {
	var actions []Action
	var timer *time.Timer
	var timeout <-chan time.Time
	if idle > 0 {
		timer = time.NewTimer(idle)
		defer timer.Stop()
		timeout = timer.C
	}

	for max == 0 || len(actions) < max {
		select {
		case rec, ok := <-ch:
			if !ok {
				return actions, nil
			}
			a, err := translator.Translate(rec)
			if err != nil {
				return actions, fmt.Errorf("record %d: %w", len(actions), err)
			}
			actions = append(actions, a)
			if timer != nil {
				timer.Reset(idle)
			}
		case <-timeout:
			return actions, nil
		case <-ctx.Done():
			return actions, ctx.Err()
		}
	}
	return actions, nil
}

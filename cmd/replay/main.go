// Command replay loads an order log and replays it through an order book,
// printing throughput and latency.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erain9/tickbook/config"
	"github.com/erain9/tickbook/pkg/feed"
	"github.com/erain9/tickbook/pkg/logging"
	"github.com/erain9/tickbook/pkg/marketmaker"
	"github.com/erain9/tickbook/pkg/otel"
	"github.com/erain9/tickbook/pkg/replay"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Format == "pretty",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Replay failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// Initialize OpenTelemetry
	cleanup, err := otel.Init(otel.Config{
		ServiceName:      cfg.Telemetry.ServiceName,
		Endpoint:         cfg.Telemetry.Endpoint,
		CollectorEnabled: cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer cleanup()

	opts := replay.Options{
		BookKind:   cfg.Book.Kind,
		Iterations: cfg.Replay.Iterations,
		Rate:       cfg.Replay.Rate,
		Burst:      cfg.Replay.Burst,
		TrackIDs:   cfg.Replay.TrackIDs,
		Logger:     &logger,
	}
	if cfg.Telemetry.Enabled {
		if err := otel.StartRuntimeMetrics(0); err != nil {
			logger.Warn().Err(err).Msg("Failed to start runtime metrics")
		}
		metrics, err := otel.GetMatchingMetrics()
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		opts.Recorder = metrics
	}

	actions, err := loadActions(ctx, cfg, logger)
	if err != nil {
		return err
	}

	factory, err := replay.NewBook(cfg.Book.Kind, cfg.Book.MaxPrice)
	if err != nil {
		return err
	}

	report, err := replay.New(factory, opts).Run(ctx, actions)
	if err != nil {
		return err
	}
	return report.Print(os.Stdout)
}

func loadActions(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (actions []feed.Action, err error) {
	ctx, span := otel.StartSpan(ctx, otel.SpanLoadFeed, attribute.String(otel.AttributeFeedSource, cfg.Feed.Source))
	done := logging.Stage(ctx, "load_feed")
	defer func() {
		done(err)
		otel.EndSpan(span, err)
	}()

	switch cfg.Feed.Source {
	case config.SourceKafka:
		return drainKafka(ctx, cfg, logger)
	case config.SourceSynthetic:
		records, err := generate(cfg)
		if err != nil {
			return nil, err
		}
		translator, err := feed.NewTranslator(cfg.Feed.TickSize)
		if err != nil {
			return nil, err
		}
		return translator.TranslateAll(records)
	default:
		return feed.LoadFile(cfg.Feed.Path, feed.CSVOptions{
			Header:   cfg.Feed.Header,
			TickSize: cfg.Feed.TickSize,
		})
	}
}

func drainKafka(ctx context.Context, cfg *config.Config, logger zerolog.Logger) ([]feed.Action, error) {
	kc := cfg.Feed.Kafka
	translator, err := feed.NewTranslator(cfg.Feed.TickSize)
	if err != nil {
		return nil, err
	}

	src := feed.NewKafkaSource(feed.KafkaConfig{
		Brokers: kc.Brokers,
		Topic:   kc.Topic,
		GroupID: kc.GroupID,
	}, logger)
	records := src.Start(ctx)

	actions, err := feed.Drain(ctx, records, translator, kc.MaxRecords, kc.IdleTimeout)
	if stopErr := src.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	if skipped := src.Skipped(); skipped > 0 {
		logger.Warn().Int("skipped", skipped).Msg("Skipped malformed Kafka records")
	}
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("topic", kc.Topic).
		Int("actions", len(actions)).
		Msg("Drained Kafka feed")
	return actions, nil
}

func generate(cfg *config.Config) ([]feed.Record, error) {
	gen, err := marketmaker.NewGenerator(marketmaker.ConfigFrom(cfg.Feed.Synthetic, cfg.Feed.TickSize))
	if err != nil {
		return nil, err
	}
	return gen.Generate(cfg.Feed.Synthetic.Records), nil
}

// Command feedpush publishes a CSV order log, or a generated one with
// feed.source=synthetic, to the Kafka topic the replay binary consumes with
// feed.source=kafka.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/erain9/tickbook/config"
	"github.com/erain9/tickbook/pkg/feed"
	"github.com/erain9/tickbook/pkg/logging"
	"github.com/erain9/tickbook/pkg/marketmaker"
	"github.com/erain9/tickbook/pkg/otel"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

var batchSize = flag.Int("batch", 500, "Records per Kafka produce request")

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Format == "pretty",
	})

	cleanup, err := otel.Init(otel.Config{
		ServiceName:      cfg.Telemetry.ServiceName,
		Endpoint:         cfg.Telemetry.Endpoint,
		CollectorEnabled: cfg.Telemetry.Enabled,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize OpenTelemetry")
	}
	defer cleanup()

	records, err := loadRecords(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("source", cfg.Feed.Source).Msg("Failed to load order log")
	}

	pub, err := feed.NewPublisher(cfg.Feed.Kafka.Brokers, cfg.Feed.Kafka.Topic)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Kafka")
	}
	defer pub.Close()

	ctx := logger.WithContext(context.Background())
	_, span := otel.StartSpan(ctx, otel.SpanPublishFeed, attribute.Int(otel.AttributeActions, len(records)))
	done := logging.Stage(ctx, "publish_feed")
	err = pub.PublishAll(records, *batchSize)
	done(err)
	otel.EndSpan(span, err)
	if err != nil {
		pub.Close()
		cleanup()
		logger.Fatal().Err(err).Msg("Failed to publish order log")
	}

	logger.Info().
		Int("records", len(records)).
		Str("topic", cfg.Feed.Kafka.Topic).
		Msg("Published order log")
}

func loadRecords(cfg *config.Config) ([]feed.Record, error) {
	switch cfg.Feed.Source {
	case config.SourceSynthetic:
		gen, err := marketmaker.NewGenerator(marketmaker.ConfigFrom(cfg.Feed.Synthetic, cfg.Feed.TickSize))
		if err != nil {
			return nil, err
		}
		return gen.Generate(cfg.Feed.Synthetic.Records), nil
	case config.SourceCSV:
		return feed.LoadRecords(cfg.Feed.Path, cfg.Feed.Header)
	default:
		return nil, fmt.Errorf("cannot publish from feed source %q", cfg.Feed.Source)
	}
}

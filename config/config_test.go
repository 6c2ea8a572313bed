package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsNeedFeedPath(t *testing.T) {
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
book:
  kind: dense
  max_price: 1000
feed:
  source: kafka
  tick_size: "0.01"
  kafka:
    brokers: [broker-1:9092, broker-2:9092]
    topic: orders
    max_records: 500
    idle_timeout: 2s
replay:
  iterations: 3
  rate: 1000
  burst: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, BookDense, cfg.Book.Kind)
	assert.Equal(t, uint32(1000), cfg.Book.MaxPrice)
	assert.Equal(t, SourceKafka, cfg.Feed.Source)
	assert.Equal(t, "0.01", cfg.Feed.TickSize)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Feed.Kafka.Brokers)
	assert.Equal(t, "orders", cfg.Feed.Kafka.Topic)
	assert.Equal(t, "tickbook-replay", cfg.Feed.Kafka.GroupID)
	assert.Equal(t, 500, cfg.Feed.Kafka.MaxRecords)
	assert.Equal(t, 2*time.Second, cfg.Feed.Kafka.IdleTimeout)
	assert.Equal(t, 3, cfg.Replay.Iterations)
	assert.Equal(t, 1000.0, cfg.Replay.Rate)
	assert.True(t, cfg.Replay.TrackIDs)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
book:
  kind: vec
feed:
  path: orders.csv
`)
	t.Setenv("TICKBOOK_BOOK_KIND", "level")
	t.Setenv("TICKBOOK_KAFKA_BROKERS", "a:1, b:2")
	t.Setenv("TICKBOOK_REPLAY_ITERATIONS", "7")
	t.Setenv("TICKBOOK_TELEMETRY_ENABLED", "true")
	t.Setenv("TICKBOOK_SYNTHETIC_SEED", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BookLevel, cfg.Book.Kind)
	assert.Equal(t, "orders.csv", cfg.Feed.Path)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Feed.Kafka.Brokers)
	assert.Equal(t, 7, cfg.Replay.Iterations)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, uint64(42), cfg.Feed.Synthetic.Seed)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "book: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Feed.Path = "orders.csv"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown book", func(c *Config) { c.Book.Kind = "heap" }},
		{"dense without range", func(c *Config) { c.Book.Kind = BookDense; c.Book.MaxPrice = 0 }},
		{"unknown source", func(c *Config) { c.Feed.Source = "http" }},
		{"kafka without topic", func(c *Config) { c.Feed.Source = SourceKafka; c.Feed.Kafka.Topic = "" }},
		{"negative max records", func(c *Config) { c.Feed.Source = SourceKafka; c.Feed.Kafka.MaxRecords = -1 }},
		{"synthetic without records", func(c *Config) { c.Feed.Source = SourceSynthetic; c.Feed.Synthetic.Records = 0 }},
		{"empty tick size", func(c *Config) { c.Feed.TickSize = "" }},
		{"zero iterations", func(c *Config) { c.Replay.Iterations = 0 }},
		{"negative rate", func(c *Config) { c.Replay.Rate = -1 }},
		{"paced without burst", func(c *Config) { c.Replay.Rate = 10; c.Replay.Burst = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration value is out of range
var ErrInvalidConfig = errors.New("invalid configuration")

// Book kinds
const (
	BookVec   = "vec"
	BookDense = "dense"
	BookLevel = "level"
)

// Feed sources
const (
	SourceCSV       = "csv"
	SourceKafka     = "kafka"
	SourceSynthetic = "synthetic"
)

// EnvPrefix prefixes every environment override, e.g. TICKBOOK_BOOK_KIND
const EnvPrefix = "TICKBOOK"

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or pretty
}

// BookConfig selects the order book implementation
type BookConfig struct {
	Kind     string `yaml:"kind"`
	MaxPrice uint32 `yaml:"max_price"` // dense book only
}

// KafkaConfig configures the Kafka feed
type KafkaConfig struct {
	Brokers     []string      `yaml:"brokers"`
	Topic       string        `yaml:"topic"`
	GroupID     string        `yaml:"group_id"`
	MaxRecords  int           `yaml:"max_records"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// SyntheticConfig configures the generated market maker feed. Prices are
// in ticks.
type SyntheticConfig struct {
	Records    int     `yaml:"records"`
	Seed       uint64  `yaml:"seed"`
	Mid        uint32  `yaml:"mid"`
	Levels     int     `yaml:"levels"`
	HalfSpread uint32  `yaml:"half_spread"`
	Step       uint32  `yaml:"step"`
	OrderSize  uint32  `yaml:"order_size"`
	Volatility uint32  `yaml:"volatility"`
	TakerRate  float64 `yaml:"taker_rate"`
}

// FeedConfig configures where order records come from
type FeedConfig struct {
	Source    string          `yaml:"source"`
	Path      string          `yaml:"path"`
	Header    bool            `yaml:"header"`
	TickSize  string          `yaml:"tick_size"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Synthetic SyntheticConfig `yaml:"synthetic"`
}

// ReplayConfig configures the replay harness
type ReplayConfig struct {
	Iterations int     `yaml:"iterations"`
	Rate       float64 `yaml:"rate"` // actions per second, 0 for unpaced
	Burst      int     `yaml:"burst"`
	TrackIDs   bool    `yaml:"track_ids"`
}

// TelemetryConfig configures OpenTelemetry export
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Config represents the application configuration
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Book      BookConfig      `yaml:"book"`
	Feed      FeedConfig      `yaml:"feed"`
	Replay    ReplayConfig    `yaml:"replay"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Default returns the built in configuration
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "pretty"},
		Book: BookConfig{
			Kind:     BookVec,
			MaxPrice: 65535,
		},
		Feed: FeedConfig{
			Source:   SourceCSV,
			Header:   true,
			TickSize: "1",
			Kafka: KafkaConfig{
				Brokers:     []string{"localhost:9092"},
				Topic:       "tickbook-orders",
				GroupID:     "tickbook-replay",
				IdleTimeout: 5 * time.Second,
			},
			Synthetic: SyntheticConfig{
				Records:    100000,
				Seed:       1,
				Mid:        10000,
				Levels:     3,
				HalfSpread: 5,
				Step:       5,
				OrderSize:  100,
				Volatility: 3,
				TakerRate:  0.5,
			},
		},
		Replay: ReplayConfig{
			Iterations: 1,
			Burst:      1,
			TrackIDs:   true,
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4317",
			ServiceName: "tickbook",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// TICKBOOK_* environment variables, in increasing precedence
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		yamlFile, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)

	v.SetDefault("LOG_LEVEL", cfg.Log.Level)
	v.SetDefault("LOG_FORMAT", cfg.Log.Format)
	v.SetDefault("BOOK_KIND", cfg.Book.Kind)
	v.SetDefault("BOOK_MAX_PRICE", cfg.Book.MaxPrice)
	v.SetDefault("FEED_SOURCE", cfg.Feed.Source)
	v.SetDefault("FEED_PATH", cfg.Feed.Path)
	v.SetDefault("FEED_HEADER", cfg.Feed.Header)
	v.SetDefault("FEED_TICK_SIZE", cfg.Feed.TickSize)
	v.SetDefault("KAFKA_BROKERS", strings.Join(cfg.Feed.Kafka.Brokers, ","))
	v.SetDefault("KAFKA_TOPIC", cfg.Feed.Kafka.Topic)
	v.SetDefault("KAFKA_GROUP_ID", cfg.Feed.Kafka.GroupID)
	v.SetDefault("KAFKA_MAX_RECORDS", cfg.Feed.Kafka.MaxRecords)
	v.SetDefault("KAFKA_IDLE_TIMEOUT", cfg.Feed.Kafka.IdleTimeout)
	v.SetDefault("SYNTHETIC_RECORDS", cfg.Feed.Synthetic.Records)
	v.SetDefault("SYNTHETIC_SEED", cfg.Feed.Synthetic.Seed)
	v.SetDefault("REPLAY_ITERATIONS", cfg.Replay.Iterations)
	v.SetDefault("REPLAY_RATE", cfg.Replay.Rate)
	v.SetDefault("REPLAY_BURST", cfg.Replay.Burst)
	v.SetDefault("REPLAY_TRACK_IDS", cfg.Replay.TrackIDs)
	v.SetDefault("TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	v.SetDefault("TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	v.SetDefault("TELEMETRY_SERVICE_NAME", cfg.Telemetry.ServiceName)

	// Allow environment variables
	v.AutomaticEnv()

	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Format = v.GetString("LOG_FORMAT")
	cfg.Book.Kind = v.GetString("BOOK_KIND")
	cfg.Book.MaxPrice = v.GetUint32("BOOK_MAX_PRICE")
	cfg.Feed.Source = v.GetString("FEED_SOURCE")
	cfg.Feed.Path = v.GetString("FEED_PATH")
	cfg.Feed.Header = v.GetBool("FEED_HEADER")
	cfg.Feed.TickSize = v.GetString("FEED_TICK_SIZE")
	cfg.Feed.Kafka.Brokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.Feed.Kafka.Topic = v.GetString("KAFKA_TOPIC")
	cfg.Feed.Kafka.GroupID = v.GetString("KAFKA_GROUP_ID")
	cfg.Feed.Kafka.MaxRecords = v.GetInt("KAFKA_MAX_RECORDS")
	cfg.Feed.Kafka.IdleTimeout = v.GetDuration("KAFKA_IDLE_TIMEOUT")
	cfg.Feed.Synthetic.Records = v.GetInt("SYNTHETIC_RECORDS")
	cfg.Feed.Synthetic.Seed = v.GetUint64("SYNTHETIC_SEED")
	cfg.Replay.Iterations = v.GetInt("REPLAY_ITERATIONS")
	cfg.Replay.Rate = v.GetFloat64("REPLAY_RATE")
	cfg.Replay.Burst = v.GetInt("REPLAY_BURST")
	cfg.Replay.TrackIDs = v.GetBool("REPLAY_TRACK_IDS")
	cfg.Telemetry.Enabled = v.GetBool("TELEMETRY_ENABLED")
	cfg.Telemetry.Endpoint = v.GetString("TELEMETRY_ENDPOINT")
	cfg.Telemetry.ServiceName = v.GetString("TELEMETRY_SERVICE_NAME")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration for values the binaries cannot run with
func (c *Config) Validate() error {
	switch c.Book.Kind {
	case BookVec, BookLevel:
	case BookDense:
		if c.Book.MaxPrice == 0 {
			return fmt.Errorf("%w: book.max_price must be positive for the dense book", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown book kind %q", ErrInvalidConfig, c.Book.Kind)
	}

	switch c.Feed.Source {
	case SourceCSV:
		if c.Feed.Path == "" {
			return fmt.Errorf("%w: feed.path is required for the csv source", ErrInvalidConfig)
		}
	case SourceKafka:
		if len(c.Feed.Kafka.Brokers) == 0 || c.Feed.Kafka.Topic == "" {
			return fmt.Errorf("%w: kafka brokers and topic are required", ErrInvalidConfig)
		}
		if c.Feed.Kafka.MaxRecords < 0 {
			return fmt.Errorf("%w: kafka.max_records must not be negative", ErrInvalidConfig)
		}
	case SourceSynthetic:
		if c.Feed.Synthetic.Records < 1 {
			return fmt.Errorf("%w: synthetic.records must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown feed source %q", ErrInvalidConfig, c.Feed.Source)
	}

	if c.Feed.TickSize == "" {
		return fmt.Errorf("%w: feed.tick_size is required", ErrInvalidConfig)
	}
	if c.Replay.Iterations < 1 {
		return fmt.Errorf("%w: replay.iterations must be at least 1", ErrInvalidConfig)
	}
	if c.Replay.Rate < 0 {
		return fmt.Errorf("%w: replay.rate must not be negative", ErrInvalidConfig)
	}
	if c.Replay.Rate > 0 && c.Replay.Burst < 1 {
		return fmt.Errorf("%w: replay.burst must be at least 1 when paced", ErrInvalidConfig)
	}
	return nil
}

// Command line flags
var (
	configFile = flag.String("config", "", "Path to config file (YAML)")
	logLevel   = flag.String("log_level", "", "Log level: debug, info, warn, error")
	logFormat  = flag.String("log_format", "", "Log format: json, pretty")
	bookKind   = flag.String("book", "", "Book implementation: vec, dense, level")
	feedPath   = flag.String("feed", "", "Path to a CSV order log")
	iterations = flag.Int("iterations", 0, "Number of replay iterations")
)

// LoadConfig parses the command line and loads the configuration. Flags set
// on the command line win over the file and the environment.
func LoadConfig() (*Config, error) {
	flag.Parse()

	cfg, err := load(*configFile)
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log_level":
			cfg.Log.Level = *logLevel
		case "log_format":
			cfg.Log.Format = *logFormat
		case "book":
			cfg.Book.Kind = *bookKind
		case "feed":
			cfg.Feed.Source = SourceCSV
			cfg.Feed.Path = *feedPath
		case "iterations":
			cfg.Replay.Iterations = *iterations
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	// RunIDKey is the key used to store the replay run id in context
	RunIDKey contextKey = "run_id"
)

// Config defines logging configuration
type Config struct {
	// Level is the logging level (trace, debug, info, warn, error)
	Level string
	// Pretty switches to the human readable console writer
	Pretty bool
	// Output is where logs are written (defaults to os.Stderr)
	Output io.Writer
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Output: os.Stderr,
	}
}

// Setup configures the global logger and level, and returns the logger
func Setup(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return log.Logger
}

// WithRunID stores a run id in the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// FromContext returns the context logger, tagged with the run id when present
func FromContext(ctx context.Context) zerolog.Logger {
	logger := *zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = log.Logger
	}
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return logger.With().Str("run_id", runID).Logger()
	}
	return logger
}

// Stage logs the start of a named step and returns a func that logs its
// completion with the elapsed time, at error level when err is non-nil
func Stage(ctx context.Context, name string) func(err error) {
	logger := FromContext(ctx).With().Str("stage", name).Logger()
	start := time.Now()
	logger.Debug().Msg("Stage started")

	return func(err error) {
		event := logger.Info()
		if err != nil {
			event = logger.Error().Err(err)
		}
		event.Dur("duration", time.Since(start)).Msg("Stage completed")
	}
}

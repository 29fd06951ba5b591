package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"sync/atomic"

	"github.com/caarlos0/env/v11"
)

// Type alias for slog.Level for easier usage
type Level = slog.Level

const (
	LevelTrace   = slog.Level(-8)
	LevelDebug   = slog.LevelDebug // -4
	LevelInfo    = slog.LevelInfo  // 0
	LevelWarning = slog.LevelWarn  // 4
	LevelError   = slog.LevelError // 8
	LevelFatal   = slog.Level(12)  // 12
)

// Config is read from the environment by LoadConfig
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"INFO"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json or text
	// SampleRate logs 1 out of every N errors/warnings. 1 logs everything.
	SampleRate int `env:"ERROR_SAMPLE_RATE" envDefault:"1"`
}

// DefaultConfig returns the configuration used when the environment is unusable
func DefaultConfig() Config {
	return Config{
		Level:      "INFO",
		Format:     "json",
		SampleRate: 1,
	}
}

var (
	Logger          *slog.Logger
	errorSampleRate atomic.Int32
	programLevel    = new(slog.LevelVar)
)

// Counters are incremented regardless of sampling
var (
	TotalErrors         atomic.Int64
	TotalWarnings       atomic.Int64
	TotalValidations    atomic.Int64
	TotalRuleFaults     atomic.Int64
	TotalBlockingErrors atomic.Int64
	TotalRuleWarnings   atomic.Int64
)

func init() {
	cfg, err := LoadConfig()
	if err != nil {
		cfg = DefaultConfig()
	}
	if err := Configure(cfg, os.Stdout); err != nil {
		_ = Configure(DefaultConfig(), os.Stdout)
	}
}

// LoadConfig parses the logger configuration from environment variables
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse logger config: %w", err)
	}
	return cfg, nil
}

// Configure replaces the package logger, writing to w
func Configure(cfg Config, w io.Writer) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{
		Level: programLevel,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format: %s (use json or text)", cfg.Format)
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1
	}

	programLevel.Set(level)
	errorSampleRate.Store(int32(rate))
	Logger = slog.New(handler)
	return nil
}

// SetLevel sets the minimum log level for the logger
func SetLevel(level slog.Level) {
	programLevel.Set(level)
}

// GetLevel returns the current minimum log level
func GetLevel() slog.Level {
	return programLevel.Level()
}

// ParseLevel converts a string level name to slog.Level
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToUpper(levelStr) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s (defaulting to INFO)", levelStr)
	}
}

// shouldSample returns true if we should log this message
func shouldSample() bool {
	rate := errorSampleRate.Load()
	if rate <= 1 {
		return true
	}
	return rand.Intn(int(rate)) == 0
}

// ============================================================================
// Logging Functions
// ============================================================================

// Trace logs a trace-level message (never sampled)
func Trace(msg string, args ...any) {
	Logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Debug logs a debug-level message (never sampled)
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info-level message (never sampled)
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning-level message WITH SAMPLING.
// The counter is always incremented, the log output is sampled.
func Warn(msg string, args ...any) {
	TotalWarnings.Add(1)
	if shouldSample() {
		Logger.Warn(msg, args...)
	}
}

// Error logs an error-level message WITH SAMPLING.
// The counter is always incremented, the log output is sampled.
func Error(msg string, args ...any) {
	TotalErrors.Add(1)
	if shouldSample() {
		Logger.Error(msg, args...)
	}
}

// ============================================================================
// Validation Counters
// ============================================================================

// RecordValidation counts one finished validation call and its failures
func RecordValidation(blocking, warnings int) {
	TotalValidations.Add(1)
	TotalBlockingErrors.Add(int64(blocking))
	TotalRuleWarnings.Add(int64(warnings))
}

// RecordRuleFault counts a rule that failed internally during evaluation
func RecordRuleFault() {
	TotalRuleFaults.Add(1)
}

// Stats is a point-in-time copy of the counters
type Stats struct {
	Errors         int64 `json:"errors"`
	Warnings       int64 `json:"warnings"`
	Validations    int64 `json:"validations"`
	RuleFaults     int64 `json:"ruleFaults"`
	BlockingErrors int64 `json:"blockingErrors"`
	RuleWarnings   int64 `json:"ruleWarnings"`
}

// Snapshot returns the current counter values
func Snapshot() Stats {
	return Stats{
		Errors:         TotalErrors.Load(),
		Warnings:       TotalWarnings.Load(),
		Validations:    TotalValidations.Load(),
		RuleFaults:     TotalRuleFaults.Load(),
		BlockingErrors: TotalBlockingErrors.Load(),
		RuleWarnings:   TotalRuleWarnings.Load(),
	}
}

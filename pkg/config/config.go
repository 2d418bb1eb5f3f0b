// Package config provides the configuration system for tap-postmark.
// It defines a single TapConfig structure consumed by the CLI, the
// extraction engine and every output and state backend.
//
// The configuration is organized into logical sections:
//   - Performance: page size for the message endpoints
//   - Timeouts: HTTP request and connection timeouts
//   - Reliability: retry logic, circuit breakers, rate limiting
//   - Observability: metrics, tracing, logging
//   - Output: where cleaned records go (singer, jsonl, kafka)
//   - State: where bookmarks are kept (file, memory, s3, gcs)
//
// Example usage:
//
//	cfg := config.NewTapConfig()
//	cfg.StartDate = "2021-01-01"
//	cfg.ServerToken = os.Getenv("POSTMARK_SERVER_TOKEN")
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"slices"
	"time"

	"github.com/ajitpratap0/tap-postmark/pkg/daterange"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

// DefaultBaseURL is the Postmark API host.
const DefaultBaseURL = "https://api.postmarkapp.com"

// MaxPageSize is the largest count the message endpoints accept.
const MaxPageSize = 500

// TapConfig is the unified configuration structure for a sync run.
// The top-level keys match the original Singer tap config file, so an
// existing config.json loads unchanged.
type TapConfig struct {
	// StartDate is the first day to extract (YYYY-MM-DD)
	StartDate string `yaml:"start_date" json:"start_date" mapstructure:"start_date"`
	// ServerToken authenticates against the Postmark API
	ServerToken string `yaml:"postmark_server_token" json:"postmark_server_token" mapstructure:"postmark_server_token"`
	// BaseURL overrides the API host, mainly for tests
	BaseURL string `yaml:"base_url" json:"base_url" mapstructure:"base_url"`
	// Streams restricts the sync to the named streams (empty = all)
	Streams []string `yaml:"streams" json:"streams" mapstructure:"streams"`

	Performance   PerformanceConfig   `yaml:"performance" json:"performance" mapstructure:"performance"`
	Timeouts      TimeoutConfig       `yaml:"timeouts" json:"timeouts" mapstructure:"timeouts"`
	Reliability   ReliabilityConfig   `yaml:"reliability" json:"reliability" mapstructure:"reliability"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
	Output        OutputConfig        `yaml:"output" json:"output" mapstructure:"output"`
	State         StateConfig         `yaml:"state" json:"state" mapstructure:"state"`
}

// PerformanceConfig contains throughput settings.
type PerformanceConfig struct {
	// PageSize is the count used when paging message endpoints
	PageSize int `yaml:"page_size" json:"page_size" mapstructure:"page_size"`
}

// TimeoutConfig contains all timeout-related settings.
type TimeoutConfig struct {
	// Request timeout for individual API calls
	Request time.Duration `yaml:"request" json:"request" mapstructure:"request"`
	// Connection timeout for establishing connections
	Connection time.Duration `yaml:"connection" json:"connection" mapstructure:"connection"`
	// Idle timeout before closing inactive connections
	Idle time.Duration `yaml:"idle" json:"idle" mapstructure:"idle"`
}

// ReliabilityConfig contains reliability and error handling settings.
type ReliabilityConfig struct {
	// RetryAttempts is the number of whole-day fetch attempts (1 = no retry)
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts" mapstructure:"retry_attempts"`
	// RetryDelay is the initial delay between retries
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay" mapstructure:"retry_delay"`
	// RetryMultiplier increases delay exponentially
	RetryMultiplier float64 `yaml:"retry_multiplier" json:"retry_multiplier" mapstructure:"retry_multiplier"`
	// MaxRetryDelay caps the maximum retry delay
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" json:"max_retry_delay" mapstructure:"max_retry_delay"`
	// CircuitBreaker enables circuit breaker pattern
	CircuitBreaker bool `yaml:"circuit_breaker" json:"circuit_breaker" mapstructure:"circuit_breaker"`
	// RateLimitPerSec limits API calls per second (0 = unlimited)
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	// FailFast stops the run at the first failing stream
	FailFast bool `yaml:"fail_fast" json:"fail_fast" mapstructure:"fail_fast"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// MetricsAddr serves Prometheus metrics when set (e.g. ":9102")
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr" mapstructure:"metrics_addr"`
	// EnableTracing activates OpenTelemetry tracing to stderr
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding" mapstructure:"log_encoding"`
}

// OutputConfig selects and configures the destination.
type OutputConfig struct {
	// Type is one of singer, jsonl, kafka
	Type string `yaml:"type" json:"type" mapstructure:"type"`
	// Path is the jsonl output file
	Path string `yaml:"path" json:"path" mapstructure:"path"`
	// Compression is none, gzip, zstd, lz4, snappy or s2 (jsonl only)
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression"`
	// Brokers lists Kafka bootstrap servers
	Brokers []string `yaml:"brokers" json:"brokers" mapstructure:"brokers"`
	// Topic is the Kafka topic; "{stream}" is replaced by the stream name
	Topic string `yaml:"topic" json:"topic" mapstructure:"topic"`
}

// StateConfig selects where bookmarks are persisted.
type StateConfig struct {
	// Backend is one of file, memory, s3, gcs
	Backend string `yaml:"backend" json:"backend" mapstructure:"backend"`
	// Path is the local state file (file backend)
	Path string `yaml:"path" json:"path" mapstructure:"path"`
	// Bucket holds the state object (s3, gcs)
	Bucket string `yaml:"bucket" json:"bucket" mapstructure:"bucket"`
	// Key is the object name inside Bucket
	Key string `yaml:"key" json:"key" mapstructure:"key"`
	// Region is the AWS region for the s3 backend
	Region string `yaml:"region" json:"region" mapstructure:"region"`
	// Endpoint overrides the S3 endpoint (MinIO, LocalStack); path-style addressing is used
	Endpoint string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
	// CredentialsFile is a service account key for the gcs backend
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
}

// Output and state backends understood by the CLI.
var (
	OutputTypes   = []string{"singer", "jsonl", "kafka"}
	StateBackends = []string{"file", "memory", "s3", "gcs"}
	Compressions  = []string{"", "none", "gzip", "zstd", "lz4", "snappy", "s2"}
)

// NewTapConfig creates a TapConfig with production defaults.
func NewTapConfig() *TapConfig {
	return &TapConfig{
		BaseURL: DefaultBaseURL,
		Performance: PerformanceConfig{
			PageSize: MaxPageSize,
		},
		Timeouts: TimeoutConfig{
			Request:    30 * time.Second,
			Connection: 10 * time.Second,
			Idle:       90 * time.Second,
		},
		Reliability: ReliabilityConfig{
			RetryAttempts:   3,
			RetryDelay:      time.Second,
			RetryMultiplier: 2.0,
			MaxRetryDelay:   30 * time.Second,
			CircuitBreaker:  true,
			RateLimitPerSec: 0,
			FailFast:        false,
		},
		Observability: ObservabilityConfig{
			TracingSampleRate: 1.0,
			LogLevel:          "info",
			LogEncoding:       "json",
		},
		Output: OutputConfig{
			Type:  "singer",
			Topic: "postmark.{stream}",
		},
		State: StateConfig{
			Backend: "file",
			Path:    "state.json",
			Key:     "tap-postmark/state.json",
		},
	}
}

// Validate checks required keys and value ranges. The original tap
// required start_date and postmark_server_token; both are still mandatory.
func (c *TapConfig) Validate() error {
	if c.StartDate == "" {
		return errors.New(errors.ErrorTypeConfig, "start_date is required")
	}
	if _, err := daterange.ParseDay(c.StartDate); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "start_date is invalid")
	}
	if c.ServerToken == "" {
		return errors.New(errors.ErrorTypeConfig, "postmark_server_token is required")
	}
	if c.BaseURL == "" {
		return errors.New(errors.ErrorTypeConfig, "base_url cannot be empty")
	}
	if c.Performance.PageSize <= 0 || c.Performance.PageSize > MaxPageSize {
		return errors.Newf(errors.ErrorTypeConfig, "page_size must be between 1 and %d", MaxPageSize)
	}
	if c.Reliability.RetryAttempts < 0 {
		return errors.New(errors.ErrorTypeConfig, "retry_attempts cannot be negative")
	}
	if c.Reliability.RateLimitPerSec < 0 {
		return errors.New(errors.ErrorTypeConfig, "rate_limit_per_sec cannot be negative")
	}
	if !slices.Contains(OutputTypes, c.Output.Type) {
		return errors.Newf(errors.ErrorTypeConfig, "unknown output type %q", c.Output.Type)
	}
	if !slices.Contains(Compressions, c.Output.Compression) {
		return errors.Newf(errors.ErrorTypeConfig, "unknown compression %q", c.Output.Compression)
	}
	if c.Output.Type == "jsonl" && c.Output.Path == "" {
		return errors.New(errors.ErrorTypeConfig, "output.path is required for jsonl output")
	}
	if c.Output.Type == "kafka" && len(c.Output.Brokers) == 0 {
		return errors.New(errors.ErrorTypeConfig, "output.brokers is required for kafka output")
	}
	if !slices.Contains(StateBackends, c.State.Backend) {
		return errors.Newf(errors.ErrorTypeConfig, "unknown state backend %q", c.State.Backend)
	}
	if (c.State.Backend == "s3" || c.State.Backend == "gcs") && c.State.Bucket == "" {
		return errors.Newf(errors.ErrorTypeConfig, "state.bucket is required for %s state", c.State.Backend)
	}
	return nil
}

// IsRateLimited reports whether API calls are throttled.
func (r *ReliabilityConfig) IsRateLimited() bool {
	return r.RateLimitPerSec > 0
}

// Redacted returns a copy safe to log.
func (c TapConfig) Redacted() TapConfig {
	if c.ServerToken != "" {
		c.ServerToken = "***"
	}
	return c
}

package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DemoAPIKey is NASA's shared, heavily rate-limited key.
const DemoAPIKey = "DEMO_KEY"

// DefaultNeoWsBaseURL is the public NeoWs REST root.
const DefaultNeoWsBaseURL = "https://api.nasa.gov/neo/rest/v1"

// Run option defaults and limits.
const (
	DefaultCount    = 150
	DefaultPageSize = 50
	DefaultOutFile  = "neodb.json"
	MaxPageSize     = 50
	MaxCount        = 1_000_000
)

// Config holds all harvester settings, populated from environment variables.
type Config struct {
	NeoWsBaseURL   string
	APIKey         string
	RequestTimeout time.Duration
	PageDelay      time.Duration
	MaxPages       int

	LogLevel    string
	LogFormat   string
	MetricsFile string

	// Optional exporters.
	SQLitePath   string
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	timeout, err := parsePositiveDuration("NEOWS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	delay, err := time.ParseDuration(sharedcfg.EnvOrDefault("NEOWS_PAGE_DELAY", "100ms"))
	if err != nil || delay < 0 {
		return nil, errors.New("invalid NEOWS_PAGE_DELAY")
	}

	maxPages, err := strconv.Atoi(sharedcfg.EnvOrDefault("NEOWS_MAX_PAGES", "1000"))
	if err != nil || maxPages <= 0 {
		return nil, errors.New("invalid NEOWS_MAX_PAGES")
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		NeoWsBaseURL:   sharedcfg.EnvOrDefault("NEOWS_BASE_URL", DefaultNeoWsBaseURL),
		APIKey:         sharedcfg.EnvOrDefault("NASA_API_KEY", DemoAPIKey),
		RequestTimeout: timeout,
		PageDelay:      delay,
		MaxPages:       maxPages,

		LogLevel:    sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:   sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		MetricsFile: os.Getenv("METRICS_FILE"),

		SQLitePath:   os.Getenv("SQLITE_PATH"),
		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "neo-records"),
	}

	if cfg.APIKey == "" {
		return nil, errors.New("NASA_API_KEY is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

// UsingDemoKey reports whether the shared demo key is configured.
func (c *Config) UsingDemoKey() bool {
	return c.APIKey == DemoAPIKey
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

// RunOptions are the per-invocation inputs taken from the command line.
type RunOptions struct {
	Count    int
	PageSize int
	OutFile  string
	Strict   bool
}

// DefaultRunOptions returns the command-line defaults.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Count:    DefaultCount,
		PageSize: DefaultPageSize,
		OutFile:  DefaultOutFile,
	}
}

// Validate checks the options; errors are keyed by field name.
func (o *RunOptions) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Count, validation.Required, validation.Min(1), validation.Max(MaxCount)),
		validation.Field(&o.PageSize, validation.Required, validation.Min(1), validation.Max(MaxPageSize)),
		validation.Field(&o.OutFile, validation.Required),
	)
}

package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers      []string
	KafkaRequestTopic string
	KafkaSceneTopic   string
	KafkaGroupID      string
	HTTPAddr          string
	LogLevel          string
	LogFormat         string
	LogFile           string
	ShutdownTimeout   time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// MICAPS gateway configuration.
	MicapsBaseURL   string
	MicapsTimeout   time.Duration
	MicapsCacheSize int

	// CatalogFile overrides the embedded product catalog when set.
	CatalogFile       string
	DefaultCycleHours int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	micapsTimeout, err := parseMicapsTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cycleHours, err := parseCycleHours()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaRequestTopic:  envOrDefault("KAFKA_REQUEST_TOPIC", "map-requests"),
		KafkaSceneTopic:    envOrDefault("KAFKA_SCENE_TOPIC", "map-scenes"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "weather-map-service"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		LogFile:            os.Getenv("LOG_FILE"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		MicapsBaseURL:   os.Getenv("MICAPS_BASE_URL"),
		MicapsTimeout:   micapsTimeout,
		MicapsCacheSize: parseMicapsCacheSize(),

		CatalogFile:       os.Getenv("CATALOG_FILE"),
		DefaultCycleHours: cycleHours,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaRequestTopic == "" {
		return nil, errors.New("KAFKA_REQUEST_TOPIC is required")
	}
	if cfg.KafkaSceneTopic == "" {
		return nil, errors.New("KAFKA_SCENE_TOPIC is required")
	}
	if cfg.MicapsBaseURL == "" {
		return nil, errors.New("MICAPS_BASE_URL is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseShutdownTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	n, err := strconv.Atoi(envOrDefault("BATCH_SIZE", "50"))
	if err != nil || n < 1 || n > 1000 {
		return 0, errors.New("invalid BATCH_SIZE, want 1..1000")
	}
	return n, nil
}

func parseBatchFlushInterval() (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault("BATCH_FLUSH_INTERVAL", "500ms"))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid BATCH_FLUSH_INTERVAL")
	}
	return d, nil
}

func parseMicapsTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault("MICAPS_TIMEOUT", "5s"))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid MICAPS_TIMEOUT")
	}
	return d, nil
}

// parseCycleHours reads the default model cycle spacing used when a request
// omits an initial time. Cycles sit at fixed UTC hours, so the value must
// divide 24.
func parseCycleHours() (int, error) {
	n, err := strconv.Atoi(envOrDefault("DEFAULT_CYCLE_HOURS", "12"))
	if err != nil || n < 1 || n > 24 || 24%n != 0 {
		return 0, errors.New("invalid DEFAULT_CYCLE_HOURS, want a divisor of 24")
	}
	return n, nil
}

func parseMicapsCacheSize() int {
	if s := os.Getenv("MICAPS_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}

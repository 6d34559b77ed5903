package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Magics engine configuration.
	MagicsPython  string
	MagicsWorkDir string
	OutputWidth   int
	OutputDir     string
	RenderTimeout time.Duration
	// DataDir confines request data files; relative data paths resolve under it.
	DataDir       string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	renderTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("RENDER_TIMEOUT", "2m"))
	if err != nil || renderTimeout <= 0 {
		return nil, errors.New("invalid RENDER_TIMEOUT")
	}

	width, err := parseOutputWidth()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "render-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "rendered-products"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "mapplot-renderer"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		MagicsPython:  sharedcfg.EnvOrDefault("MAGICS_PYTHON", "python3"),
		MagicsWorkDir: os.Getenv("MAGICS_WORK_DIR"),
		OutputWidth:   width,
		OutputDir:     os.Getenv("OUTPUT_DIR"),
		RenderTimeout: renderTimeout,
		DataDir:       sharedcfg.EnvOrDefault("DATA_DIR", "data"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func parseOutputWidth() (int, error) {
	s := os.Getenv("OUTPUT_WIDTH")
	if s == "" {
		return 1200, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("invalid OUTPUT_WIDTH: must be a positive integer")
	}
	return n, nil
}

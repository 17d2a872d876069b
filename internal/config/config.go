package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	OpenAI   OpenAIConfig
	Sampler  SamplerConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Queue    QueueConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// OpenAIConfig holds credentials and model selection for the external
// analysis services.
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	VisionModel        string
	TranscriptionModel string
	TranslationModel   string
	AssistantModel     string
}

// SamplerConfig holds frame sampling configuration
type SamplerConfig struct {
	IntervalSeconds float64
	FFmpegPath      string
	FFprobePath     string
	TempDir         string
	FallbackFPS     float64
}

// PipelineConfig holds orchestration configuration
type PipelineConfig struct {
	VisionFanOut      int
	VisionCallTimeout time.Duration
	AudioCallTimeout  time.Duration
	QueryPollInterval time.Duration
	QueryPollLimit    int
	TimecodeFPS       int
	FallbackLanguage  string
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
}

// CacheConfig holds Redis cache configuration
type CacheConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// MetricsConfig holds the metrics server configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// TracingConfig holds tracer configuration
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	JaegerEndpoint string
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.readTimeout", "30s")
	viper.SetDefault("server.writeTimeout", "30s")
	viper.SetDefault("server.shutdownTimeout", "10s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	// OpenAI defaults
	viper.SetDefault("openai.baseURL", "")
	viper.SetDefault("openai.visionModel", "gpt-4o-mini")
	viper.SetDefault("openai.transcriptionModel", "whisper-1")
	viper.SetDefault("openai.translationModel", "gpt-4o-mini")
	viper.SetDefault("openai.assistantModel", "gpt-4o-mini")

	// Sampler defaults
	viper.SetDefault("sampler.intervalSeconds", 2.0)
	viper.SetDefault("sampler.ffmpegPath", "ffmpeg")
	viper.SetDefault("sampler.ffprobePath", "ffprobe")
	viper.SetDefault("sampler.tempDir", "/tmp/annotator")
	viper.SetDefault("sampler.fallbackFPS", 30.0)

	// Pipeline defaults
	viper.SetDefault("pipeline.visionFanOut", 1)
	viper.SetDefault("pipeline.visionCallTimeout", "60s")
	viper.SetDefault("pipeline.audioCallTimeout", "2m")
	viper.SetDefault("pipeline.queryPollInterval", "1s")
	viper.SetDefault("pipeline.queryPollLimit", 60)
	viper.SetDefault("pipeline.timecodeFPS", 24)
	viper.SetDefault("pipeline.fallbackLanguage", "en-US")

	// Storage defaults
	viper.SetDefault("storage.enabled", false)
	viper.SetDefault("storage.endpoint", "localhost:9000")
	viper.SetDefault("storage.accessKeyID", "minioadmin")
	viper.SetDefault("storage.secretAccessKey", "minioadmin")
	viper.SetDefault("storage.bucketName", "annotations")
	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("storage.useSSL", false)

	// Cache defaults
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.host", "localhost")
	viper.SetDefault("cache.port", 6379)
	viper.SetDefault("cache.password", "")
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.ttl", "24h")

	// Queue defaults
	viper.SetDefault("queue.host", "localhost")
	viper.SetDefault("queue.port", 5672)
	viper.SetDefault("queue.user", "guest")
	viper.SetDefault("queue.password", "guest")
	viper.SetDefault("queue.vhost", "/")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9091)

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.serviceName", "annotator")
	viper.SetDefault("tracing.jaegerEndpoint", "http://localhost:14268/api/traces")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at process start and passed down explicitly.
// Nothing reads the environment after Load returns.
type Config struct {
	AppEnv   string
	LogLevel string

	EmbeddingProvider       string
	EmbeddingBaseURL        string
	EmbeddingModel          string
	EmbeddingAPIKey         string
	GoogleAPIKey            string
	EmbeddingTimeout        time.Duration
	EmbeddingBreakerFailure int
	FallbackDimension       int

	VectorStoreBackend string
	VectorStoreHost    string
	VectorStorePort    int
	VectorStoreAPIKey  string
	VectorStoreTLS     bool
	VectorStoreTimeout time.Duration
	CollectionName     string

	MaxBatch      int
	ChunkSize     int
	ChunkOverlap  int
	IngestWorkers int

	RedisAddr      string
	RedisPassword  string
	IngestLeaseTTL time.Duration

	ListenAddr         string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

func (c *Config) IsProd() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		EmbeddingProvider:       strings.ToLower(getEnv("EMBEDDING_PROVIDER", "openai")),
		EmbeddingBaseURL:        strings.TrimRight(getEnv("EMBEDDING_BASE_URL", DefaultEmbeddingBaseURL), "/"),
		EmbeddingModel:          getEnv("EMBEDDING_MODEL", DefaultEmbeddingModel),
		EmbeddingAPIKey:         getEnv("EMBEDDING_API_KEY", ""),
		GoogleAPIKey:            getEnv("GOOGLE_API_KEY", ""),
		EmbeddingTimeout:        getEnvSeconds("EMBEDDING_TIMEOUT_S", DefaultEmbeddingTimeout),
		EmbeddingBreakerFailure: getEnvInt("EMBEDDING_BREAKER_FAILURES", DefaultBreakerMaxFailures),
		FallbackDimension:       getEnvInt("FALLBACK_DIMENSION", DefaultFallbackDimension),

		VectorStoreBackend: strings.ToLower(getEnv("VECTOR_STORE_BACKEND", "qdrant")),
		VectorStoreHost:    getEnv("VECTOR_STORE_HOST", DefaultVectorStoreHost),
		VectorStorePort:    getEnvInt("VECTOR_STORE_PORT", DefaultVectorStorePort),
		VectorStoreAPIKey:  getEnv("VECTOR_STORE_API_KEY", ""),
		VectorStoreTLS:     getEnvBool("VECTOR_STORE_TLS", false),
		VectorStoreTimeout: getEnvSeconds("VECTOR_STORE_TIMEOUT_S", DefaultVectorStoreTimeout),
		CollectionName:     getEnv("COLLECTION_NAME", DefaultCollectionName),

		MaxBatch:      getEnvInt("MAX_BATCH", MaxBatchLimit),
		ChunkSize:     getEnvInt("CHUNK_SIZE", DefaultChunkSize),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", DefaultChunkOverlap),
		IngestWorkers: getEnvInt("INGEST_WORKERS", DefaultIngestWorkers),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		IngestLeaseTTL: getEnvDuration("INGEST_LEASE_TTL", DefaultIngestLeaseTTL),

		ListenAddr:         getEnv("LISTEN_ADDR", ServerListenAddr),
		RateLimitPerSecond: getEnvFloat64("RATE_LIMIT_PER_SECOND", DefaultRateLimitPerSecond),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", DefaultRateLimitBurst),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration Load produces on an empty environment.
func Default() *Config {
	return &Config{
		AppEnv:                  "development",
		EmbeddingProvider:       "openai",
		EmbeddingBaseURL:        DefaultEmbeddingBaseURL,
		EmbeddingModel:          DefaultEmbeddingModel,
		EmbeddingTimeout:        DefaultEmbeddingTimeout,
		EmbeddingBreakerFailure: DefaultBreakerMaxFailures,
		FallbackDimension:       DefaultFallbackDimension,
		VectorStoreBackend:      "qdrant",
		VectorStoreHost:         DefaultVectorStoreHost,
		VectorStorePort:         DefaultVectorStorePort,
		VectorStoreTimeout:      DefaultVectorStoreTimeout,
		CollectionName:          DefaultCollectionName,
		MaxBatch:                MaxBatchLimit,
		ChunkSize:               DefaultChunkSize,
		ChunkOverlap:            DefaultChunkOverlap,
		IngestWorkers:           DefaultIngestWorkers,
		IngestLeaseTTL:          DefaultIngestLeaseTTL,
		ListenAddr:              ServerListenAddr,
		RateLimitPerSecond:      DefaultRateLimitPerSecond,
		RateLimitBurst:          DefaultRateLimitBurst,
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.MaxBatch < 1 || c.MaxBatch > MaxBatchLimit {
		errs = append(errs, fmt.Errorf("MAX_BATCH must be between 1 and %d, got %d", MaxBatchLimit, c.MaxBatch))
	}
	if c.FallbackDimension < 1 {
		errs = append(errs, fmt.Errorf("FALLBACK_DIMENSION must be positive, got %d", c.FallbackDimension))
	}
	if c.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap))
	}
	if c.IngestWorkers < 1 || c.IngestWorkers > MaxIngestWorkers {
		errs = append(errs, fmt.Errorf("INGEST_WORKERS must be between 1 and %d, got %d", MaxIngestWorkers, c.IngestWorkers))
	}
	if c.EmbeddingModel == "" {
		errs = append(errs, errors.New("EMBEDDING_MODEL is required"))
	}
	if c.CollectionName == "" {
		errs = append(errs, errors.New("COLLECTION_NAME is required"))
	}
	if c.EmbeddingTimeout <= 0 {
		errs = append(errs, errors.New("EMBEDDING_TIMEOUT_S must be positive"))
	}
	switch c.EmbeddingProvider {
	case "openai", "google":
	default:
		errs = append(errs, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider))
	}
	switch c.VectorStoreBackend {
	case "qdrant", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown VECTOR_STORE_BACKEND %q", c.VectorStoreBackend))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvSeconds accepts a plain (possibly fractional) number of seconds.
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

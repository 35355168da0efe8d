package config

import (
	"log/slog"
	"time"
)

const (
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	//embeddings
	DefaultEmbeddingBaseURL   = "http://localhost:1234"
	DefaultEmbeddingModel     = "nomic-embed-text-v1.5"
	DefaultEmbeddingTimeout   = 30 * time.Second
	DefaultFallbackDimension  = 384
	DefaultBreakerMaxFailures = 5
	BreakerOpenTimeout        = 30 * time.Second
	StatusProbeText           = "Test embedding"

	//text normalizer
	MaxCleanLength      = 8000
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	//vectorDB
	DefaultVectorStoreHost    = "localhost"
	DefaultVectorStorePort    = 8000
	DefaultVectorStoreTimeout = 30 * time.Second
	DefaultCollectionName     = "rule_books"
	DefaultCollectionDesc     = "Tabletop rulebook passages for semantic retrieval"
	MaxBatchLimit             = 500
	QdrantPoolSize            = 1 //2-5 is preferred for prod according to documentation
	QdrantKeepAliveTimeout    = 30 * time.Second

	//ingest workers
	DefaultIngestWorkers = 1
	MaxIngestWorkers     = 8

	//ingest lease
	DefaultIngestLeaseTTL = 30 * time.Minute
	IngestLeasePrefix     = "ingest:"

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 45 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	DefaultRateLimitPerSecond = 2
	DefaultRateLimitBurst     = 5
	DefaultQueryResults       = 5
	MaxQueryResults           = 50

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second
)

package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"EMBEDDING_BASE_URL", "EMBEDDING_MODEL", "VECTOR_STORE_HOST", "VECTOR_STORE_PORT",
		"EMBEDDING_TIMEOUT_S", "MAX_BATCH", "FALLBACK_DIMENSION", "EMBEDDING_PROVIDER", "VECTOR_STORE_BACKEND"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.EmbeddingBaseURL != "http://localhost:1234" {
		t.Errorf("EmbeddingBaseURL = %s", cfg.EmbeddingBaseURL)
	}
	if cfg.EmbeddingModel != "nomic-embed-text-v1.5" {
		t.Errorf("EmbeddingModel = %s", cfg.EmbeddingModel)
	}
	if cfg.VectorStoreHost != "localhost" || cfg.VectorStorePort != 8000 {
		t.Errorf("vector store = %s:%d", cfg.VectorStoreHost, cfg.VectorStorePort)
	}
	if cfg.EmbeddingTimeout != 30*time.Second {
		t.Errorf("EmbeddingTimeout = %v", cfg.EmbeddingTimeout)
	}
	if cfg.MaxBatch != 500 || cfg.FallbackDimension != 384 {
		t.Errorf("MaxBatch = %d, FallbackDimension = %d", cfg.MaxBatch, cfg.FallbackDimension)
	}
	if cfg.CollectionName != "rule_books" {
		t.Errorf("CollectionName = %s", cfg.CollectionName)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EMBEDDING_BASE_URL", "http://embed.local:9000/")
	t.Setenv("EMBEDDING_TIMEOUT_S", "2.5")
	t.Setenv("MAX_BATCH", "100")
	t.Setenv("VECTOR_STORE_BACKEND", "memory")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.EmbeddingBaseURL != "http://embed.local:9000" {
		t.Errorf("trailing slash not trimmed: %s", cfg.EmbeddingBaseURL)
	}
	if cfg.EmbeddingTimeout != 2500*time.Millisecond {
		t.Errorf("EmbeddingTimeout = %v", cfg.EmbeddingTimeout)
	}
	if cfg.MaxBatch != 100 || cfg.VectorStoreBackend != "memory" || !cfg.IsProd() {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"default is valid", func(c *Config) {}, ""},
		{"batch above limit", func(c *Config) { c.MaxBatch = 501 }, "MAX_BATCH"},
		{"batch zero", func(c *Config) { c.MaxBatch = 0 }, "MAX_BATCH"},
		{"zero dimension", func(c *Config) { c.FallbackDimension = 0 }, "FALLBACK_DIMENSION"},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, "CHUNK_OVERLAP"},
		{"unknown provider", func(c *Config) { c.EmbeddingProvider = "cohere" }, "EMBEDDING_PROVIDER"},
		{"unknown backend", func(c *Config) { c.VectorStoreBackend = "chroma" }, "VECTOR_STORE_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}

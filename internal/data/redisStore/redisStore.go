package redisStore

import (
	"context"
	"time"

	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	client   *redis.Client
	leaseTTL time.Duration
	logger   *logger_i.Logger
}

// NewRedisStore connects to cfg.RedisAddr and closes the client when ctx ends.
// An unreachable server is reported as StoreUnreachable.
func NewRedisStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	newClient := redis.NewClient(&redis.Options{
		Addr:                  cfg.RedisAddr,
		Password:              cfg.RedisPassword,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := newClient.Ping(pingCtx).Err(); err != nil {
		_ = newClient.Close()
		return nil, ragErrors.New(ragErrors.StoreUnreachable, "redisStore.Ping", err)
	}

	s := newStore(newClient, cfg.IngestLeaseTTL)
	s.logger.Info("Redis lease store ready", "addr", cfg.RedisAddr)
	go s.closeOnDone(ctx)
	return s, nil
}

func newStore(client *redis.Client, leaseTTL time.Duration) *Store {
	if leaseTTL <= 0 {
		leaseTTL = config.DefaultIngestLeaseTTL
	}
	return &Store{
		client:   client,
		leaseTTL: leaseTTL,
		logger:   logger_i.NewLogger("redis_store"),
	}
}

func (s *Store) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	if err := s.client.Close(); err != nil {
		s.logger.Error("Error closing redis client", "error", err)
		return
	}
	s.logger.Info("Redis store closed")
}

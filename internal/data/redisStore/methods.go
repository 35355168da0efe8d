package redisStore

import (
	"context"
	"time"

	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deletes the key only while it still holds our token, so an expired lease
// re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Acquire takes the lease on key for the store's TTL. A lease held by
// another owner fails with Conflict.
func (s *Store) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, key, token, s.leaseTTL).Result()
	if err != nil {
		return nil, ragErrors.New(ragErrors.Transient, "redisStore.Acquire", err)
	}
	if !ok {
		return nil, ragErrors.Newf(ragErrors.Conflict, "redisStore.Acquire", "lease %s is held by another ingestion", key)
	}
	s.logger.Debug("Lease acquired", "key", key, "ttl", s.leaseTTL)

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, s.client, []string{key}, token).Err(); err != nil {
			s.logger.Warn("Could not release lease, it will expire", "key", key, "error", err)
			return
		}
		s.logger.Debug("Lease released", "key", key)
	}, nil
}

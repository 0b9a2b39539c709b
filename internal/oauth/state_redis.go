package oauth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStateStore keeps state nonces in Redis with a short TTL, so a
// login attempt abandoned mid-redirect cleans itself up.
type RedisStateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStateStore(rdb *redis.Client, ttl time.Duration) *RedisStateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStateStore{rdb: rdb, ttl: ttl}
}

func stateKey(state string) string { return "callgate:oauth:state:" + state }

func (s *RedisStateStore) Save(ctx context.Context, state string) error {
	return s.rdb.Set(ctx, stateKey(state), "1", s.ttl).Err()
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	n, err := s.rdb.Del(ctx, stateKey(state)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

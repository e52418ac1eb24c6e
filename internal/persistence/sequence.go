package persistence

import (
	"context"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

// RedisSequencer backs record-number sequences with Redis INCR, the
// store-native atomic increment. Counter keys are namespaced so they never
// collide with other cache entries.
type RedisSequencer struct {
	client *redis.Client
}

// NewRedisSequencer wraps the given client.
func NewRedisSequencer(client *redis.Client) *RedisSequencer {
	return &RedisSequencer{client: client}
}

// Next atomically increments and returns the counter for key.
func (s *RedisSequencer) Next(ctx context.Context, key string) (int64, error) {
	val, err := s.client.Incr(ctx, "seq:"+key).Result()
	if err != nil {
		return 0, apperrors.NewDependencyUnavailable("sequence store", err)
	}
	return val, nil
}

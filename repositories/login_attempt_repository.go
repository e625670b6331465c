package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisLoginAttemptRepository struct {
	redis *redis.Client
}

func NewRedisLoginAttemptRepository(redisClient *redis.Client) *RedisLoginAttemptRepository {
	return &RedisLoginAttemptRepository{redis: redisClient}
}

func loginFailureKey(key string) string {
	return fmt.Sprintf("login:%s:failures", key)
}

func (r *RedisLoginAttemptRepository) Failures(ctx context.Context, key string) (int64, error) {
	n, err := r.redis.Get(ctx, loginFailureKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// RecordFailure increments the counter; the window starts at the first failure.
func (r *RedisLoginAttemptRepository) RecordFailure(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := loginFailureKey(key)
	n, err := r.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && window > 0 {
		if err := r.redis.Expire(ctx, redisKey, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (r *RedisLoginAttemptRepository) Reset(ctx context.Context, key string) error {
	return r.redis.Del(ctx, loginFailureKey(key)).Err()
}

// NoopLoginAttemptRepository is used when Redis is not configured.
type NoopLoginAttemptRepository struct{}

func (NoopLoginAttemptRepository) Failures(context.Context, string) (int64, error) {
	return 0, nil
}

func (NoopLoginAttemptRepository) RecordFailure(context.Context, string, time.Duration) (int64, error) {
	return 0, nil
}

func (NoopLoginAttemptRepository) Reset(context.Context, string) error {
	return nil
}

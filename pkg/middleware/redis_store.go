package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is a LimiterStore backed by Redis, for deployments running
// more than one panel instance behind a load balancer.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore with the given key prefix
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

// Hit implements LimiterStore using INCR plus expiry. The first attempt
// arms the window; crossing the limit re-arms the key with the block
// duration exactly once, tracked by a companion marker key.
func (r *RedisStore) Hit(ctx context.Context, key string, max int, window, block time.Duration) (LimitResult, error) {
	redisKey := r.key(key)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return LimitResult{}, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := r.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return LimitResult{}, fmt.Errorf("redis expire: %w", err)
		}
	}

	if count <= int64(max) {
		ttl, err := r.client.PTTL(ctx, redisKey).Result()
		if err != nil {
			return LimitResult{}, fmt.Errorf("redis pttl: %w", err)
		}
		return LimitResult{OK: true, Remaining: max - int(count), ResetAt: time.Now().Add(ttl)}, nil
	}

	extended, err := r.client.SetNX(ctx, redisKey+":blocked", 1, block).Result()
	if err != nil {
		return LimitResult{}, fmt.Errorf("redis setnx: %w", err)
	}
	if extended {
		if err := r.client.PExpire(ctx, redisKey, block).Err(); err != nil {
			return LimitResult{}, fmt.Errorf("redis expire: %w", err)
		}
	}

	ttl, err := r.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return LimitResult{}, fmt.Errorf("redis pttl: %w", err)
	}
	return LimitResult{OK: false, Remaining: 0, ResetAt: time.Now().Add(ttl), Blocked: true}, nil
}

// Reset implements LimiterStore
func (r *RedisStore) Reset(ctx context.Context, key string) error {
	redisKey := r.key(key)
	return r.client.Del(ctx, redisKey, redisKey+":blocked").Err()
}

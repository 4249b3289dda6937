package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores document content under key "<prefix><id>" with the
// TTL applied at Set time, so expiry happens inside Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed cache. Prefix may be empty.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "document:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) key(id string) string {
	return r.prefix + id
}

func (r *RedisCache) Get(ctx context.Context, id string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return b, nil
}

func (r *RedisCache) Set(ctx context.Context, id string, content []byte, ttl time.Duration) error {
	if ttl <= 0 {
		// a zero TTL would make the entry permanent; clamp to something short
		ttl = time.Second
	}
	return r.client.Set(ctx, r.key(id), content, ttl).Err()
}

func (r *RedisCache) Invalidate(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

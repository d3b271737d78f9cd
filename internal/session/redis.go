package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis. Each session is a JSON value
// whose TTL is the idle timeout, refreshed on every write.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultIdleTimeout
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get implements Store
func (r *RedisStore) Get(ctx context.Context, key string) (*Session, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}
	return &s, nil
}

// Put implements Store
func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	val, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.Key, err)
	}
	if err := r.client.Set(ctx, r.key(s.Key), val, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key, err)
	}
	return nil
}

// Delete implements Store
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close implements Store
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ping checks connectivity
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) key(key string) string {
	return r.prefix + key
}

package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidConfig is returned when a store is missing required options
	ErrInvalidConfig = errors.New("invalid session store configuration")

	// ErrInvalidStoreType is returned for unknown store types
	ErrInvalidStoreType = errors.New("invalid session store type")

	// ErrStoreClosed is returned when writing to a closed store
	ErrStoreClosed = errors.New("session store closed")
)

// Store defines the interface for session storage operations.
// Callers serialize access per key; stores only guarantee that each
// call is atomic.
type Store interface {
	// Get retrieves a session by key.
	// Returns nil if the session is not found (not an error).
	Get(ctx context.Context, key string) (*Session, error)

	// Put creates or replaces the session stored under s.Key
	Put(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store
	Close() error
}

// StoreType represents the type of session store
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// StoreOption is a functional option for configuring a session store
type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	keyPrefix   string
	idleTimeout time.Duration
}

// WithRedisClient sets the Redis client for the Redis store
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithKeyPrefix sets the Redis key prefix
func WithKeyPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		c.keyPrefix = prefix
	}
}

// WithIdleTimeout sets how long an untouched session survives
func WithIdleTimeout(d time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.idleTimeout = d
	}
}

// NewStore creates a Store of the given type.
// The Redis store requires WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{
		keyPrefix:   DefaultKeyPrefix,
		idleTimeout: DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory, "":
		return NewMemoryStore(cfg.idleTimeout), nil

	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisStore(cfg.redisClient, cfg.keyPrefix, cfg.idleTimeout), nil

	default:
		return nil, ErrInvalidStoreType
	}
}

const (
	// DefaultKeyPrefix namespaces session keys in Redis
	DefaultKeyPrefix = "assistant:session:"

	// DefaultIdleTimeout expires sessions nobody has touched
	DefaultIdleTimeout = 30 * time.Minute
)

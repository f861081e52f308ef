package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/grablet/merchant-api/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	// DefaultRedisPrefix namespaces every key written by this service.
	DefaultRedisPrefix = "merchant-api:"

	scanBatchSize = 100
)

// RedisCache stores JSON-encoded values under prefix+namespace+":"+key so that
// replicas share the anchor date and rankings.
type RedisCache[V any] struct {
	client    redis.UniversalClient
	prefix    string
	namespace string
	ttl       time.Duration
	log       *zap.Logger

	hits   int64
	misses int64
}

// RedisOption customizes a RedisCache.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// WithPrefix sets the key prefix shared by every namespace.
func WithPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}

// WithTTL sets the expiry of written keys. Zero means no expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.ttl = ttl
	}
}

// WithLogger reports degraded reads through log.
func WithLogger(log *zap.Logger) RedisOption {
	return func(o *redisOptions) {
		o.log = log
	}
}

// NewRedisCache creates a cache over client whose keys live under namespace.
func NewRedisCache[V any](client redis.UniversalClient, namespace string, opts ...RedisOption) *RedisCache[V] {
	o := redisOptions{prefix: DefaultRedisPrefix, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &RedisCache[V]{
		client:    client,
		prefix:    o.prefix,
		namespace: namespace,
		ttl:       o.ttl,
		log:       o.log,
	}
}

var _ repository.Cache[int] = (*RedisCache[int])(nil)

func (c *RedisCache[V]) key(k string) string {
	return fmt.Sprintf("%s%s:%s", c.prefix, c.namespace, k)
}

// Get reads key. Redis errors and undecodable payloads degrade to a miss.
func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var value V

	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		atomic.AddInt64(&c.misses, 1)
		return value, false
	}
	if err != nil {
		c.log.Warn("redis cache read failed", zap.String("key", c.key(key)), zap.Error(err))
		atomic.AddInt64(&c.misses, 1)
		return value, false
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		c.log.Warn("discarding corrupt cache entry", zap.String("key", c.key(key)), zap.Error(err))
		atomic.AddInt64(&c.misses, 1)
		var zero V
		return zero, false
	}

	atomic.AddInt64(&c.hits, 1)
	return value, true
}

func (c *RedisCache[V]) Put(ctx context.Context, key string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache value in Redis: %w", err)
	}
	return nil
}

func (c *RedisCache[V]) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache value from Redis: %w", err)
	}
	return nil
}

// Clear deletes every key of this namespace, scanning in batches.
func (c *RedisCache[V]) Clear(ctx context.Context) error {
	pattern := c.key("*")
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Stats returns hit and miss counters for monitoring.
func (c *RedisCache[V]) Stats() map[string]interface{} {
	return stats(atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses))
}

// NewRedisClient connects to addr and verifies the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

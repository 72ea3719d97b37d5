package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

var (
	ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")
)

// Cache stores encoded analysis documents under prefixed keys.
type Cache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	jitter     float64
}

type CacheOption func(*Cache)

func WithPrefix(prefix string) CacheOption {
	return func(c *Cache) { c.prefix = prefix }
}

// WithDefaultTTL applies when Set is called with ttl <= 0.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.defaultTTL = ttl }
}

// WithTTLJitter spreads expiries by up to ±fraction of the TTL so entries
// written together do not expire together.
func WithTTLJitter(fraction float64) CacheOption {
	return func(c *Cache) { c.jitter = fraction }
}

func NewCache(client *Client, log logging.Logger, opts ...CacheOption) *Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &Cache{
		client:     client,
		logger:     log.Named("cache"),
		prefix:     "civicpulse:",
		defaultTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) fullKey(key string) string {
	return c.prefix + key
}

func (c *Cache) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if c.jitter <= 0 {
		return ttl
	}
	return ttl + time.Duration(float64(ttl)*c.jitter*(rand.Float64()*2-1))
}

// Get returns the stored bytes, or ErrCacheMiss (code COMMON_003).
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.client.isClosed() {
		return nil, ErrClientClosed
	}
	data, err := c.client.rdb.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss.WithDetail(key)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	return data, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.client.isClosed() {
		return ErrClientClosed
	}
	if err := c.client.rdb.Set(ctx, c.fullKey(key), value, c.ttl(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache")
	}
	c.logger.Debug("cache set", logging.String("key", key), logging.Int("bytes", len(value)))
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.client.rdb.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete from cache")
	}
	return nil
}

func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.client.rdb.TTL(ctx, c.fullKey(key)).Result()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeCacheError, "failed to read ttl")
	}
	return d, nil
}

//Personal.AI order the ending

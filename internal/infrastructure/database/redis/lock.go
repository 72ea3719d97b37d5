package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

const lockKeyPrefix = "civicpulse:lock:"

type LockOption func(*lockConfig)

func WithLockTTL(ttl time.Duration) LockOption {
	return func(c *lockConfig) { c.ttl = ttl }
}

func WithRetryDelay(delay time.Duration) LockOption {
	return func(c *lockConfig) { c.retryDelay = delay }
}

func WithRetryCount(count int) LockOption {
	return func(c *lockConfig) { c.retryCount = count }
}

type lockConfig struct {
	ttl        time.Duration
	retryDelay time.Duration
	retryCount int
}

// LockFactory hands out mutexes backed by SET NX.
type LockFactory struct {
	client *Client
	log    logging.Logger
}

func NewLockFactory(client *Client, log logging.Logger) *LockFactory {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &LockFactory{client: client, log: log.Named("lock")}
}

func (f *LockFactory) NewMutex(name string, opts ...LockOption) *Mutex {
	cfg := lockConfig{
		ttl:        30 * time.Second,
		retryDelay: 100 * time.Millisecond,
		retryCount: 30,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Mutex{
		client: f.client,
		name:   name,
		value:  uuid.New().String(),
		config: cfg,
		logger: f.log,
	}
}

// Acquire takes name for ttl without retrying and never releases it; the
// lease simply expires. Replicas firing the same schedule call this so only
// one of them acts.
func (f *LockFactory) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := f.NewMutex(name, WithLockTTL(ttl)).TryLock(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		f.log.Debug("lease held elsewhere", logging.String("name", name))
	}
	return ok, nil
}

// Mutex is a single-owner lock identified by a random value.
type Mutex struct {
	client *Client
	name   string
	value  string
	config lockConfig
	logger logging.Logger
}

var mutexUnlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var mutexExtendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

func (m *Mutex) key() string {
	return lockKeyPrefix + m.name
}

// Lock retries TryLock until it succeeds, the retries run out or ctx ends.
func (m *Mutex) Lock(ctx context.Context) error {
	for i := 0; i <= m.config.retryCount; i++ {
		ok, err := m.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if i == m.config.retryCount {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.config.retryDelay):
		}
	}
	return ErrLockNotAcquired
}

func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.rdb.SetNX(ctx, m.key(), m.value, m.config.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
	}
	return ok, nil
}

func (m *Mutex) Unlock(ctx context.Context) error {
	res, err := mutexUnlockScript.Run(ctx, m.client.rdb, []string{m.key()}, m.value).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (m *Mutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	res, err := mutexExtendScript.Run(ctx, m.client.rdb, []string{m.key()}, m.value, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to extend lock")
	}
	return res == 1, nil
}

func (m *Mutex) TTL(ctx context.Context) (time.Duration, error) {
	return m.client.rdb.PTTL(ctx, m.key()).Result()
}

//Personal.AI order the ending

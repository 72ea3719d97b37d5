package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitInfo is the limiter state reported to the client.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter decides whether the request identified by key may proceed.
type RateLimiter interface {
	Allow(key string) (bool, RateLimitInfo)
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucketLimiter keeps one in-memory token bucket per key. Buckets idle
// for longer than idleTTL are dropped on the next Allow call that sweeps.
type TokenBucketLimiter struct {
	rate      float64
	burstSize int
	idleTTL   time.Duration
	now       func() time.Time

	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	lastSweep time.Time
}

// NewTokenBucketLimiter allows rate requests per second with bursts of
// burstSize.
func NewTokenBucketLimiter(rate float64, burstSize int) *TokenBucketLimiter {
	if burstSize < 1 {
		burstSize = 1
	}
	return &TokenBucketLimiter{
		rate:      rate,
		burstSize: burstSize,
		idleTTL:   10 * time.Minute,
		now:       time.Now,
		buckets:   make(map[string]*tokenBucket),
	}
}

// Allow takes one token from key's bucket.
func (l *TokenBucketLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: float64(l.burstSize), lastRefill: now}
		l.buckets[key] = b
	}
	b.tokens = math.Min(float64(l.burstSize), b.tokens+now.Sub(b.lastRefill).Seconds()*l.rate)
	b.lastRefill = now

	info := RateLimitInfo{Limit: l.burstSize, ResetAt: now.Add(l.refillAfter(b.tokens))}
	if b.tokens < 1 {
		return false, info
	}
	b.tokens--
	info.Remaining = int(b.tokens)
	return true, info
}

// refillAfter is the wait until the bucket holds one token again.
func (l *TokenBucketLimiter) refillAfter(tokens float64) time.Duration {
	if tokens >= 1 || l.rate <= 0 {
		return 0
	}
	return time.Duration((1 - tokens) / l.rate * float64(time.Second))
}

func (l *TokenBucketLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.lastRefill) >= l.idleTTL {
			delete(l.buckets, k)
		}
	}
}

// BucketCount returns the number of tracked keys.
func (l *TokenBucketLimiter) BucketCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimit rejects requests over the limit with 429 and a Retry-After
// header. Keys are the client IP; mount chi's RealIP first behind a proxy.
func RateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, info := limiter.Allow(clientIP(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))

			if !allowed {
				retry := int(math.Ceil(time.Until(info.ResetAt).Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"error":{"code":"RATE_LIMITED","message":"rate limit exceeded, please retry later"}}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

//Personal.AI order the ending

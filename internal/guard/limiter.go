// Package guard provides request throttling and security anomaly tracking.
package guard

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/openballot/openballot/internal/clock"
	apperrors "github.com/openballot/openballot/internal/errors"
)

const (
	// DefaultRequestLimit is the number of requests allowed per window and key.
	DefaultRequestLimit = 100

	// DefaultRequestWindow is the throttling window.
	DefaultRequestWindow = 15 * time.Minute
)

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type memoryLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps a token bucket per key. Idle keys are swept
// periodically so the map does not grow without bound.
type MemoryLimiter struct {
	mu         sync.Mutex
	entries    map[string]*memoryLimiterEntry
	limit      rate.Limit
	burst      int
	idleAfter  time.Duration
	sweepEvery int
	calls      int
	clk        clock.Clock
}

func NewMemoryLimiter(limit int, window time.Duration, clk clock.Clock) *MemoryLimiter {
	if limit <= 0 {
		limit = DefaultRequestLimit
	}
	if window <= 0 {
		window = DefaultRequestWindow
	}
	return &MemoryLimiter{
		entries:    make(map[string]*memoryLimiterEntry),
		limit:      rate.Every(window / time.Duration(limit)),
		burst:      limit,
		idleAfter:  2 * window,
		sweepEvery: 1024,
		clk:        clk,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	l.calls++
	if l.calls >= l.sweepEvery {
		l.calls = 0
		l.sweep(now)
	}

	entry, ok := l.entries[key]
	if !ok {
		entry = &memoryLimiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1), nil
}

// sweep drops keys idle longer than idleAfter. Caller holds the lock.
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.idleAfter {
			delete(l.entries, key)
		}
	}
}

// RedisLimiter counts requests in a sliding window backed by a sorted
// set per key, so the limit holds across multiple server instances.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	clk    clock.Clock
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, clk clock.Clock) *RedisLimiter {
	if limit <= 0 {
		limit = DefaultRequestLimit
	}
	if window <= 0 {
		window = DefaultRequestWindow
	}
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		clk:    clk,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.clk.Now()
	redisKey := "guard:rate:" + key
	windowStart := now.Add(-l.window).UnixNano()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.Must(uuid.NewV7()).String(),
	})
	card := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, apperrors.Wrap(err, "failed to update rate window")
	}

	return card.Val() <= l.limit, nil
}

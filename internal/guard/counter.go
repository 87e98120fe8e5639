package guard

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openballot/openballot/internal/clock"
	apperrors "github.com/openballot/openballot/internal/errors"
)

// CounterStore counts keyed events inside a sliding window. Incr records
// one event and returns the number of events still inside the window.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// MemoryCounterStore keeps event timestamps per key in process memory.
type MemoryCounterStore struct {
	mu     sync.Mutex
	events map[string][]time.Time
	clk    clock.Clock
}

func NewMemoryCounterStore(clk clock.Clock) *MemoryCounterStore {
	return &MemoryCounterStore{
		events: make(map[string][]time.Time),
		clk:    clk,
	}
}

func (s *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	cutoff := now.Add(-window)

	kept := s.events[key][:0]
	for _, at := range s.events[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	kept = append(kept, now)
	s.events[key] = kept

	return int64(len(kept)), nil
}

// RedisCounterStore counts events in Redis sorted sets, shared across
// server instances.
type RedisCounterStore struct {
	client *redis.Client
	clk    clock.Clock
}

func NewRedisCounterStore(client *redis.Client, clk clock.Clock) *RedisCounterStore {
	return &RedisCounterStore{client: client, clk: clk}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := s.clk.Now()
	redisKey := "guard:counter:" + key
	windowStart := now.Add(-window).UnixNano()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.Must(uuid.NewV7()).String(),
	})
	card := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, apperrors.Wrap(err, "failed to update event window")
	}

	return card.Val(), nil
}

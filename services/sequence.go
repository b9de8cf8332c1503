package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DailySequencer hands out the per-day, per-resort booking sequence. The
// counter must be atomic: two holds created in the same minute still need
// distinct suffixes.
type DailySequencer interface {
	Next(ctx context.Context, resortCode, dayKey string) (int64, error)
}

// RedisSequencer backs the counter with INCR on a day-scoped key. Keys expire
// after two days; the sequence only has to be unique within one.
type RedisSequencer struct {
	client *redis.Client
}

func NewRedisSequencer(client *redis.Client) *RedisSequencer {
	return &RedisSequencer{client: client}
}

func (s *RedisSequencer) Next(ctx context.Context, resortCode, dayKey string) (int64, error) {
	key := fmt.Sprintf("bookingseq:%s:%s", resortCode, dayKey)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("booking sequence incr: %w", err)
	}
	if n == 1 {
		// best-effort; a lingering key only wastes a few bytes
		s.client.Expire(ctx, key, 48*time.Hour)
	}
	return n, nil
}

// MemorySequencer is the in-process fallback used by tests.
type MemorySequencer struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{counts: make(map[string]int64)}
}

func (s *MemorySequencer) Next(_ context.Context, resortCode, dayKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := resortCode + ":" + dayKey
	s.counts[key]++
	return s.counts[key], nil
}

package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/charlesng35/caseintake/internal/cache"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// memoryRateStore provides process-local rate limiting. It is concurrency-safe.
type memoryRateStore struct {
	mu    sync.Mutex
	data  map[string]*memoryCounter
	clock func() time.Time
}

type memoryCounter struct {
	count     int
	windowEnd time.Time
}

// NewMemoryRateStore constructs an in-memory rate store.
func NewMemoryRateStore() RateStore {
	return newMemoryRateStore(time.Now)
}

func newMemoryRateStore(clock func() time.Time) *memoryRateStore {
	store := &memoryRateStore{
		data:  make(map[string]*memoryCounter),
		clock: clock,
	}
	go store.cleanupLoop(time.NewTicker(time.Minute))
	return store
}

func (s *memoryRateStore) cleanupLoop(tick *time.Ticker) {
	for range tick.C {
		s.prune()
	}
}

func (s *memoryRateStore) prune() {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, counter := range s.data {
		if now.After(counter.windowEnd) {
			delete(s.data, key)
		}
	}
}

func (s *memoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.data[key]
	if !ok || now.After(counter.windowEnd) {
		counter = &memoryCounter{windowEnd: now.Add(window)}
		s.data[key] = counter
	}

	counter.count++

	return counter.count, counter.windowEnd.Sub(now), nil
}

// counterRateStore adapts a shared cache.Counter.
type counterRateStore struct {
	counter cache.Counter
}

// NewCounterRateStore backs rate limiting with a shared counter so limits hold
// across instances.
func NewCounterRateStore(counter cache.Counter) RateStore {
	return &counterRateStore{counter: counter}
}

func (s *counterRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	count, ttl, err := s.counter.IncrementWithTTL(ctx, key, window)
	if err != nil {
		return 0, 0, err
	}
	return int(count), ttl, nil
}

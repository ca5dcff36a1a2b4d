package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryWindow struct {
	windowStart time.Time
	count       int64
	expiresAt   time.Time
}

// MemoryCounterStore is a process-local CounterStore. Suitable for tests and
// single-instance deployments; multi-instance deployments use the shared
// database-backed store so counting stays global.
type MemoryCounterStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
	}
}

// Incr implements CounterStore. A key whose stored window differs from
// windowStart is reset, which expires old windows lazily on access.
func (s *MemoryCounterStore) Incr(_ context.Context, key string, windowStart time.Time, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !w.windowStart.Equal(windowStart) || now.After(w.expiresAt) {
		w = &memoryWindow{windowStart: windowStart, expiresAt: now.Add(ttl)}
		s.windows[key] = w
	}
	w.count++
	return w.count, nil
}

// Purge drops expired windows. Called periodically from the cron runner.
func (s *MemoryCounterStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, w := range s.windows {
		if now.After(w.expiresAt) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps fixed window counters in process memory.
// Expired windows are removed by a background loop until Close is called.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	now             func() time.Time
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
}

type bucket struct {
	count     int64
	expiresAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets the cleanup interval for expired entries.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithStoreClock overrides the time source, used by tests to move through windows.
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates a new in-memory store with automatic cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		buckets:         make(map[string]*bucket),
		now:             time.Now,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// Take counts a hit for key if the current window has room.
func (s *MemoryStore) Take(_ context.Context, key string, limit int, window time.Duration) (bool, int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, exists := s.buckets[key]

	if !exists || !now.Before(b.expiresAt) {
		b = &bucket{count: 1, expiresAt: now.Add(window)}
		s.buckets[key] = b
		return true, b.count, window, nil
	}

	ttl := b.expiresAt.Sub(now)
	if b.count >= int64(limit) {
		return false, b.count, ttl, nil
	}

	b.count++
	return true, b.count, ttl, nil
}

// Len returns the number of tracked keys, including expired ones not yet cleaned.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// Cleanup removes expired windows.
func (s *MemoryStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, b := range s.buckets {
		if !now.Before(b.expiresAt) {
			delete(s.buckets, key)
		}
	}
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}

package store

import (
	"sync"
	"time"
)

// entry is a cached value with its absolute expiry.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// MemoryStore is a concurrency-safe in-memory key/value store with per-entry
// absolute expiration. There is no size bound and no eviction policy other
// than expiry.
type MemoryStore[V any] struct {
	mu sync.RWMutex

	// key: cache key, value: entry with expiry
	data map[string]entry[V]

	now func() time.Time
}

// Option configures a MemoryStore.
type Option func(*memoryOptions)

type memoryOptions struct {
	now func() time.Time
}

// WithClock overrides the time source used to compute and check expiry.
func WithClock(now func() time.Time) Option {
	return func(o *memoryOptions) {
		o.now = now
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore[V any](opts ...Option) *MemoryStore[V] {
	o := memoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore[V]{
		data: make(map[string]entry[V]),
		now:  o.now,
	}
}

// Get returns the value stored under key if it exists and has not expired.
// An expired entry is reported as missing and evicted.
func (s *MemoryStore[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if !s.now().Before(e.expiresAt) {
		s.evict(key, e.expiresAt)
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, replacing any existing entry, with expiry now+ttl.
func (s *MemoryStore[V]) Put(key string, value V, ttl time.Duration) {
	e := entry[V]{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}

	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
}

// Purge physically removes every expired entry and reports how many were dropped.
func (s *MemoryStore[V]) Purge() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.data {
		if !now.Before(e.expiresAt) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries held, expired or not.
func (s *MemoryStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// evict deletes key only if it still holds the expired entry we observed, so a
// concurrent Put that landed in between is not lost.
func (s *MemoryStore[V]) evict(key string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.data[key]; ok && cur.expiresAt.Equal(expiresAt) {
		delete(s.data, key)
	}
}

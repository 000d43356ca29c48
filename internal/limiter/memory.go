package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps buckets in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]Bucket
}

// NewMemoryStore constructs an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]Bucket)}
}

// Incr implements Store.
func (m *MemoryStore) Incr(_ context.Context, key string, now time.Time, window time.Duration) (Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok || now.After(b.ResetAt) {
		b = Bucket{ResetAt: now.Add(window)}
	}
	b.Count++
	m.buckets[key] = b
	return b, nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (Bucket, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[key]
	return b, ok, nil
}

// Reset implements Store.
func (m *MemoryStore) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.buckets, key)
	m.mu.Unlock()
	return nil
}

// Sweep removes buckets whose window ended before now and returns how many were dropped.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, b := range m.buckets {
		if now.After(b.ResetAt) {
			delete(m.buckets, k)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			m.Sweep(now)
		}
	}
}

// Package limiter defines a fixed-window request limiter keyed by principal.
package limiter

import (
	"context"
	"time"
)

// Defaults for staff provisioning endpoints.
const (
	DefaultLimit  = 20
	DefaultWindow = 60 * time.Second
)

// Limiter decides whether a request under key may proceed.
type Limiter interface {
	// Allow records one request and reports whether it is within budget, with a retry-after hint when not.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// Bucket is the per-key window state.
type Bucket struct {
	Count   int
	ResetAt time.Time
}

// Store persists buckets. Incr must be atomic per key.
type Store interface {
	// Incr loads or initializes the bucket, restarts it when now is past ResetAt, and adds one.
	Incr(ctx context.Context, key string, now time.Time, window time.Duration) (Bucket, error)
	// Get returns the bucket for key; ok is false when none exists.
	Get(ctx context.Context, key string) (b Bucket, ok bool, err error)
	// Reset drops the bucket for key.
	Reset(ctx context.Context, key string) error
}

// FixedWindow allows at most limit requests per key in each window.
type FixedWindow struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewFixedWindow constructs a limiter. Non-positive limit or window fall back to defaults.
func NewFixedWindow(store Store, limit int, window time.Duration) *FixedWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &FixedWindow{store: store, limit: limit, window: window, now: time.Now}
}

// WithClock replaces the time source.
func (l *FixedWindow) WithClock(now func() time.Time) *FixedWindow {
	l.now = now
	return l
}

// Allow implements Limiter.
func (l *FixedWindow) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	b, err := l.store.Incr(ctx, key, now, l.window)
	if err != nil {
		return false, 0, err
	}
	if b.Count <= l.limit {
		return true, 0, nil
	}
	retry := b.ResetAt.Sub(now)
	if retry < 0 {
		retry = 0
	}
	return false, retry, nil
}

// Reset clears the budget for key.
func (l *FixedWindow) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, key)
}

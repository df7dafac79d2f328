package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter bounds how often a client identifier may perform an action inside
// a fixed time window. It is constructed once per process and injected into
// the handlers that need it.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int) (bool, error)
}

// Counter is the backing store for window counts. The redis repository
// satisfies it; counts stay per-process only when the memory limiter is used.
type Counter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// WindowLimiter is a fixed-window limiter over a shared counter. Keys are
// bucketed by window index so counters roll over without cleanup.
type WindowLimiter struct {
	counter Counter
	window  time.Duration
	prefix  string
}

func NewWindowLimiter(counter Counter, window time.Duration, prefix string) *WindowLimiter {
	return &WindowLimiter{
		counter: counter,
		window:  window,
		prefix:  prefix,
	}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string, limit int) (bool, error) {
	bucket := time.Now().UnixNano() / int64(l.window)
	counterKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)

	count, err := l.counter.IncrWindow(ctx, counterKey, l.window)
	if err != nil {
		return false, fmt.Errorf("failed to bump rate counter: %w", err)
	}
	return count <= int64(limit), nil
}

// MemoryLimiter is an in-process fixed-window limiter for redis-less
// deployments and tests. Single-instance only.
type MemoryLimiter struct {
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	counts map[string]*windowCount
}

type windowCount struct {
	bucket int64
	count  int
}

func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		window: window,
		now:    time.Now,
		counts: make(map[string]*windowCount),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int) (bool, error) {
	bucket := l.now().UnixNano() / int64(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	wc, ok := l.counts[key]
	if !ok || wc.bucket != bucket {
		wc = &windowCount{bucket: bucket}
		l.counts[key] = wc
	}
	wc.count++
	return wc.count <= limit, nil
}

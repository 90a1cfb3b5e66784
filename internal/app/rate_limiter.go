package app

import (
	"sync"
	"time"
)

type rateBucket struct {
	count int
	reset time.Time
}

// RateLimiter is a fixed-window admission gate keyed by source address.
// State is process-lifetime only; the decision itself never errors.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	limit   int
	window  time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		limit:   limit,
		window:  window,
	}
}

// Allow counts one admission attempt from addr and reports whether it stays
// within the window's ceiling. A window that has elapsed resets the bucket
// before counting.
func (l *RateLimiter) Allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[addr]
	if !ok {
		b = &rateBucket{reset: now.Add(l.window)}
		l.buckets[addr] = b
	}
	if now.After(b.reset) {
		b.count = 0
		b.reset = now.Add(l.window)
	}
	b.count++
	return b.count <= l.limit
}

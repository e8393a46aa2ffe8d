package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a fixed-window request limiter keyed by caller identity.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
}

type window struct {
	start time.Time
	count int
}

// NewLimiter creates a limiter allowing limit requests per period per key
func NewLimiter(limit int, period time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
	}
}

// Allow records a request for key and reports whether it is within the
// limit. An empty key is never limited.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		l.windows[key] = &window{start: now, count: 1}
		l.pruneLocked(now)
		return true
	}

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// pruneLocked drops windows that ended long ago; called with l.mu held
func (l *Limiter) pruneLocked(now time.Time) {
	if len(l.windows) < 1024 {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.start) >= 2*l.period {
			delete(l.windows, key)
		}
	}
}

package relay

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default rate limit: 20 requests per minute per caller.
const (
	DefaultRateLimit  = 20
	DefaultRateWindow = time.Minute

	// maxTrackedCallers bounds memory; the least recently seen caller is
	// dropped first when the table is full.
	maxTrackedCallers = 10000
)

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window request counter keyed by caller. Windows
// expire from the table on their own once they end.
type RateLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows *expirable.LRU[string, *window]
}

// NewRateLimiter allows limit requests per period per key.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if period <= 0 {
		period = DefaultRateWindow
	}
	return &RateLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: expirable.NewLRU[string, *window](maxTrackedCallers, nil, period),
	}
}

// Allow counts one request for key and reports whether it is within the
// limit.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows.Get(key)
	if !ok || now.After(w.resetAt) {
		l.windows.Add(key, &window{count: 1, resetAt: now.Add(l.period)})
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Tracked returns the number of callers with a live window.
func (l *RateLimiter) Tracked() int {
	return l.windows.Len()
}

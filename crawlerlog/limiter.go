package crawlerlog

import (
	"sync"
	"time"
)

// windowLimiter counts events per key in fixed windows. The whole table
// resets when a window ends, so it never needs a sweeper.
type windowLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	max    int
	window time.Duration
	start  time.Time
	now    func() time.Time
}

func newWindowLimiter(max int, window time.Duration) *windowLimiter {
	return &windowLimiter{
		counts: make(map[string]int),
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// allow records one event for key and reports whether it is within max.
func (l *windowLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.start) >= l.window {
		clear(l.counts)
		l.start = now
	}
	if l.counts[key] >= l.max {
		return false
	}
	l.counts[key]++
	return true
}

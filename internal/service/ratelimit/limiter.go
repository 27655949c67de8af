package ratelimit

import (
	"sync"
	"time"
)

// staleAfter is how long an untouched bucket survives before pruning.
const staleAfter = 10 * time.Minute

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter is a per-key token bucket, used to bound expensive operations
// like manual analysis triggers.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	pruned  time.Time
}

func New() *Limiter {
	return &Limiter{buckets: make(map[string]*bucket), pruned: time.Now()}
}

// Allow consumes one token for key if available. Unknown keys start full.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.pruned) > staleAfter {
		l.prune(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (l *Limiter) prune(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.last) > staleAfter {
			delete(l.buckets, k)
		}
	}
	l.pruned = now
}

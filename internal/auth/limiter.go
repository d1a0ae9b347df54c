package auth

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultMaxKeys = 10000

// Limiter keeps one token bucket per key. Exhausting the bucket of one
// account name leaves every other name untouched.
type Limiter struct {
	limit   rate.Limit
	burst   int
	maxKeys int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func NewLimiter(limit rate.Limit, burst int) *Limiter {
	return &Limiter{
		limit:   limit,
		burst:   burst,
		maxKeys: defaultMaxKeys,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether one more attempt for key may proceed now. Keys are
// compared case-insensitively.
func (l *Limiter) Allow(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))

	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.maxKeys {
			l.prune(time.Now())
		}
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}

// prune drops buckets that have refilled completely; a new bucket for the
// same key starts in the same state. Callers hold l.mu.
func (l *Limiter) prune(now time.Time) {
	for key, bucket := range l.buckets {
		if bucket.TokensAt(now) >= float64(l.burst) {
			delete(l.buckets, key)
		}
	}
}

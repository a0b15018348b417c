// Package ratelimit provides per-key token buckets that report exhaustion as
// a domain rate-limit error carrying the time until the next token.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	domainerrors "lending-admin-api/internal/domain/errors"
)

const (
	// sweepThreshold is the number of tracked keys above which idle
	// buckets are dropped.
	sweepThreshold = 10000
	idleTTL        = 10 * time.Minute
	// maxRetryAfter caps the wait reported to clients.
	maxRetryAfter = time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
}

// New allows perMinute events per key per minute with the given burst.
func New(perMinute, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
	}
}

// Allow consumes one token for key at now, or returns a
// *domainerrors.RateLimitError when none is available.
func (l *Limiter) Allow(key string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= sweepThreshold {
			l.sweep(now)
		}
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return domainerrors.RateLimited(maxRetryAfter)
	}
	delay := res.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	res.CancelAt(now)
	// A zero rate never refills and reports rate.InfDuration.
	if delay == rate.InfDuration || delay > maxRetryAfter {
		delay = maxRetryAfter
	}
	return domainerrors.RateLimited(delay)
}

func (l *Limiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleTTL {
			delete(l.buckets, k)
		}
	}
}

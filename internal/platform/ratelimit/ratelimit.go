// Package ratelimit holds the process-wide anti-abuse state for public
// endpoints: at most one entry per client IP with a short TTL. It is an
// optimisation against drive-by submissions, not a correctness mechanism,
// so it stays in-process.
package ratelimit

import (
	"sync"
	"time"
)

type Limiter struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

func New(ttl time.Duration) *Limiter {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Limiter{
		lastHit: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Allow records a hit for ip and reports whether it was outside the TTL
// window. An empty ip is always allowed.
func (l *Limiter) Allow(ip string) bool {
	if ip == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.lastHit[ip]; ok && now.Sub(last) < l.ttl {
		return false
	}
	l.lastHit[ip] = now
	l.sweepLocked(now)
	return true
}

// sweepLocked drops expired entries so the map stays bounded by active IPs.
func (l *Limiter) sweepLocked(now time.Time) {
	if len(l.lastHit) < 1024 {
		return
	}
	for ip, last := range l.lastHit {
		if now.Sub(last) >= l.ttl {
			delete(l.lastHit, ip)
		}
	}
}

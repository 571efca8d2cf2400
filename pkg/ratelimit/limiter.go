// Package ratelimit throttles command invocations per sender.
// Each sender gets a token bucket refilled at a steady per-minute rate.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pruneThreshold is the number of tracked senders above which idle
// buckets are dropped.
const pruneThreshold = 1024

// Config holds rate limiter configuration.
type Config struct {
	Enabled           bool
	CommandsPerMinute int
	Burst             int
}

// DefaultConfig returns the default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:           false,
		CommandsPerMinute: 20,
		Burst:             5,
	}
}

// Limiter keeps one token bucket per key.
type Limiter struct {
	config  Config
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	now     func() time.Time
}

// NewLimiter creates a Limiter. Non-positive rates or bursts fall back to
// the defaults.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.CommandsPerMinute <= 0 {
		config.CommandsPerMinute = def.CommandsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = def.Burst
	}
	return &Limiter{
		config:  config,
		limit:   rate.Limit(float64(config.CommandsPerMinute) / 60.0),
		burst:   config.Burst,
		buckets: make(map[string]*rate.Limiter),
		now:     time.Now,
	}
}

// Allow reports whether key may run another command now, consuming a token
// if so. A disabled or nil limiter always allows.
func (l *Limiter) Allow(key string) bool {
	if l == nil || !l.config.Enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= pruneThreshold {
			l.pruneLocked(now)
		}
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// pruneLocked drops buckets that have refilled completely; recreating them
// later is indistinguishable from keeping them.
func (l *Limiter) pruneLocked(now time.Time) {
	for key, b := range l.buckets {
		if b.TokensAt(now) >= float64(l.burst) {
			delete(l.buckets, key)
		}
	}
}

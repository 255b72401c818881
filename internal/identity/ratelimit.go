package identity

import (
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedKeys bounds the limiter map; when exceeded, the map is
// reset rather than evicted piecemeal, which briefly refills every
// bucket but keeps memory flat.
const maxTrackedKeys = 10000

// LoginLimiter throttles login attempts per email so credential
// guessing against one account cannot run unbounded.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewLoginLimiter allows rps sustained attempts per key with the given
// burst.
func NewLoginLimiter(rps float64, burst int) *LoginLimiter {
	return &LoginLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether another attempt for key is permitted now.
func (l *LoginLimiter) Allow(key string) bool {
	key = strings.ToLower(key)

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.limiters) >= maxTrackedKeys {
		l.limiters = make(map[string]*rate.Limiter)
	}

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[key] = limiter
	}
	return limiter.Allow()
}

package router

import (
	"sync"

	"golang.org/x/time/rate"
)

// Per-connection frame budget. Generous for a keepalive-driven protocol;
// the point is containing a misbehaving peer, not shaping traffic.
const (
	framesPerSecond = 20
	frameBurst      = 40
)

// limiter tracks a token-bucket rate limit per connection id. Entries are
// released on disconnect, so there is no periodic sweep.
type limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func newLimiter() *limiter {
	return &limiter{buckets: make(map[string]*rate.Limiter)}
}

// allow reports whether the connection may process another frame now.
func (l *limiter) allow(connID string) bool {
	l.mu.Lock()
	bucket, ok := l.buckets[connID]
	if !ok {
		bucket = rate.NewLimiter(rate.Limit(framesPerSecond), frameBurst)
		l.buckets[connID] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}

// release drops the bucket for a closed connection.
func (l *limiter) release(connID string) {
	l.mu.Lock()
	delete(l.buckets, connID)
	l.mu.Unlock()
}

package llm

import (
	"context"
	"sync"
	"time"
)

// DefaultRequestInterval is the minimum spacing between API requests.
const DefaultRequestInterval = 500 * time.Millisecond

// RateLimiter spaces requests at a fixed minimum interval. It is safe for use
// from concurrent analysis invocations sharing one client.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewRateLimiter creates a rate limiter with the given minimum interval
// between granted slots. A non-positive interval disables waiting.
func NewRateLimiter(interval time.Duration) (limiter *RateLimiter) {
	limiter = &RateLimiter{
		interval: interval,
	}
	return limiter
}

// WaitForSlot blocks until the next request slot is available or the context
// is done.
func (r *RateLimiter) WaitForSlot(ctx context.Context) (err error) {
	if r.interval <= 0 {
		return err
	}

	r.mu.Lock()
	now := time.Now()
	wait := r.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	r.next = now.Add(wait + r.interval)
	r.mu.Unlock()

	if wait == 0 {
		return err
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		err = ctx.Err()
		return err
	case <-timer.C:
		return err
	}
}

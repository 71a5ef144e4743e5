package inference

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces outbound inference calls so concurrent document tasks
// cannot exceed the configured request rate. Each caller reserves the next
// free slot under the lock, then waits for it outside the lock.
type RateLimiter struct {
	mu       sync.Mutex
	next     time.Time
	interval time.Duration
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{interval: time.Second / time.Duration(requestsPerSecond)}
}

// WaitTurn blocks until the caller's reserved slot arrives or the context is
// done. The slot stays consumed either way.
func (r *RateLimiter) WaitTurn(ctx context.Context) error {
	r.mu.Lock()
	now := time.Now()
	scheduled := r.next
	if scheduled.Before(now) {
		scheduled = now
	}
	r.next = scheduled.Add(r.interval)
	r.mu.Unlock()

	wait := time.Until(scheduled)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

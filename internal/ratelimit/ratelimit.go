// Package ratelimit throttles calls made on behalf of data-fetch integrations and rotates their API keys.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultRequestsPerMinute is used when a non-positive rate is requested.
const DefaultRequestsPerMinute = 60

// window is the span over which calls are counted.
const window = time.Minute

// RateLimiter allows at most a fixed number of calls in any rolling one-minute window.
type RateLimiter struct {
	mu    sync.Mutex
	limit int
	calls []time.Time // ascending
	now   func() time.Time
}

// NewRateLimiter creates a limiter for requestsPerMinute calls.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	return &RateLimiter{
		limit: requestsPerMinute,
		calls: make([]time.Time, 0, requestsPerMinute),
		now:   time.Now,
	}
}

// Limit returns the number of calls allowed per minute.
func (r *RateLimiter) Limit() int {
	return r.limit
}

// Wait blocks until the window has room and records the call.
// It returns the context error if ctx is done before that.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay := r.reserve()
		if delay <= 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve records a call and returns 0 when the window has room.
// Otherwise it returns how long until the oldest call leaves the window.
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-window)
	expired := 0
	for expired < len(r.calls) && !r.calls[expired].After(cutoff) {
		expired++
	}
	r.calls = r.calls[expired:]

	if len(r.calls) < r.limit {
		r.calls = append(r.calls, now)
		return 0
	}
	return r.calls[0].Add(window).Sub(now) + time.Millisecond
}

// InWindow returns the number of calls recorded in the current window.
func (r *RateLimiter) InWindow() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-window)
	n := 0
	for _, c := range r.calls {
		if c.After(cutoff) {
			n++
		}
	}
	return n
}

// APIKeyRotator hands out keys from a fixed list in round-robin order.
type APIKeyRotator struct {
	mu     sync.Mutex
	keys   []string
	cursor int
	usage  map[string]int
}

// NewAPIKeyRotator creates a rotator over keys. An empty list yields a single empty key.
func NewAPIKeyRotator(keys []string) *APIKeyRotator {
	if len(keys) == 0 {
		keys = []string{""}
	}
	return &APIKeyRotator{
		keys:  append([]string(nil), keys...),
		usage: make(map[string]int, len(keys)),
	}
}

// NextKey returns the next key and advances the cursor.
func (k *APIKeyRotator) NextKey() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	key := k.keys[k.cursor]
	k.cursor = (k.cursor + 1) % len(k.keys)
	k.usage[key]++
	return key
}

// UsageCounts returns how many times each key was handed out.
func (k *APIKeyRotator) UsageCounts() map[string]int {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make(map[string]int, len(k.usage))
	for key, n := range k.usage {
		out[key] = n
	}
	return out
}

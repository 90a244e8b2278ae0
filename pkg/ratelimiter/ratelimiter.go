package ratelimiter

import (
	"strings"
	"sync"
	"time"
)

// RatePolicy defines the rate limit configuration for a namespace
type RatePolicy struct {
	MaxAttempts int
	Window      time.Duration
}

// windowCounter counts attempts inside one fixed window.
type windowCounter struct {
	windowStart time.Time
	count       int
}

// RateLimiter provides in-memory rate limiting with namespace support.
// Each namespace carries its own policy and counts attempts per key inside
// fixed windows, so a steady budget like "50 sends per second per tenant"
// costs one counter per active key rather than a timestamp per attempt.
//
// Example usage:
//
//	rl := ratelimiter.NewRateLimiter()
//	rl.SetPolicy("pipeline_send", 50, time.Second)
//	rl.SetPolicy("ops_auth", 5, 5*time.Minute)
//
//	if !rl.Allow("pipeline_send", tenantID) {
//	    // defer the job, the budget is spent
//	}
type RateLimiter struct {
	mu          sync.RWMutex
	counters    map[string]windowCounter // "namespace:key" -> current window
	policies    map[string]RatePolicy    // namespace -> policy
	stopCleanup chan struct{}
	stopped     bool
	now         func() time.Time
}

// NewRateLimiter creates a new rate limiter with namespace support.
// A background goroutine drops counters whose window has passed; call Stop
// when the limiter is no longer needed.
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		counters:    make(map[string]windowCounter),
		policies:    make(map[string]RatePolicy),
		stopCleanup: make(chan struct{}),
		now:         time.Now,
	}

	go rl.cleanup()

	return rl
}

// SetPolicy configures the rate limit policy for a namespace. Call it
// during initialization, before Allow is used for that namespace.
func (rl *RateLimiter) SetPolicy(namespace string, maxAttempts int, window time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.policies[namespace] = RatePolicy{
		MaxAttempts: maxAttempts,
		Window:      window,
	}
}

// Allow reports whether one more attempt fits the budget for the given
// namespace and key, counting it when it does. A namespace without a
// policy denies everything: failing closed beats silently unlimited.
func (rl *RateLimiter) Allow(namespace, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, exists := rl.policies[namespace]
	if !exists {
		return false
	}

	now := rl.now()
	compositeKey := namespace + ":" + key

	counter := rl.counters[compositeKey]
	if counter.windowStart.IsZero() || now.Sub(counter.windowStart) >= policy.Window {
		counter = windowCounter{windowStart: now}
	}

	if counter.count >= policy.MaxAttempts {
		rl.counters[compositeKey] = counter
		return false
	}

	counter.count++
	rl.counters[compositeKey] = counter
	return true
}

// Reset clears the current window for the given namespace and key. Used
// after a successful operation should forgive earlier failures, such as a
// correct password after a few wrong ones.
func (rl *RateLimiter) Reset(namespace, key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.counters, namespace+":"+key)
}

// GetRemainingWindow returns the number of seconds until the current
// window for the given namespace and key expires, rounded up. Useful for
// a Retry-After header. Returns 0 when nothing is counted.
func (rl *RateLimiter) GetRemainingWindow(namespace, key string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	policy, exists := rl.policies[namespace]
	if !exists {
		return 0
	}

	counter, ok := rl.counters[namespace+":"+key]
	if !ok || counter.windowStart.IsZero() {
		return 0
	}

	remaining := counter.windowStart.Add(policy.Window).Sub(rl.now())
	if remaining <= 0 {
		return 0
	}

	return int(remaining.Seconds()) + 1 // Round up
}

// cleanup periodically sweeps expired counters so an unbounded key space
// (tenant ids, client addresses) cannot grow the map forever.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCleanup:
			return
		}
	}
}

// sweep drops every counter whose window has fully passed, along with
// counters whose namespace lost its policy.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for compositeKey, counter := range rl.counters {
		namespace := compositeKey
		if idx := strings.IndexByte(compositeKey, ':'); idx >= 0 {
			namespace = compositeKey[:idx]
		}

		policy, exists := rl.policies[namespace]
		if !exists || now.Sub(counter.windowStart) >= policy.Window {
			delete(rl.counters, compositeKey)
		}
	}
}

// Stop stops the background cleanup goroutine. Safe to call multiple times.
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.stopped {
		close(rl.stopCleanup)
		rl.stopped = true
	}
}

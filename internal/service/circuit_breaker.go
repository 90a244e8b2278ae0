package service

import (
	"sync"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
)

// BreakerState is the lifecycle state of one circuit breaker
type BreakerState int

const (
	// BreakerClosed lets calls through and tracks outcomes
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until the reset timeout passes
	BreakerOpen
	// BreakerHalfOpen lets a single probe call through
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds the tuning knobs for driver circuit breakers
type CircuitBreakerConfig struct {
	// BucketCount and BucketSize define the rolling window
	BucketCount int
	BucketSize  time.Duration

	// ErrorRateThreshold opens the circuit when the window's failure rate
	// reaches it and MinCalls have been observed
	ErrorRateThreshold float64
	MinCalls           int

	// ResetTimeout is how long the circuit stays open before a probe
	ResetTimeout time.Duration

	// CallTimeout bounds a single provider call
	CallTimeout time.Duration
}

// DefaultCircuitBreakerConfig returns the production settings
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		BucketCount:        10,
		BucketSize:         1 * time.Second,
		ErrorRateThreshold: 0.70,
		MinCalls:           10,
		ResetTimeout:       60 * time.Second,
		CallTimeout:        35 * time.Second,
	}
}

type breakerBucket struct {
	window    int64
	successes int
	failures  int
}

// CircuitBreaker tracks one driver's health over a rolling window of
// per-second buckets. Provider calls that ended in a retryable error count
// as failures; a definitive provider answer counts as a healthy call even
// when the message is refused.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu       sync.Mutex
	state    BreakerState
	openedAt time.Time
	buckets  []breakerBucket

	// clock is swapped in tests
	clock func() time.Time
}

// NewCircuitBreaker creates a closed breaker with the given configuration
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.BucketCount <= 0 {
		config.BucketCount = 10
	}
	if config.BucketSize <= 0 {
		config.BucketSize = 1 * time.Second
	}
	return &CircuitBreaker{
		config:  config,
		buckets: make([]breakerBucket, config.BucketCount),
		clock:   time.Now,
	}
}

// Allow reports whether a call may proceed. An open breaker whose reset
// timeout has passed moves to half open and admits exactly one probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if cb.clock().Sub(cb.openedAt) >= cb.config.ResetTimeout {
			cb.state = BreakerHalfOpen
			return true
		}
		return false
	case BreakerHalfOpen:
		// The probe is already in flight
		return false
	}
	return false
}

// RecordSuccess records a healthy provider call. A half open breaker closes
// and forgets its window.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerHalfOpen {
		cb.state = BreakerClosed
		cb.buckets = make([]breakerBucket, cb.config.BucketCount)
		return
	}
	cb.bucket().successes++
}

// RecordFailure records a retryable provider failure. A half open breaker
// reopens immediately; a closed one opens when the window trips the
// threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerHalfOpen {
		cb.state = BreakerOpen
		cb.openedAt = cb.clock()
		return
	}

	cb.bucket().failures++

	successes, failures := cb.windowCounts()
	total := successes + failures
	if total < cb.config.MinCalls {
		return
	}
	if float64(failures)/float64(total) >= cb.config.ErrorRateThreshold {
		cb.state = BreakerOpen
		cb.openedAt = cb.clock()
	}
}

// State returns the current state, accounting for reset timeout expiry
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// bucket returns the live bucket for the current window slot, resetting a
// stale one. Callers hold the mutex.
func (cb *CircuitBreaker) bucket() *breakerBucket {
	window := cb.clock().UnixNano() / int64(cb.config.BucketSize)
	idx := int(window % int64(len(cb.buckets)))
	b := &cb.buckets[idx]
	if b.window != window {
		b.window = window
		b.successes = 0
		b.failures = 0
	}
	return b
}

// windowCounts sums the buckets still inside the rolling window. Callers
// hold the mutex.
func (cb *CircuitBreaker) windowCounts() (successes, failures int) {
	window := cb.clock().UnixNano() / int64(cb.config.BucketSize)
	oldest := window - int64(len(cb.buckets)) + 1
	for i := range cb.buckets {
		if cb.buckets[i].window >= oldest && cb.buckets[i].window <= window {
			successes += cb.buckets[i].successes
			failures += cb.buckets[i].failures
		}
	}
	return successes, failures
}

// DriverCircuitBreakers manages one breaker per provider driver
type DriverCircuitBreakers struct {
	breakers sync.Map // map[domain.ProviderKind]*CircuitBreaker
	config   CircuitBreakerConfig
}

// NewDriverCircuitBreakers creates a per-driver breaker registry
func NewDriverCircuitBreakers(config CircuitBreakerConfig) *DriverCircuitBreakers {
	if config.ErrorRateThreshold == 0 {
		config = DefaultCircuitBreakerConfig()
	}
	return &DriverCircuitBreakers{config: config}
}

// For returns the breaker for a driver kind, creating it on first use
func (b *DriverCircuitBreakers) For(kind domain.ProviderKind) *CircuitBreaker {
	if cb, ok := b.breakers.Load(kind); ok {
		return cb.(*CircuitBreaker)
	}
	actual, _ := b.breakers.LoadOrStore(kind, NewCircuitBreaker(b.config))
	return actual.(*CircuitBreaker)
}

// Config returns the registry configuration
func (b *DriverCircuitBreakers) Config() CircuitBreakerConfig {
	return b.config
}

// CircuitBreakerStats describes one breaker for the ops API
type CircuitBreakerStats struct {
	State     string `json:"state"`
	Successes int    `json:"successes"`
	Failures  int    `json:"failures"`
}

// Stats snapshots every known breaker keyed by driver kind
func (b *DriverCircuitBreakers) Stats() map[string]CircuitBreakerStats {
	stats := make(map[string]CircuitBreakerStats)
	b.breakers.Range(func(key, value interface{}) bool {
		kind := key.(domain.ProviderKind)
		cb := value.(*CircuitBreaker)

		cb.mu.Lock()
		successes, failures := cb.windowCounts()
		stats[string(kind)] = CircuitBreakerStats{
			State:     cb.state.String(),
			Successes: successes,
			Failures:  failures,
		}
		cb.mu.Unlock()
		return true
	})
	return stats
}

package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/logger"
)

// mxDomainAliases folds sibling mailbox domains onto one canonical name so
// they draw from the same budget.
var mxDomainAliases = map[string]string{
	"googlemail.com": "gmail.com",
	"live.com":       "outlook.com",
	"hotmail.com":    "outlook.com",
	"msn.com":        "outlook.com",
	"ymail.com":      "yahoo.com",
	"rocketmail.com": "yahoo.com",
}

// defaultMXLimit applies to any recipient domain without its own entry.
// Inbox providers that tolerate a higher acceptance rate get one.
var defaultMXLimit = domain.MXDomainLimit{PerSecond: 1, PerMinute: 120}

var knownMXLimits = map[string]domain.MXDomainLimit{
	"gmail.com": {PerSecond: 20, PerMinute: 1200},
}

// MXRateLimiter counts sends per recipient domain in Redis, one counter per
// second window and one per minute window. Both counters are bumped in a
// single pipeline so the check stays atomic under concurrent workers.
type MXRateLimiter struct {
	redis  redis.Cmdable
	logger logger.Logger
	clock  func() time.Time

	mu     sync.RWMutex
	limits map[string]domain.MXDomainLimit
}

func NewMXRateLimiter(client redis.Cmdable, log logger.Logger) *MXRateLimiter {
	limits := make(map[string]domain.MXDomainLimit, len(knownMXLimits))
	for d, l := range knownMXLimits {
		limits[d] = l
	}
	return &MXRateLimiter{
		redis:  client,
		logger: log,
		clock:  time.Now,
		limits: limits,
	}
}

// SetLimit overrides the ceiling for one canonical domain.
func (l *MXRateLimiter) SetLimit(domainName string, limit domain.MXDomainLimit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits[canonicalMXDomain(domainName)] = limit
}

func (l *MXRateLimiter) limitFor(canonical string) domain.MXDomainLimit {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit, ok := l.limits[canonical]; ok {
		return limit
	}
	return defaultMXLimit
}

// Allow consumes one send slot for the recipient domain. A Redis failure
// fails open: throttling is protection, not correctness.
func (l *MXRateLimiter) Allow(ctx context.Context, recipientDomain string) (*domain.MXLimitResult, error) {
	canonical := canonicalMXDomain(recipientDomain)
	if canonical == "" {
		return &domain.MXLimitResult{Allowed: true}, nil
	}
	limit := l.limitFor(canonical)

	now := l.clock()
	secKey := fmt.Sprintf("mx:%s:sec:%d", canonical, now.Unix())
	minKey := fmt.Sprintf("mx:%s:min:%d", canonical, now.Unix()/60)

	pipe := l.redis.Pipeline()
	secCmd := pipe.Incr(ctx, secKey)
	pipe.Expire(ctx, secKey, 2*time.Second)
	minCmd := pipe.Incr(ctx, minKey)
	pipe.Expire(ctx, minKey, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.WithFields(map[string]interface{}{
			"domain": canonical,
			"error":  err.Error(),
		}).Warn("MX limiter store unavailable, failing open")
		return &domain.MXLimitResult{Allowed: true, Domain: canonical}, nil
	}

	if secCmd.Val() > int64(limit.PerSecond) {
		return &domain.MXLimitResult{
			Allowed:    false,
			Domain:     canonical,
			RetryAfter: time.Second,
		}, nil
	}
	if minCmd.Val() > int64(limit.PerMinute) {
		untilNextMinute := time.Duration(60000-(now.UnixMilli()%60000)) * time.Millisecond
		return &domain.MXLimitResult{
			Allowed:    false,
			Domain:     canonical,
			RetryAfter: untilNextMinute,
		}, nil
	}

	return &domain.MXLimitResult{Allowed: true, Domain: canonical}, nil
}

func canonicalMXDomain(domainName string) string {
	d := strings.ToLower(strings.TrimSpace(domainName))
	if alias, ok := mxDomainAliases[d]; ok {
		return alias
	}
	return d
}

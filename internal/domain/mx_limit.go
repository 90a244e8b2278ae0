package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_mx_rate_limiter.go -package mocks github.com/sendgate/sendgate/internal/domain MXRateLimiter

// MXDomainLimit is the per-recipient-domain sending ceiling
type MXDomainLimit struct {
	PerSecond int `json:"per_second"`
	PerMinute int `json:"per_minute"`
}

// MXLimitResult is the verdict for one send against a recipient domain
type MXLimitResult struct {
	Allowed bool `json:"allowed"`

	// Domain is the canonical domain the limit applied to, after alias
	// folding (googlemail→gmail and the like)
	Domain string `json:"domain"`

	// RetryAfter says how long to wait when not allowed
	RetryAfter time.Duration `json:"retry_after"`
}

// MXRateLimiter throttles sends per recipient mailbox provider so the
// gateway stays under inbox-provider acceptance rates
type MXRateLimiter interface {
	// Allow consumes one send slot for the recipient domain. Limiter
	// backend failures fail open with Allowed=true.
	Allow(ctx context.Context, recipientDomain string) (*MXLimitResult, error)
}

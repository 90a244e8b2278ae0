package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_reputation_metric_repository.go -package mocks github.com/sendgate/sendgate/internal/domain ReputationMetricRepository
//go:generate mockgen -destination mocks/mock_tenant_throttle_repository.go -package mocks github.com/sendgate/sendgate/internal/domain TenantThrottleRepository

// Guardrail thresholds. Crossing either rate, or dropping below the score
// floor, suspends the tenant.
const (
	MaxBounceRate      = 0.02
	MaxComplaintRate   = 0.001
	MinReputationScore = 50.0
)

// ReputationMetric is the daily per-tenant snapshot written by the
// reputation monitor, upserted by (tenant_id, date)
type ReputationMetric struct {
	TenantID        string    `json:"tenant_id"`
	Date            time.Time `json:"date"`
	Sent            int64     `json:"sent"`
	Delivered       int64     `json:"delivered"`
	Bounced         int64     `json:"bounced"`
	BouncedHard     int64     `json:"bounced_hard"`
	BouncedSoft     int64     `json:"bounced_soft"`
	Complained      int64     `json:"complained"`
	Opened          int64     `json:"opened"`
	Clicked         int64     `json:"clicked"`
	BounceRate      float64   `json:"bounce_rate"`
	ComplaintRate   float64   `json:"complaint_rate"`
	OpenRate        float64   `json:"open_rate"`
	ClickRate       float64   `json:"click_rate"`
	ReputationScore float64   `json:"reputation_score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ComputeRates fills the rate fields from the raw counters
func (m *ReputationMetric) ComputeRates() {
	if m.Sent > 0 {
		m.BounceRate = float64(m.Bounced) / float64(m.Sent)
		m.ComplaintRate = float64(m.Complained) / float64(m.Sent)
	}
	if m.Delivered > 0 {
		m.OpenRate = float64(m.Opened) / float64(m.Delivered)
		m.ClickRate = float64(m.Clicked) / float64(m.Delivered)
	}
}

// EngagementRate returns the share of delivered messages that were opened
// or clicked
func (m *ReputationMetric) EngagementRate() float64 {
	if m.Delivered == 0 {
		return 0
	}
	return float64(m.Opened+m.Clicked) / float64(m.Delivered)
}

// ComputeReputationScore scores a tenant in [0,100]: start at 100, subtract
// the bounce excess over threshold ×1000 and the complaint excess ×10000,
// add 20×engagement, clamp.
func ComputeReputationScore(bounceRate, complaintRate, engagementRate float64) float64 {
	score := 100.0
	if bounceRate > MaxBounceRate {
		score -= (bounceRate - MaxBounceRate) * 1000
	}
	if complaintRate > MaxComplaintRate {
		score -= (complaintRate - MaxComplaintRate) * 10000
	}
	score += 20 * engagementRate
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// TenantThrottle is the per-tenant daily send ceiling written by the
// reputation monitor during domain warm-up. The send pipeline treats an
// exhausted throttle as a hard precondition failure.
type TenantThrottle struct {
	TenantID  string    `json:"tenant_id"`
	Date      time.Time `json:"date"`
	MaxSends  int64     `json:"max_sends"`
	SendsUsed int64     `json:"sends_used"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Blocked reports whether the tenant has used up today's ceiling
func (t *TenantThrottle) Blocked() bool {
	return t.SendsUsed >= t.MaxSends
}

// ReputationMetricRepository defines data access for reputation snapshots
type ReputationMetricRepository interface {
	// Upsert inserts or replaces the snapshot for (tenant_id, date)
	Upsert(ctx context.Context, metric *ReputationMetric) error

	// Get retrieves the snapshot for a tenant and date, ErrNotFound if
	// absent
	Get(ctx context.Context, tenantID string, date time.Time) (*ReputationMetric, error)
}

// TenantThrottleRepository defines data access for warm-up throttles
type TenantThrottleRepository interface {
	// Upsert inserts or updates the throttle for (tenant_id, date)
	Upsert(ctx context.Context, throttle *TenantThrottle) error

	// Get retrieves the throttle for a tenant and date, ErrNotFound if
	// absent
	Get(ctx context.Context, tenantID string, date time.Time) (*TenantThrottle, error)

	// IncrementSends bumps sends_used after a successful delivery
	IncrementSends(ctx context.Context, tenantID string, date time.Time) error
}

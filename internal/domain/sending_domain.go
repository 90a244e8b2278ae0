package domain

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"math"
	"time"
)

//go:generate mockgen -destination mocks/mock_sending_domain_repository.go -package mocks github.com/sendgate/sendgate/internal/domain SendingDomainRepository

// DomainStatus represents the verification state of a sending domain
type DomainStatus string

const (
	DomainStatusPending  DomainStatus = "pending"
	DomainStatusVerified DomainStatus = "verified"
	DomainStatusFailed   DomainStatus = "failed"
)

// WarmupConfig describes the ramp applied to a freshly verified domain.
// Stored as JSONB.
type WarmupConfig struct {
	StartVolume    int     `json:"start_volume"`
	DailyIncrease  float64 `json:"daily_increase"`
	MaxDailyVolume int     `json:"max_daily_volume"`
}

// DefaultWarmupConfig is applied when a domain enables warm-up without
// custom values: 50 · 1.5^day capped at 100000.
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		StartVolume:    50,
		DailyIncrease:  1.5,
		MaxDailyVolume: 100000,
	}
}

// Value implements the driver.Valuer interface for database storage
func (c WarmupConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for database retrieval
func (c *WarmupConfig) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return sql.ErrNoRows
	}

	cloned := bytes.Clone(b)
	return json.Unmarshal(cloned, &c)
}

// LimitForDay computes the allowed volume for the given warm-up day:
// min(start · increase^day, cap).
func (c WarmupConfig) LimitForDay(day int) int {
	if day < 0 {
		day = 0
	}
	limit := float64(c.StartVolume) * math.Pow(c.DailyIncrease, float64(day))
	if limit > float64(c.MaxDailyVolume) {
		return c.MaxDailyVolume
	}
	return int(limit)
}

// SendingDomain is a tenant-owned domain emails are sent from.
type SendingDomain struct {
	ID              string        `json:"id"`
	TenantID        string        `json:"tenant_id"`
	Domain          string        `json:"domain"`
	Status          DomainStatus  `json:"status"`
	WarmupEnabled   bool          `json:"warmup_enabled"`
	WarmupStartDate *time.Time    `json:"warmup_start_date,omitempty"`
	WarmupConfig    *WarmupConfig `json:"warmup_config,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// WarmupDay returns how many whole days the domain has been warming up,
// or -1 when warm-up is off or has not started.
func (d *SendingDomain) WarmupDay(now time.Time) int {
	if !d.WarmupEnabled || d.WarmupStartDate == nil {
		return -1
	}
	elapsed := now.UTC().Sub(d.WarmupStartDate.UTC())
	if elapsed < 0 {
		return -1
	}
	return int(elapsed.Hours() / 24)
}

// WarmupLimit returns today's warm-up ceiling, or 0 when no ramp applies.
func (d *SendingDomain) WarmupLimit(now time.Time) int {
	day := d.WarmupDay(now)
	if day < 0 {
		return 0
	}
	cfg := DefaultWarmupConfig()
	if d.WarmupConfig != nil {
		cfg = *d.WarmupConfig
	}
	return cfg.LimitForDay(day)
}

// SendingDomainRepository defines data access for sending domains
type SendingDomainRepository interface {
	// GetByID retrieves a domain, ErrNotFound if absent
	GetByID(ctx context.Context, id string) (*SendingDomain, error)

	// GetByName retrieves a domain by its name within a tenant
	GetByName(ctx context.Context, tenantID, domain string) (*SendingDomain, error)

	// ListByTenant retrieves all domains of a tenant
	ListByTenant(ctx context.Context, tenantID string) ([]*SendingDomain, error)

	// ListWarmingUp retrieves verified domains with warm-up enabled
	ListWarmingUp(ctx context.Context) ([]*SendingDomain, error)
}

package domain

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"
)

//go:generate mockgen -destination mocks/mock_ip_pool_repository.go -package mocks github.com/sendgate/sendgate/internal/domain IPPoolRepository

// IPPoolType categorizes sending IP pools
type IPPoolType string

const (
	IPPoolTypeShared        IPPoolType = "shared"
	IPPoolTypeTransactional IPPoolType = "transactional"
	IPPoolTypeMarketing     IPPoolType = "marketing"
	IPPoolTypeDedicated     IPPoolType = "dedicated"
)

// IPAddressList is the ip_addresses JSONB column
type IPAddressList []string

// Value implements the driver.Valuer interface for database storage
func (l IPAddressList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for database retrieval
func (l *IPAddressList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return sql.ErrNoRows
	}

	cloned := bytes.Clone(b)
	return json.Unmarshal(cloned, &l)
}

// IPPool groups sending IP addresses with a shared reputation
type IPPool struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Type          IPPoolType    `json:"type"`
	IPAddresses   IPAddressList `json:"ip_addresses"`
	IsActive      bool          `json:"is_active"`
	Reputation    float64       `json:"reputation"`
	DailyLimit    *int          `json:"daily_limit,omitempty"`
	HourlyLimit   *int          `json:"hourly_limit,omitempty"`
	WarmupEnabled bool          `json:"warmup_enabled"`
	WarmupConfig  *WarmupConfig `json:"warmup_config,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IPPoolRepository defines data access for IP pools
type IPPoolRepository interface {
	// GetByID retrieves a pool, ErrNotFound if absent
	GetByID(ctx context.Context, id string) (*IPPool, error)

	// GetBestActiveByType retrieves the active pool of the given type with
	// the highest reputation, ties broken by oldest created_at.
	// ErrNotFound when no active pool of that type exists.
	GetBestActiveByType(ctx context.Context, poolType IPPoolType) (*IPPool, error)
}

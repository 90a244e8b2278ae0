package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_tenant_repository.go -package mocks github.com/sendgate/sendgate/internal/domain TenantRepository

// SandboxApprover is recorded on tenants approved by the sandbox monitor.
const SandboxApprover = "auto_approval_system"

// SandboxDailyLimit is the sending allowance granted on auto-approval.
const SandboxDailyLimit = 5000

// Tenant is one customer of the gateway.
type Tenant struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	IsActive           bool       `json:"is_active"`
	IsApproved         bool       `json:"is_approved"`
	IsSuspended        bool       `json:"is_suspended"`
	SuspensionReason   *string    `json:"suspension_reason,omitempty"`
	DailyEmailLimit    int        `json:"daily_email_limit"`
	DefaultFromAddress *string    `json:"default_from_address,omitempty"`
	DefaultFromName    *string    `json:"default_from_name,omitempty"`
	DefaultDomainID    *string    `json:"default_domain_id,omitempty"`
	BounceRate         float64    `json:"bounce_rate"`
	ComplaintRate      float64    `json:"complaint_rate"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	ApprovedBy         *string    `json:"approved_by,omitempty"`
}

// CanSend reports sending eligibility: active, approved and not suspended.
func (t *Tenant) CanSend() bool {
	return t.IsActive && t.IsApproved && !t.IsSuspended
}

// TenantRepository defines data access for tenants
type TenantRepository interface {
	// GetByID retrieves a tenant, ErrNotFound if absent
	GetByID(ctx context.Context, id string) (*Tenant, error)

	// ListActive retrieves all active tenants, suspended ones included
	ListActive(ctx context.Context) ([]*Tenant, error)

	// ListSandboxCandidates retrieves unapproved, active, non-suspended
	// tenants created at or before the cutoff whose rates are under the
	// given ceilings
	ListSandboxCandidates(ctx context.Context, createdBefore time.Time, maxBounceRate, maxComplaintRate float64) ([]*Tenant, error)

	// Suspend marks a tenant suspended with a reason
	Suspend(ctx context.Context, id string, reason string) error

	// Approve marks a tenant approved and sets its daily limit
	Approve(ctx context.Context, id string, approvedBy string, dailyLimit int) error

	// UpdateRates stores the latest rolling bounce and complaint rates
	UpdateRates(ctx context.Context, id string, bounceRate, complaintRate float64) error
}

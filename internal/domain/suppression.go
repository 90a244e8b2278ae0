package domain

import (
	"context"
	"strings"
	"time"
)

//go:generate mockgen -destination mocks/mock_suppression_repository.go -package mocks github.com/sendgate/sendgate/internal/domain SuppressionRepository

// SuppressionReason identifies why an address is blocked from sending
type SuppressionReason string

const (
	SuppressionReasonHardBounce     SuppressionReason = "hard_bounce"
	SuppressionReasonSpamComplaint  SuppressionReason = "spam_complaint"
	SuppressionReasonManual         SuppressionReason = "manual"
	SuppressionReasonTransientBlock SuppressionReason = "transient_block"
)

// Suppression blocks sends to an address for one tenant. Rows are unique by
// (tenant_id, email); upserts refresh the reason and timestamps.
type Suppression struct {
	TenantID       string            `json:"tenant_id"`
	Email          string            `json:"email"`
	Domain         string            `json:"domain"`
	Reason         SuppressionReason `json:"reason"`
	BounceType     *string           `json:"bounce_type,omitempty"`
	DiagnosticCode *string           `json:"diagnostic_code,omitempty"`
	SuppressedAt   time.Time         `json:"suppressed_at"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
}

// NewSuppression builds a suppression for the given address, deriving the
// domain column from the email
func NewSuppression(tenantID, email string, reason SuppressionReason) *Suppression {
	domain := ""
	if at := strings.LastIndex(email, "@"); at >= 0 && at < len(email)-1 {
		domain = strings.ToLower(email[at+1:])
	}
	return &Suppression{
		TenantID:     tenantID,
		Email:        email,
		Domain:       domain,
		Reason:       reason,
		SuppressedAt: time.Now().UTC(),
	}
}

// SuppressionRepository defines data access for the suppression list
type SuppressionRepository interface {
	// Upsert inserts or refreshes the suppression for (tenant_id, email)
	Upsert(ctx context.Context, suppression *Suppression) error

	// Get retrieves a suppression, ErrNotFound if absent
	Get(ctx context.Context, tenantID, email string) (*Suppression, error)

	// IsSuppressed reports whether an unexpired suppression exists for the
	// address. This is the pre-send check.
	IsSuppressed(ctx context.Context, tenantID, email string) (bool, error)

	// Delete removes a suppression
	Delete(ctx context.Context, tenantID, email string) error

	// DeleteExpired removes suppressions whose expires_at has passed
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

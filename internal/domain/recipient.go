package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_recipient_repository.go -package mocks github.com/sendgate/sendgate/internal/domain RecipientRepository

// Recipient is a stored address a tenant sends to. Soft-deleted recipients
// keep their row with deleted_at set.
type Recipient struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the recipient was soft-deleted.
func (r *Recipient) IsDeleted() bool {
	return r.DeletedAt != nil
}

// RecipientRepository defines data access for recipients
type RecipientRepository interface {
	// GetByID retrieves a recipient including soft-deleted rows,
	// ErrNotFound if absent
	GetByID(ctx context.Context, id string) (*Recipient, error)
}

package domain

import (
	"context"
	"database/sql"
	"time"
)

//go:generate mockgen -destination mocks/mock_outbox_repository.go -package mocks github.com/sendgate/sendgate/internal/domain OutboxRepository

// OutboxStatus represents the lifecycle state of an outbox entry
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusSent       OutboxStatus = "sent"
	OutboxStatusFailed     OutboxStatus = "failed"
	OutboxStatusRetrying   OutboxStatus = "retrying"
)

// OutboxEntry is the durable send request written by the ingress. It is the
// sole owner of the authoritative HTML body; queue jobs carry a reference.
type OutboxEntry struct {
	ID          string       `json:"id"`
	TenantID    string       `json:"tenant_id"`
	RecipientID *string      `json:"recipient_id,omitempty"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Status      OutboxStatus `json:"status"`
	Attempts    int          `json:"attempts"`
	LastError   *string      `json:"last_error,omitempty"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// OutboxRepository defines data access for the outbox
type OutboxRepository interface {
	// Create inserts a new pending entry
	Create(ctx context.Context, entry *OutboxEntry) error

	// CreateTx inserts a new pending entry within an existing transaction
	CreateTx(ctx context.Context, tx *sql.Tx, entry *OutboxEntry) error

	// CountCreatedSince counts a tenant's entries created at or after the
	// given time, enforcing daily limits at enqueue
	CountCreatedSince(ctx context.Context, tenantID string, since time.Time) (int64, error)

	// GetByID retrieves an entry without its HTML body, ErrNotFound if absent
	GetByID(ctx context.Context, id string) (*OutboxEntry, error)

	// GetHTML retrieves only the HTML body of an entry. Downstream code
	// receives bytes through this narrow capability so the body is read
	// exactly once per attempt.
	GetHTML(ctx context.Context, id string) (string, error)

	// MarkSent sets status=sent with the processing timestamp
	MarkSent(ctx context.Context, id string, processedAt time.Time) error

	// MarkFailed sets status=failed and records the last error
	MarkFailed(ctx context.Context, id string, lastError string) error

	// MarkRetrying sets status=retrying, increments attempts and records
	// the last error
	MarkRetrying(ctx context.Context, id string, lastError string) error
}

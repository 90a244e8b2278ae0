package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_email_log_repository.go -package mocks github.com/sendgate/sendgate/internal/domain EmailLogRepository

// EmailLogStatus represents the current status of a logged email
type EmailLogStatus string

const (
	EmailLogStatusSent       EmailLogStatus = "sent"
	EmailLogStatusFailed     EmailLogStatus = "failed"
	EmailLogStatusRetrying   EmailLogStatus = "retrying"
	EmailLogStatusDelivered  EmailLogStatus = "delivered"
	EmailLogStatusBounced    EmailLogStatus = "bounced"
	EmailLogStatusComplained EmailLogStatus = "complained"
)

// EmailLog is the terminal per-outbox delivery record. There is exactly one
// log per outbox entry, keyed by outbox_id; feedback events mutate it as
// delivery status arrives from the provider.
type EmailLog struct {
	ID                    string         `json:"id"`
	OutboxID              string         `json:"outbox_id"`
	TenantID              string         `json:"tenant_id"`
	RecipientID           *string        `json:"recipient_id,omitempty"`
	To                    string         `json:"to"`
	Subject               string         `json:"subject"`
	Status                EmailLogStatus `json:"status"`
	ProviderMessageID     *string        `json:"provider_message_id,omitempty"`
	ErrorCode             *string        `json:"error_code,omitempty"`
	ErrorReason           *string        `json:"error_reason,omitempty"`
	Attempts              int            `json:"attempts"`
	DurationMS            int64          `json:"duration_ms"`
	BounceType            *string        `json:"bounce_type,omitempty"`
	BounceSubtype         *string        `json:"bounce_subtype,omitempty"`
	ComplaintFeedbackType *string        `json:"complaint_feedback_type,omitempty"`

	// Event timestamps
	SentAt            *time.Time `json:"sent_at,omitempty"`
	FailedAt          *time.Time `json:"failed_at,omitempty"`
	DeliveryTimestamp *time.Time `json:"delivery_timestamp,omitempty"`

	// System timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TenantSendAggregates summarizes delivery outcomes for a tenant over a
// time window, feeding the reputation guardrails
type TenantSendAggregates struct {
	Sent        int64 `json:"sent"`
	Delivered   int64 `json:"delivered"`
	Failed      int64 `json:"failed"`
	Bounced     int64 `json:"bounced"`
	BouncedHard int64 `json:"bounced_hard"`
	BouncedSoft int64 `json:"bounced_soft"`
	Complained  int64 `json:"complained"`
}

// EmailLogRepository defines data access for email logs
type EmailLogRepository interface {
	// Upsert inserts or replaces the log for its outbox id
	Upsert(ctx context.Context, log *EmailLog) error

	// GetByOutboxID retrieves the log for an outbox entry
	GetByOutboxID(ctx context.Context, outboxID string) (*EmailLog, error)

	// GetByProviderMessageID retrieves a log by the provider message id,
	// the lookup used when routing asynchronous feedback
	GetByProviderMessageID(ctx context.Context, providerMessageID string) (*EmailLog, error)

	// SetDelivered records the delivery timestamp and flips status
	SetDelivered(ctx context.Context, id string, deliveredAt time.Time) error

	// SetBounce records bounce classification fields and flips status
	SetBounce(ctx context.Context, id string, bounceType, bounceSubtype, errorCode, errorReason string) error

	// SetComplaint records the complaint feedback type and flips status
	SetComplaint(ctx context.Context, id string, feedbackType string) error

	// AggregateSince computes delivery counters for a tenant since the
	// given time
	AggregateSince(ctx context.Context, tenantID string, since time.Time) (*TenantSendAggregates, error)

	// CountSent returns the lifetime number of sent emails for a tenant
	CountSent(ctx context.Context, tenantID string) (int64, error)
}

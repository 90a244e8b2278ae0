package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sendgate/sendgate/internal/domain"
)

// EmailLogRepository implements domain.EmailLogRepository
type EmailLogRepository struct {
	db *sql.DB
}

// NewEmailLogRepository creates a new EmailLogRepository
func NewEmailLogRepository(db *sql.DB) domain.EmailLogRepository {
	return &EmailLogRepository{
		db: db,
	}
}

const emailLogColumns = `id, outbox_id, tenant_id, recipient_id, to_email, subject, status, provider_message_id, error_code, error_reason, attempts, duration_ms, bounce_type, bounce_subtype, complaint_feedback_type, sent_at, failed_at, delivery_timestamp, created_at, updated_at`

// Upsert inserts or replaces the log for its outbox id. Retried sends
// rewrite the same row, so the latest attempt wins.
func (r *EmailLogRepository) Upsert(ctx context.Context, log *domain.EmailLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now

	query := `
		INSERT INTO email_logs (
			id, outbox_id, tenant_id, recipient_id, to_email, subject, status,
			provider_message_id, error_code, error_reason, attempts, duration_ms,
			sent_at, failed_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (outbox_id) DO UPDATE SET
			status = EXCLUDED.status,
			provider_message_id = EXCLUDED.provider_message_id,
			error_code = EXCLUDED.error_code,
			error_reason = EXCLUDED.error_reason,
			attempts = EXCLUDED.attempts,
			duration_ms = EXCLUDED.duration_ms,
			sent_at = EXCLUDED.sent_at,
			failed_at = EXCLUDED.failed_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	// A conflicting row keeps its original id. Read it back so events
	// recorded against this log reference the stored row.
	err := r.db.QueryRowContext(ctx, query,
		log.ID, log.OutboxID, log.TenantID, log.RecipientID, log.To, log.Subject, log.Status,
		log.ProviderMessageID, log.ErrorCode, log.ErrorReason, log.Attempts, log.DurationMS,
		log.SentAt, log.FailedAt, log.CreatedAt, log.UpdatedAt,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert email log: %w", err)
	}

	return nil
}

// GetByOutboxID retrieves the log for an outbox entry
func (r *EmailLogRepository) GetByOutboxID(ctx context.Context, outboxID string) (*domain.EmailLog, error) {
	query := `SELECT ` + emailLogColumns + ` FROM email_logs WHERE outbox_id = $1`

	row := r.db.QueryRowContext(ctx, query, outboxID)

	log, err := scanEmailLog(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "email log", ID: outboxID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email log: %w", err)
	}

	return log, nil
}

// GetByProviderMessageID retrieves a log by the provider message id
func (r *EmailLogRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.EmailLog, error) {
	query := `SELECT ` + emailLogColumns + ` FROM email_logs WHERE provider_message_id = $1`

	row := r.db.QueryRowContext(ctx, query, providerMessageID)

	log, err := scanEmailLog(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "email log", ID: providerMessageID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email log: %w", err)
	}

	return log, nil
}

// SetDelivered records the delivery timestamp and flips status
func (r *EmailLogRepository) SetDelivered(ctx context.Context, id string, deliveredAt time.Time) error {
	query := `
		UPDATE email_logs
		SET status = $2, delivery_timestamp = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.EmailLogStatusDelivered, deliveredAt)
	if err != nil {
		return fmt.Errorf("failed to set email log delivered: %w", err)
	}

	return nil
}

// SetBounce records bounce classification fields and flips status
func (r *EmailLogRepository) SetBounce(ctx context.Context, id string, bounceType, bounceSubtype, errorCode, errorReason string) error {
	query := `
		UPDATE email_logs
		SET status = $2, bounce_type = $3, bounce_subtype = $4, error_code = $5, error_reason = $6, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.EmailLogStatusBounced, bounceType, bounceSubtype, errorCode, errorReason)
	if err != nil {
		return fmt.Errorf("failed to set email log bounce: %w", err)
	}

	return nil
}

// SetComplaint records the complaint feedback type and flips status
func (r *EmailLogRepository) SetComplaint(ctx context.Context, id string, feedbackType string) error {
	query := `
		UPDATE email_logs
		SET status = $2, complaint_feedback_type = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.EmailLogStatusComplained, feedbackType)
	if err != nil {
		return fmt.Errorf("failed to set email log complaint: %w", err)
	}

	return nil
}

// AggregateSince computes delivery counters for a tenant since the given
// time. Sent counts rows that reached the provider; logs later flipped to
// delivered or bounced keep their sent_at, so the counter is stable across
// feedback transitions.
func (r *EmailLogRepository) AggregateSince(ctx context.Context, tenantID string, since time.Time) (*domain.TenantSendAggregates, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN sent_at IS NOT NULL THEN 1 ELSE 0 END), 0) as sent,
			COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0) as delivered,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed,
			COALESCE(SUM(CASE WHEN status = 'bounced' THEN 1 ELSE 0 END), 0) as bounced,
			COALESCE(SUM(CASE WHEN status = 'bounced' AND bounce_type = 'Permanent' THEN 1 ELSE 0 END), 0) as bounced_hard,
			COALESCE(SUM(CASE WHEN status = 'bounced' AND (bounce_type IS NULL OR bounce_type != 'Permanent') THEN 1 ELSE 0 END), 0) as bounced_soft,
			COALESCE(SUM(CASE WHEN status = 'complained' THEN 1 ELSE 0 END), 0) as complained
		FROM email_logs
		WHERE tenant_id = $1 AND created_at >= $2
	`

	var agg domain.TenantSendAggregates
	err := r.db.QueryRowContext(ctx, query, tenantID, since).Scan(
		&agg.Sent, &agg.Delivered, &agg.Failed, &agg.Bounced,
		&agg.BouncedHard, &agg.BouncedSoft, &agg.Complained,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate email logs: %w", err)
	}

	return &agg, nil
}

// CountSent returns the lifetime number of sent emails for a tenant
func (r *EmailLogRepository) CountSent(ctx context.Context, tenantID string) (int64, error) {
	query := `SELECT COUNT(*) FROM email_logs WHERE tenant_id = $1 AND sent_at IS NOT NULL`

	var count int64
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sent emails: %w", err)
	}

	return count, nil
}

// scanEmailLog scans a row into an EmailLog
func scanEmailLog(row interface{ Scan(...interface{}) error }) (*domain.EmailLog, error) {
	var log domain.EmailLog
	var recipientID, providerMessageID, errorCode, errorReason sql.NullString
	var bounceType, bounceSubtype, complaintFeedbackType sql.NullString
	var sentAt, failedAt, deliveryTimestamp sql.NullTime

	err := row.Scan(
		&log.ID, &log.OutboxID, &log.TenantID, &recipientID, &log.To, &log.Subject, &log.Status,
		&providerMessageID, &errorCode, &errorReason, &log.Attempts, &log.DurationMS,
		&bounceType, &bounceSubtype, &complaintFeedbackType,
		&sentAt, &failedAt, &deliveryTimestamp, &log.CreatedAt, &log.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if recipientID.Valid {
		log.RecipientID = &recipientID.String
	}
	if providerMessageID.Valid {
		log.ProviderMessageID = &providerMessageID.String
	}
	if errorCode.Valid {
		log.ErrorCode = &errorCode.String
	}
	if errorReason.Valid {
		log.ErrorReason = &errorReason.String
	}
	if bounceType.Valid {
		log.BounceType = &bounceType.String
	}
	if bounceSubtype.Valid {
		log.BounceSubtype = &bounceSubtype.String
	}
	if complaintFeedbackType.Valid {
		log.ComplaintFeedbackType = &complaintFeedbackType.String
	}
	if sentAt.Valid {
		log.SentAt = &sentAt.Time
	}
	if failedAt.Valid {
		log.FailedAt = &failedAt.Time
	}
	if deliveryTimestamp.Valid {
		log.DeliveryTimestamp = &deliveryTimestamp.Time
	}

	return &log, nil
}

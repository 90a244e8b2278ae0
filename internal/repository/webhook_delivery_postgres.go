package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sendgate/sendgate/internal/domain"
)

// WebhookDeliveryRepository implements domain.WebhookDeliveryRepository
type WebhookDeliveryRepository struct {
	db *sql.DB
}

// NewWebhookDeliveryRepository creates a new WebhookDeliveryRepository
func NewWebhookDeliveryRepository(db *sql.DB) domain.WebhookDeliveryRepository {
	return &WebhookDeliveryRepository{
		db: db,
	}
}

// Create inserts a new pending delivery
func (r *WebhookDeliveryRepository) Create(ctx context.Context, delivery *domain.WebhookDelivery) error {
	if delivery.ID == "" {
		delivery.ID = uuid.New().String()
	}
	if delivery.Status == "" {
		delivery.Status = domain.WebhookDeliveryStatusPending
	}

	now := time.Now().UTC()
	delivery.CreatedAt = now
	delivery.UpdatedAt = now

	query := `
		INSERT INTO webhook_deliveries (id, webhook_id, event_type, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		delivery.ID, delivery.WebhookID, delivery.EventType, delivery.Payload,
		delivery.Status, delivery.Attempts, delivery.CreatedAt, delivery.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook delivery: %w", err)
	}

	return nil
}

// FetchDue claims up to limit due deliveries. Claimed rows keep their status
// but have next_retry_at pushed forward as a lease, so a crashed worker's
// claims become due again on their own.
func (r *WebhookDeliveryRepository) FetchDue(ctx context.Context, limit int) ([]*domain.WebhookDelivery, error) {
	query := `
		UPDATE webhook_deliveries
		SET next_retry_at = NOW() + INTERVAL '2 minutes', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM webhook_deliveries
			WHERE status IN ($1, $2)
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, webhook_id, event_type, payload, status, response_code, response_body, attempts, next_retry_at, delivered_at, created_at, updated_at
	`

	rows, err := r.db.QueryContext(ctx, query,
		domain.WebhookDeliveryStatusPending, domain.WebhookDeliveryStatusRetrying, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim webhook deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*domain.WebhookDelivery
	for rows.Next() {
		delivery, err := scanWebhookDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook delivery: %w", err)
		}
		deliveries = append(deliveries, delivery)
	}

	return deliveries, rows.Err()
}

// MarkSuccess completes a delivery
func (r *WebhookDeliveryRepository) MarkSuccess(ctx context.Context, id string, responseCode int, responseBody string, deliveredAt time.Time) error {
	query := `
		UPDATE webhook_deliveries
		SET status = $2, response_code = $3, response_body = $4, delivered_at = $5,
		    attempts = attempts + 1, next_retry_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.WebhookDeliveryStatusSuccess, responseCode, responseBody, deliveredAt)
	if err != nil {
		return fmt.Errorf("failed to mark webhook delivery success: %w", err)
	}

	return nil
}

// MarkRetrying schedules another attempt
func (r *WebhookDeliveryRepository) MarkRetrying(ctx context.Context, id string, responseCode *int, responseBody *string, nextRetryAt time.Time) error {
	query := `
		UPDATE webhook_deliveries
		SET status = $2, response_code = $3, response_body = $4, next_retry_at = $5,
		    attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.WebhookDeliveryStatusRetrying, responseCode, responseBody, nextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to mark webhook delivery retrying: %w", err)
	}

	return nil
}

// MarkFailed terminates a delivery after its attempts are exhausted
func (r *WebhookDeliveryRepository) MarkFailed(ctx context.Context, id string, responseCode *int, responseBody *string) error {
	query := `
		UPDATE webhook_deliveries
		SET status = $2, response_code = $3, response_body = $4,
		    attempts = attempts + 1, next_retry_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.WebhookDeliveryStatusFailed, responseCode, responseBody)
	if err != nil {
		return fmt.Errorf("failed to mark webhook delivery failed: %w", err)
	}

	return nil
}

// scanWebhookDelivery scans a row into a WebhookDelivery
func scanWebhookDelivery(rows *sql.Rows) (*domain.WebhookDelivery, error) {
	var delivery domain.WebhookDelivery
	var payload []byte
	var responseCode sql.NullInt64
	var responseBody sql.NullString
	var nextRetryAt, deliveredAt sql.NullTime

	err := rows.Scan(
		&delivery.ID, &delivery.WebhookID, &delivery.EventType, &payload, &delivery.Status,
		&responseCode, &responseBody, &delivery.Attempts, &nextRetryAt, &deliveredAt,
		&delivery.CreatedAt, &delivery.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if payload != nil {
		if err := delivery.Payload.Scan(payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}
	if responseCode.Valid {
		code := int(responseCode.Int64)
		delivery.ResponseCode = &code
	}
	if responseBody.Valid {
		delivery.ResponseBody = &responseBody.String
	}
	if nextRetryAt.Valid {
		delivery.NextRetryAt = &nextRetryAt.Time
	}
	if deliveredAt.Valid {
		delivery.DeliveredAt = &deliveredAt.Time
	}

	return &delivery, nil
}

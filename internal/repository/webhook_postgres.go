package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sendgate/sendgate/internal/domain"
)

// WebhookRepository implements domain.WebhookRepository
type WebhookRepository struct {
	db *sql.DB
}

// NewWebhookRepository creates a new WebhookRepository
func NewWebhookRepository(db *sql.DB) domain.WebhookRepository {
	return &WebhookRepository{
		db: db,
	}
}

const webhookColumns = `id, tenant_id, url, encrypted_secret, events, is_active, created_at, updated_at`

// GetByID retrieves a webhook by ID
func (r *WebhookRepository) GetByID(ctx context.Context, id string) (*domain.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	webhook, err := scanWebhook(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "webhook", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook: %w", err)
	}

	return webhook, nil
}

// ListActiveForEvent retrieves a tenant's active webhooks subscribed to the
// given event type, using JSONB containment on the events array
func (r *WebhookRepository) ListActiveForEvent(ctx context.Context, tenantID, eventType string) ([]*domain.Webhook, error) {
	eventJSON, err := json.Marshal([]string{eventType})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event type: %w", err)
	}

	query := `
		SELECT ` + webhookColumns + `
		FROM webhooks
		WHERE tenant_id = $1 AND is_active = TRUE AND events @> $2::jsonb
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, string(eventJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to query webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []*domain.Webhook
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, webhook)
	}

	return webhooks, rows.Err()
}

// scanWebhook scans a row into a Webhook
func scanWebhook(row interface{ Scan(...interface{}) error }) (*domain.Webhook, error) {
	var webhook domain.Webhook
	var events []byte

	err := row.Scan(
		&webhook.ID, &webhook.TenantID, &webhook.URL, &webhook.EncryptedSecret,
		&events, &webhook.IsActive, &webhook.CreatedAt, &webhook.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if events != nil {
		if err := webhook.Events.Scan(events); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events: %w", err)
		}
	}

	return &webhook, nil
}

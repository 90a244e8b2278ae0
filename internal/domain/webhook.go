package domain

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sendgate/sendgate/pkg/crypto"
)

//go:generate mockgen -destination mocks/mock_webhook_repository.go -package mocks github.com/sendgate/sendgate/internal/domain WebhookRepository
//go:generate mockgen -destination mocks/mock_webhook_delivery_repository.go -package mocks github.com/sendgate/sendgate/internal/domain WebhookDeliveryRepository

// Customer webhook event types
const (
	WebhookEventBounce    = "bounce"
	WebhookEventComplaint = "complaint"
	WebhookEventOpen      = "open"
	WebhookEventClick     = "click"
)

// WebhookEventList is the events JSONB column
type WebhookEventList []string

// Value implements the driver.Valuer interface for database storage
func (l WebhookEventList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for database retrieval
func (l *WebhookEventList) Scan(value interface{}) error {
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

// Webhook is a tenant-configured HTTP endpoint receiving event callbacks
type Webhook struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	URL      string `json:"url"`

	EncryptedSecret string `json:"encrypted_secret,omitempty"`
	// decoded secret, not stored in the database
	Secret string `json:"secret,omitempty"`

	Events    WebhookEventList `json:"events"`
	IsActive  bool             `json:"is_active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// SubscribesTo reports whether the webhook wants the given event type
func (w *Webhook) SubscribesTo(eventType string) bool {
	for _, e := range w.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

func (w *Webhook) DecryptSecret(passphrase string) error {
	secret, err := crypto.DecryptFromHexString(w.EncryptedSecret, passphrase)
	if err != nil {
		return fmt.Errorf("failed to decrypt webhook secret: %w", err)
	}
	w.Secret = secret
	return nil
}

func (w *Webhook) EncryptSecret(passphrase string) error {
	encryptedSecret, err := crypto.EncryptString(w.Secret, passphrase)
	if err != nil {
		return fmt.Errorf("failed to encrypt webhook secret: %w", err)
	}
	w.EncryptedSecret = encryptedSecret
	return nil
}

// WebhookDeliveryStatus represents the state of one outbound delivery
type WebhookDeliveryStatus string

const (
	WebhookDeliveryStatusPending  WebhookDeliveryStatus = "pending"
	WebhookDeliveryStatusSuccess  WebhookDeliveryStatus = "success"
	WebhookDeliveryStatusRetrying WebhookDeliveryStatus = "retrying"
	WebhookDeliveryStatusFailed   WebhookDeliveryStatus = "failed"
)

// WebhookMaxAttempts is the total number of delivery attempts per callback
const WebhookMaxAttempts = 3

// WebhookResponseBodyLimit caps how much of the endpoint's response is kept
const WebhookResponseBodyLimit = 1000

// WebhookPayload is the event body POSTed to the endpoint, stored as JSONB
type WebhookPayload map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (p WebhookPayload) Value() (driver.Value, error) {
	if p == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface for database retrieval
func (p *WebhookPayload) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return sql.ErrNoRows
	}

	cloned := bytes.Clone(b)
	return json.Unmarshal(cloned, &p)
}

// WebhookDelivery is one queued callback to a customer endpoint
type WebhookDelivery struct {
	ID           string                `json:"id"`
	WebhookID    string                `json:"webhook_id"`
	EventType    string                `json:"event_type"`
	Payload      WebhookPayload        `json:"payload"`
	Status       WebhookDeliveryStatus `json:"status"`
	ResponseCode *int                  `json:"response_code,omitempty"`
	ResponseBody *string               `json:"response_body,omitempty"`
	Attempts     int                   `json:"attempts"`
	NextRetryAt  *time.Time            `json:"next_retry_at,omitempty"`
	DeliveredAt  *time.Time            `json:"delivered_at,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// CalculateWebhookRetryTime returns the next attempt time after the given
// number of attempts: 5s, 10s, 20s.
func CalculateWebhookRetryTime(attempts int) time.Time {
	if attempts <= 0 {
		attempts = 1
	}
	delay := 5 * (1 << uint(attempts-1))
	return time.Now().UTC().Add(time.Duration(delay) * time.Second)
}

// WebhookRepository defines data access for webhook configurations
type WebhookRepository interface {
	// GetByID retrieves a webhook, ErrNotFound if absent
	GetByID(ctx context.Context, id string) (*Webhook, error)

	// ListActiveForEvent retrieves a tenant's active webhooks subscribed
	// to the given event type
	ListActiveForEvent(ctx context.Context, tenantID, eventType string) ([]*Webhook, error)
}

// WebhookDeliveryRepository defines data access for the delivery queue
type WebhookDeliveryRepository interface {
	// Create inserts a new pending delivery
	Create(ctx context.Context, delivery *WebhookDelivery) error

	// FetchDue claims up to limit deliveries that are pending or retrying
	// with next_retry_at due. Rows are locked with FOR UPDATE SKIP LOCKED
	// and leased by pushing next_retry_at forward so a crashed worker's
	// claims become due again.
	FetchDue(ctx context.Context, limit int) ([]*WebhookDelivery, error)

	// MarkSuccess completes a delivery, incrementing attempts
	MarkSuccess(ctx context.Context, id string, responseCode int, responseBody string, deliveredAt time.Time) error

	// MarkRetrying schedules another attempt, incrementing attempts
	MarkRetrying(ctx context.Context, id string, responseCode *int, responseBody *string, nextRetryAt time.Time) error

	// MarkFailed terminates a delivery, incrementing attempts
	MarkFailed(ctx context.Context, id string, responseCode *int, responseBody *string) error
}

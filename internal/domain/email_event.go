package domain

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"
)

//go:generate mockgen -destination mocks/mock_email_event_repository.go -package mocks github.com/sendgate/sendgate/internal/domain EmailEventRepository

// EmailEventType identifies a lifecycle event on a logged email
type EmailEventType string

const (
	EmailEventProcessing EmailEventType = "processing"
	EmailEventSent       EmailEventType = "sent"
	EmailEventFailed     EmailEventType = "failed"
	EmailEventRetrying   EmailEventType = "retrying"
	EmailEventDelivered  EmailEventType = "delivered"
	EmailEventBounced    EmailEventType = "bounced"
	EmailEventComplained EmailEventType = "complained"
	EmailEventOpened     EmailEventType = "opened"
	EmailEventClicked    EmailEventType = "clicked"
)

// EventMetadata holds free-form event context, stored as JSONB
type EventMetadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (m EventMetadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *EventMetadata) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return sql.ErrNoRows
	}

	cloned := bytes.Clone(b)
	return json.Unmarshal(cloned, &m)
}

// EmailEvent is an append-only child record of an EmailLog. Events are never
// updated or deleted.
type EmailEvent struct {
	ID         string         `json:"id"`
	EmailLogID string         `json:"email_log_id"`
	Type       EmailEventType `json:"type"`
	Metadata   EventMetadata  `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// EmailEventRepository defines data access for email events
type EmailEventRepository interface {
	// Create appends a new event
	Create(ctx context.Context, event *EmailEvent) error

	// CountByTypeSince counts a tenant's events per type since the given
	// time, feeding engagement rates
	CountByTypeSince(ctx context.Context, tenantID string, since time.Time) (map[EmailEventType]int64, error)
}

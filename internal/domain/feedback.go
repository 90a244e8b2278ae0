package domain

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"
)

//go:generate mockgen -destination mocks/mock_feedback_queue_repository.go -package mocks github.com/sendgate/sendgate/internal/domain FeedbackQueueRepository

// FeedbackEventType classifies a provider delivery-status event
type FeedbackEventType string

const (
	FeedbackEventDelivery  FeedbackEventType = "delivery"
	FeedbackEventBounce    FeedbackEventType = "bounce"
	FeedbackEventComplaint FeedbackEventType = "complaint"
	FeedbackEventOpen      FeedbackEventType = "open"
	FeedbackEventClick     FeedbackEventType = "click"
	FeedbackEventUnknown   FeedbackEventType = "unknown"
)

// FeedbackEvent is the provider-normalized event shape, stored as JSONB.
// The raw payload travels alongside on the queue entry because bounce and
// complaint handling re-parses the original DSN/ARF text.
type FeedbackEvent struct {
	Type      FeedbackEventType      `json:"type"`
	MessageID string                 `json:"message_id"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Value implements the driver.Valuer interface for database storage
func (e FeedbackEvent) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements the sql.Scanner interface for database retrieval
func (e *FeedbackEvent) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return sql.ErrNoRows
	}

	cloned := bytes.Clone(b)
	return json.Unmarshal(cloned, &e)
}

// FeedbackQueueStatus represents the state of a queued feedback event
type FeedbackQueueStatus string

const (
	FeedbackQueueStatusPending    FeedbackQueueStatus = "pending"
	FeedbackQueueStatusProcessing FeedbackQueueStatus = "processing"
	FeedbackQueueStatusFailed     FeedbackQueueStatus = "failed"
)

// FeedbackQueueEntry is one ingested feedback event awaiting processing
type FeedbackQueueEntry struct {
	ID         string              `json:"id"`
	Provider   ProviderKind        `json:"provider"`
	Event      FeedbackEvent       `json:"event"`
	RawPayload string              `json:"raw_payload"`
	Status     FeedbackQueueStatus `json:"status"`
	Attempts   int                 `json:"attempts"`
	LastError  *string             `json:"last_error,omitempty"`
	ReceivedAt time.Time           `json:"received_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// FeedbackQueueRepository defines data access for the feedback queue
type FeedbackQueueRepository interface {
	// Enqueue inserts a new pending entry
	Enqueue(ctx context.Context, entry *FeedbackQueueEntry) error

	// FetchPending claims up to limit pending entries and flips them to
	// processing. Rows are locked with FOR UPDATE SKIP LOCKED.
	FetchPending(ctx context.Context, limit int) ([]*FeedbackQueueEntry, error)

	// Complete removes a processed entry
	Complete(ctx context.Context, id string) error

	// Fail marks an entry failed and keeps it for inspection
	Fail(ctx context.Context, id string, errorMsg string) error
}

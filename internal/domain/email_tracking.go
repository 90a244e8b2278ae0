package domain

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"
)

//go:generate mockgen -destination mocks/mock_email_tracking_repository.go -package mocks github.com/sendgate/sendgate/internal/domain EmailTrackingRepository

// ClickedURL records one click on a tracked link
type ClickedURL struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"ts"`
}

// ClickedURLList is the clicked_urls JSONB column
type ClickedURLList []ClickedURL

// Value implements the driver.Valuer interface for database storage
func (l ClickedURLList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]ClickedURL{})
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for database retrieval
func (l *ClickedURLList) Scan(value interface{}) error {
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

// EmailTracking holds per-message engagement counters, keyed by the opaque
// tracking id embedded in the message
type EmailTracking struct {
	EmailLogID  string         `json:"email_log_id"`
	TrackingID  string         `json:"tracking_id"`
	OpenedAt    *time.Time     `json:"opened_at,omitempty"`
	OpenCount   int            `json:"open_count"`
	ClickedAt   *time.Time     `json:"clicked_at,omitempty"`
	ClickCount  int            `json:"click_count"`
	ClickedURLs ClickedURLList `json:"clicked_urls"`
	UserAgent   *string        `json:"user_agent,omitempty"`
	IPAddress   *string        `json:"ip_address,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// EmailTrackingRepository defines data access for engagement tracking
type EmailTrackingRepository interface {
	// GetByTrackingID retrieves a tracking row
	GetByTrackingID(ctx context.Context, trackingID string) (*EmailTracking, error)

	// RecordOpen upserts the tracking row for an open: created with
	// open_count=1 or incremented, first opened_at preserved
	RecordOpen(ctx context.Context, emailLogID, trackingID string, at time.Time, userAgent, ipAddress *string) error

	// RecordClick upserts the tracking row for a click: increments
	// click_count and appends the url to clicked_urls
	RecordClick(ctx context.Context, emailLogID, trackingID string, url string, at time.Time) error
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
)

// EmailTrackingRepository implements domain.EmailTrackingRepository
type EmailTrackingRepository struct {
	db *sql.DB
}

// NewEmailTrackingRepository creates a new EmailTrackingRepository
func NewEmailTrackingRepository(db *sql.DB) domain.EmailTrackingRepository {
	return &EmailTrackingRepository{
		db: db,
	}
}

// GetByTrackingID retrieves a tracking row
func (r *EmailTrackingRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.EmailTracking, error) {
	query := `
		SELECT email_log_id, tracking_id, opened_at, open_count, clicked_at, click_count,
		       clicked_urls, user_agent, ip_address, created_at, updated_at
		FROM email_tracking
		WHERE tracking_id = $1
	`

	var tracking domain.EmailTracking
	var openedAt, clickedAt sql.NullTime
	var clickedURLs []byte
	var userAgent, ipAddress sql.NullString

	err := r.db.QueryRowContext(ctx, query, trackingID).Scan(
		&tracking.EmailLogID, &tracking.TrackingID, &openedAt, &tracking.OpenCount,
		&clickedAt, &tracking.ClickCount, &clickedURLs, &userAgent, &ipAddress,
		&tracking.CreatedAt, &tracking.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "email tracking", ID: trackingID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email tracking: %w", err)
	}

	if openedAt.Valid {
		tracking.OpenedAt = &openedAt.Time
	}
	if clickedAt.Valid {
		tracking.ClickedAt = &clickedAt.Time
	}
	if clickedURLs != nil {
		if err := tracking.ClickedURLs.Scan(clickedURLs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal clicked urls: %w", err)
		}
	}
	if userAgent.Valid {
		tracking.UserAgent = &userAgent.String
	}
	if ipAddress.Valid {
		tracking.IPAddress = &ipAddress.String
	}

	return &tracking, nil
}

// RecordOpen upserts the tracking row for an open. The first opened_at is
// preserved; repeat opens only bump the counter and refresh the client info.
func (r *EmailTrackingRepository) RecordOpen(ctx context.Context, emailLogID, trackingID string, at time.Time, userAgent, ipAddress *string) error {
	query := `
		INSERT INTO email_tracking (email_log_id, tracking_id, opened_at, open_count, user_agent, ip_address, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $5, $6, $6)
		ON CONFLICT (email_log_id) DO UPDATE SET
			opened_at = COALESCE(email_tracking.opened_at, EXCLUDED.opened_at),
			open_count = email_tracking.open_count + 1,
			user_agent = EXCLUDED.user_agent,
			ip_address = EXCLUDED.ip_address,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, emailLogID, trackingID, at, userAgent, ipAddress, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record open: %w", err)
	}

	return nil
}

// RecordClick upserts the tracking row for a click, appending the url to
// the clicked_urls array
func (r *EmailTrackingRepository) RecordClick(ctx context.Context, emailLogID, trackingID string, url string, at time.Time) error {
	urls := domain.ClickedURLList{{URL: url, Timestamp: at}}

	query := `
		INSERT INTO email_tracking (email_log_id, tracking_id, clicked_at, click_count, clicked_urls, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $5, $5)
		ON CONFLICT (email_log_id) DO UPDATE SET
			clicked_at = COALESCE(email_tracking.clicked_at, EXCLUDED.clicked_at),
			click_count = email_tracking.click_count + 1,
			clicked_urls = email_tracking.clicked_urls || EXCLUDED.clicked_urls,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, emailLogID, trackingID, at, urls, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sendgate/sendgate/internal/domain"
)

// EmailEventRepository implements domain.EmailEventRepository
type EmailEventRepository struct {
	db *sql.DB
}

// NewEmailEventRepository creates a new EmailEventRepository
func NewEmailEventRepository(db *sql.DB) domain.EmailEventRepository {
	return &EmailEventRepository{
		db: db,
	}
}

// Create appends a new event
func (r *EmailEventRepository) Create(ctx context.Context, event *domain.EmailEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO email_events (id, email_log_id, type, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.EmailLogID, event.Type, event.Metadata, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create email event: %w", err)
	}

	return nil
}

// CountByTypeSince counts a tenant's events per type since the given time.
// Events carry no tenant column, so the query joins through email_logs.
func (r *EmailEventRepository) CountByTypeSince(ctx context.Context, tenantID string, since time.Time) (map[domain.EmailEventType]int64, error) {
	query := `
		SELECT e.type, COUNT(*)
		FROM email_events e
		JOIN email_logs l ON l.id = e.email_log_id
		WHERE l.tenant_id = $1 AND e.created_at >= $2
		GROUP BY e.type
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count email events: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.EmailEventType]int64)
	for rows.Next() {
		var eventType domain.EmailEventType
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[eventType] = count
	}

	return counts, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sendgate/sendgate/internal/domain"
)

// FeedbackQueueRepository implements domain.FeedbackQueueRepository
type FeedbackQueueRepository struct {
	db *sql.DB
}

// NewFeedbackQueueRepository creates a new FeedbackQueueRepository
func NewFeedbackQueueRepository(db *sql.DB) domain.FeedbackQueueRepository {
	return &FeedbackQueueRepository{
		db: db,
	}
}

// Enqueue inserts a new pending entry
func (r *FeedbackQueueRepository) Enqueue(ctx context.Context, entry *domain.FeedbackQueueEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Status == "" {
		entry.Status = domain.FeedbackQueueStatusPending
	}

	now := time.Now().UTC()
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = now
	}
	entry.UpdatedAt = now

	query := `
		INSERT INTO feedback_queue (id, provider, event, raw_payload, status, attempts, received_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Provider, entry.Event, entry.RawPayload,
		entry.Status, entry.Attempts, entry.ReceivedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue feedback: %w", err)
	}

	return nil
}

// FetchPending claims up to limit pending entries and flips them to
// processing in one statement
func (r *FeedbackQueueRepository) FetchPending(ctx context.Context, limit int) ([]*domain.FeedbackQueueEntry, error) {
	query := `
		UPDATE feedback_queue
		SET status = $1, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM feedback_queue
			WHERE status = $2
			ORDER BY received_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, provider, event, raw_payload, status, attempts, last_error, received_at, updated_at
	`

	rows, err := r.db.QueryContext(ctx, query,
		domain.FeedbackQueueStatusProcessing, domain.FeedbackQueueStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim feedback entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.FeedbackQueueEntry
	for rows.Next() {
		var entry domain.FeedbackQueueEntry
		var event []byte
		var lastError sql.NullString

		err := rows.Scan(
			&entry.ID, &entry.Provider, &event, &entry.RawPayload, &entry.Status,
			&entry.Attempts, &lastError, &entry.ReceivedAt, &entry.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback entry: %w", err)
		}

		if event != nil {
			if err := entry.Event.Scan(event); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event: %w", err)
			}
		}
		if lastError.Valid {
			entry.LastError = &lastError.String
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Complete removes a processed entry
func (r *FeedbackQueueRepository) Complete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM feedback_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to complete feedback entry: %w", err)
	}

	return nil
}

// Fail marks an entry failed and keeps it for inspection
func (r *FeedbackQueueRepository) Fail(ctx context.Context, id string, errorMsg string) error {
	query := `
		UPDATE feedback_queue
		SET status = $2, attempts = attempts + 1, last_error = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.FeedbackQueueStatusFailed, errorMsg)
	if err != nil {
		return fmt.Errorf("failed to mark feedback entry failed: %w", err)
	}

	return nil
}

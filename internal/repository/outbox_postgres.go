package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sendgate/sendgate/internal/domain"
)

// OutboxRepository implements domain.OutboxRepository
type OutboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository creates a new OutboxRepository
func NewOutboxRepository(db *sql.DB) domain.OutboxRepository {
	return &OutboxRepository{
		db: db,
	}
}

// Create inserts a new pending entry
func (r *OutboxRepository) Create(ctx context.Context, entry *domain.OutboxEntry) error {
	return r.create(ctx, nil, entry)
}

// CreateTx inserts a new pending entry within an existing transaction
func (r *OutboxRepository) CreateTx(ctx context.Context, tx *sql.Tx, entry *domain.OutboxEntry) error {
	return r.create(ctx, tx, entry)
}

func (r *OutboxRepository) create(ctx context.Context, tx *sql.Tx, entry *domain.OutboxEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Status == "" {
		entry.Status = domain.OutboxStatusPending
	}

	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
		INSERT INTO outbox (id, tenant_id, recipient_id, to_email, subject, html, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var execer interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	}
	if tx != nil {
		execer = tx
	} else {
		execer = r.db
	}

	_, err := execer.ExecContext(ctx, query,
		entry.ID, entry.TenantID, entry.RecipientID, entry.To, entry.Subject,
		entry.HTML, entry.Status, entry.Attempts, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox entry: %w", err)
	}

	return nil
}

// CountCreatedSince counts a tenant's entries created at or after the given
// time
func (r *OutboxRepository) CountCreatedSince(ctx context.Context, tenantID string, since time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM outbox WHERE tenant_id = $1 AND created_at >= $2`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, tenantID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count outbox entries: %w", err)
	}

	return count, nil
}

// GetByID retrieves an entry without its HTML body
// The body can be large, so it is fetched separately through GetHTML
func (r *OutboxRepository) GetByID(ctx context.Context, id string) (*domain.OutboxEntry, error) {
	query := `
		SELECT id, tenant_id, recipient_id, to_email, subject, status, attempts, last_error, processed_at, created_at, updated_at
		FROM outbox
		WHERE id = $1
	`

	var entry domain.OutboxEntry
	var recipientID sql.NullString
	var lastError sql.NullString
	var processedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.TenantID, &recipientID, &entry.To, &entry.Subject,
		&entry.Status, &entry.Attempts, &lastError, &processedAt,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "outbox entry", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox entry: %w", err)
	}

	if recipientID.Valid {
		entry.RecipientID = &recipientID.String
	}
	if lastError.Valid {
		entry.LastError = &lastError.String
	}
	if processedAt.Valid {
		entry.ProcessedAt = &processedAt.Time
	}

	return &entry, nil
}

// GetHTML retrieves only the HTML body of an entry
func (r *OutboxRepository) GetHTML(ctx context.Context, id string) (string, error) {
	var html string
	err := r.db.QueryRowContext(ctx, `SELECT html FROM outbox WHERE id = $1`, id).Scan(&html)
	if err == sql.ErrNoRows {
		return "", &domain.ErrNotFound{Entity: "outbox entry", ID: id}
	}
	if err != nil {
		return "", fmt.Errorf("failed to get outbox html: %w", err)
	}

	return html, nil
}

// MarkSent sets status=sent with the processing timestamp
func (r *OutboxRepository) MarkSent(ctx context.Context, id string, processedAt time.Time) error {
	query := `
		UPDATE outbox
		SET status = 'sent', processed_at = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, processedAt)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry as sent: %w", err)
	}

	return nil
}

// MarkFailed sets status=failed and records the last error
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, lastError string) error {
	query := `
		UPDATE outbox
		SET status = 'failed', last_error = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, lastError)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry as failed: %w", err)
	}

	return nil
}

// MarkRetrying sets status=retrying, increments attempts and records the
// last error
func (r *OutboxRepository) MarkRetrying(ctx context.Context, id string, lastError string) error {
	query := `
		UPDATE outbox
		SET status = 'retrying', attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, lastError)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry as retrying: %w", err)
	}

	return nil
}

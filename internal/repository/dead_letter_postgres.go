package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
)

// DeadLetterRepository implements domain.DeadLetterRepository. Entries are
// written by SendQueueRepository.MoveToDeadLetter.
type DeadLetterRepository struct {
	db *sql.DB
}

// NewDeadLetterRepository creates a new DeadLetterRepository
func NewDeadLetterRepository(db *sql.DB) domain.DeadLetterRepository {
	return &DeadLetterRepository{
		db: db,
	}
}

const deadLetterColumns = `id, job_id, tenant_id, outbox_id, data, failed_reason, attempts_made, enqueued_at, failed_at, stacktrace`

// List retrieves entries newest first with the total count
func (r *DeadLetterRepository) List(ctx context.Context, limit, offset int) ([]*domain.DeadLetterEntry, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letters`).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count dead letters: %w", err)
	}

	query := `
		SELECT ` + deadLetterColumns + `
		FROM dead_letters
		ORDER BY failed_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query dead letters: %w", err)
	}
	defer rows.Close()

	var entries []*domain.DeadLetterEntry
	for rows.Next() {
		entry, err := scanDeadLetter(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan dead letter: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, total, rows.Err()
}

// GetByID retrieves an entry by ID
func (r *DeadLetterRepository) GetByID(ctx context.Context, id string) (*domain.DeadLetterEntry, error) {
	query := `SELECT ` + deadLetterColumns + ` FROM dead_letters WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	entry, err := scanDeadLetter(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "dead letter", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letter: %w", err)
	}

	return entry, nil
}

// Requeue reinserts the entry into the send queue with a reset attempt count
// and removes it, in one transaction. The original job id is reused so the
// job keeps its identity across the round trip.
func (r *DeadLetterRepository) Requeue(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertQuery := `
		INSERT INTO send_queue (id, outbox_id, tenant_id, status, payload, attempts, max_attempts, created_at, updated_at)
		SELECT job_id, outbox_id, tenant_id, $2, data, 0, $3, NOW(), NOW()
		FROM dead_letters
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, insertQuery, id, domain.SendJobStatusPending, domain.MaxSendAttempts)
	if err != nil {
		return fmt.Errorf("failed to requeue dead letter: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if inserted == 0 {
		return &domain.ErrNotFound{Entity: "dead letter", ID: id}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete dead letter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RequeueAll requeues every entry, returning how many moved
func (r *DeadLetterRepository) RequeueAll(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertQuery := `
		INSERT INTO send_queue (id, outbox_id, tenant_id, status, payload, attempts, max_attempts, created_at, updated_at)
		SELECT job_id, outbox_id, tenant_id, $1, data, 0, $2, NOW(), NOW()
		FROM dead_letters
	`

	if _, err := tx.ExecContext(ctx, insertQuery, domain.SendJobStatusPending, domain.MaxSendAttempts); err != nil {
		return 0, fmt.Errorf("failed to requeue dead letters: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM dead_letters`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete dead letters: %w", err)
	}

	moved, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return moved, nil
}

// Delete removes an entry
func (r *DeadLetterRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dead letter: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return &domain.ErrNotFound{Entity: "dead letter", ID: id}
	}

	return nil
}

// DeleteOlderThan removes entries that failed more than olderThan ago
func (r *DeadLetterRepository) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `DELETE FROM dead_letters WHERE failed_at < NOW() - ($1 * INTERVAL '1 second')`

	result, err := r.db.ExecContext(ctx, query, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old dead letters: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}

// GetStats summarizes the queue for the ops API
func (r *DeadLetterRepository) GetStats(ctx context.Context) (*domain.DLQStats, error) {
	query := `
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN failed_at < NOW() - ($1 * INTERVAL '1 second') THEN 1 ELSE 0 END), 0) as old_count,
			COALESCE(SUM(CASE WHEN failed_at > NOW() - ($2 * INTERVAL '1 second') THEN 1 ELSE 0 END), 0) as recent_count,
			COALESCE(EXTRACT(EPOCH FROM (NOW() - MIN(failed_at))) / 3600, 0) as oldest_age_hours
		FROM dead_letters
	`

	stats := &domain.DLQStats{}
	err := r.db.QueryRowContext(ctx, query,
		domain.DLQOldEntryAge.Seconds(), domain.DLQRecentEntryAge.Seconds()).Scan(
		&stats.Total, &stats.OldCount, &stats.RecentCount, &stats.OldestAgeHours,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letter stats: %w", err)
	}

	errorQuery := `
		SELECT failed_reason, COUNT(*) as count
		FROM dead_letters
		GROUP BY failed_reason
		ORDER BY count DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, errorQuery, domain.DLQCommonErrorLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query common errors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var errorCount domain.DLQErrorCount
		if err := rows.Scan(&errorCount.Reason, &errorCount.Count); err != nil {
			return nil, fmt.Errorf("failed to scan error count: %w", err)
		}
		stats.CommonErrors = append(stats.CommonErrors, errorCount)
	}

	return stats, rows.Err()
}

// scanDeadLetter scans a row into a DeadLetterEntry
func scanDeadLetter(row interface{ Scan(...interface{}) error }) (*domain.DeadLetterEntry, error) {
	var entry domain.DeadLetterEntry
	var data []byte
	var stacktrace sql.NullString

	err := row.Scan(
		&entry.ID, &entry.JobID, &entry.TenantID, &entry.OutboxID, &data,
		&entry.FailedReason, &entry.AttemptsMade, &entry.EnqueuedAt, &entry.FailedAt, &stacktrace,
	)
	if err != nil {
		return nil, err
	}

	if data != nil {
		if err := entry.Data.Scan(data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}
	if stacktrace.Valid {
		entry.Stacktrace = &stacktrace.String
	}

	return &entry, nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/sendgate/sendgate/internal/domain"
)

// SendQueueRepository implements domain.SendQueueRepository
type SendQueueRepository struct {
	db *sql.DB
}

// NewSendQueueRepository creates a new SendQueueRepository
func NewSendQueueRepository(db *sql.DB) domain.SendQueueRepository {
	return &SendQueueRepository{
		db: db,
	}
}

// sendQueuePsql is a Squirrel StatementBuilder configured for PostgreSQL
var sendQueuePsql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Enqueue adds jobs to the queue
func (r *SendQueueRepository) Enqueue(ctx context.Context, jobs []*domain.SendJob) error {
	if len(jobs) == 0 {
		return nil
	}

	// Use a transaction for batch insert
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.EnqueueTx(ctx, tx, jobs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// EnqueueTx adds jobs to the queue within an existing transaction
func (r *SendQueueRepository) EnqueueTx(ctx context.Context, tx *sql.Tx, jobs []*domain.SendJob) error {
	if len(jobs) == 0 {
		return nil
	}

	now := time.Now().UTC()

	insertBuilder := sendQueuePsql.
		Insert("send_queue").
		Columns(
			"id", "outbox_id", "tenant_id", "status", "payload",
			"attempts", "max_attempts", "created_at", "updated_at",
		)

	for _, job := range jobs {
		// Generate ID if not set
		if job.ID == "" {
			job.ID = uuid.New().String()
		}

		// Set defaults
		if job.Status == "" {
			job.Status = domain.SendJobStatusPending
		}
		if job.MaxAttempts == 0 {
			job.MaxAttempts = domain.MaxSendAttempts
		}

		job.CreatedAt = now
		job.UpdatedAt = now

		payloadJSON, err := json.Marshal(job.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}

		insertBuilder = insertBuilder.Values(
			job.ID, job.OutboxID, job.TenantID, job.Status, payloadJSON,
			job.Attempts, job.MaxAttempts, job.CreatedAt, job.UpdatedAt,
		)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert queue jobs: %w", err)
	}

	return nil
}

// FetchPending claims up to limit due jobs and flips them to processing in
// the same statement. FOR UPDATE SKIP LOCKED keeps concurrent workers from
// claiming the same rows.
func (r *SendQueueRepository) FetchPending(ctx context.Context, limit int) ([]*domain.SendJob, error) {
	query := `
		UPDATE send_queue
		SET status = 'processing', updated_at = NOW()
		WHERE id IN (
			SELECT id
			FROM send_queue
			WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, outbox_id, tenant_id, status, payload, attempts, max_attempts,
		          last_error, next_retry_at, created_at, updated_at
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.SendJob
	for rows.Next() {
		job, err := scanSendJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return jobs, nil
}

// Complete deletes the job after a successful send
// (jobs are removed immediately rather than kept with a "sent" status; the
// email log is the terminal record)
func (r *SendQueueRepository) Complete(ctx context.Context, id string) error {
	query := `DELETE FROM send_queue WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete completed job: %w", err)
	}

	return nil
}

// MarkAsFailed returns a claimed job to pending and schedules the retry
func (r *SendQueueRepository) MarkAsFailed(ctx context.Context, id string, errorMsg string, nextRetryAt time.Time) error {
	now := time.Now().UTC()
	query := `
		UPDATE send_queue
		SET status = 'pending', attempts = attempts + 1, updated_at = $2, last_error = $3, next_retry_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, now, errorMsg, nextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to mark job as failed: %w", err)
	}

	return nil
}

// MoveToDeadLetter copies the job into dead_letters and removes it from the
// queue in one transaction
func (r *SendQueueRepository) MoveToDeadLetter(ctx context.Context, job *domain.SendJob, finalError string, stacktrace *string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	payloadJSON, err := json.Marshal(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := time.Now().UTC()
	insertQuery := `
		INSERT INTO dead_letters (id, job_id, tenant_id, outbox_id, data, failed_reason, attempts_made, enqueued_at, failed_at, stacktrace)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = tx.ExecContext(ctx, insertQuery,
		uuid.New().String(),
		job.ID,
		job.TenantID,
		job.OutboxID,
		payloadJSON,
		finalError,
		job.Attempts,
		job.CreatedAt,
		now,
		stacktrace,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dead letter: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM send_queue WHERE id = $1`, job.ID)
	if err != nil {
		return fmt.Errorf("failed to delete dead job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ReleaseStuck returns jobs stuck in processing back to pending, covering
// workers that died mid flight
func (r *SendQueueRepository) ReleaseStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE send_queue
		SET status = 'pending', updated_at = NOW()
		WHERE status = 'processing' AND updated_at < NOW() - ($1 * INTERVAL '1 second')
	`

	result, err := r.db.ExecContext(ctx, query, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to release stuck jobs: %w", err)
	}

	released, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return released, nil
}

// GetStats returns queue counters
// Note: completed jobs are deleted immediately, so we don't track them here
func (r *SendQueueRepository) GetStats(ctx context.Context) (*domain.SendQueueStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) as pending,
			COALESCE(SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END), 0) as processing,
			MIN(created_at) FILTER (WHERE status = 'pending') as oldest_pending
		FROM send_queue
	`

	var stats domain.SendQueueStats
	var oldestPending sql.NullTime
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Pending, &stats.Processing, &oldestPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %w", err)
	}

	if oldestPending.Valid {
		stats.OldestPending = &oldestPending.Time
	}

	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letters`).Scan(&stats.DeadLetter)
	if err != nil {
		return nil, fmt.Errorf("failed to count dead letters: %w", err)
	}

	return &stats, nil
}

// scanSendJob scans a row into a SendJob
func scanSendJob(rows *sql.Rows) (*domain.SendJob, error) {
	var job domain.SendJob
	var payloadJSON []byte
	var lastError sql.NullString
	var nextRetryAt sql.NullTime

	err := rows.Scan(
		&job.ID, &job.OutboxID, &job.TenantID, &job.Status, &payloadJSON,
		&job.Attempts, &job.MaxAttempts, &lastError, &nextRetryAt,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan send job: %w", err)
	}

	if lastError.Valid {
		job.LastError = &lastError.String
	}
	if nextRetryAt.Valid {
		job.NextRetryAt = &nextRetryAt.Time
	}

	if err := json.Unmarshal(payloadJSON, &job.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &job, nil
}

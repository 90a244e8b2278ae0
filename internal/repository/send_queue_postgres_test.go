package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/internal/repository/testutil"
)

func TestNewSendQueueRepository(t *testing.T) {
	db, _, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSendQueueRepository(db)
	require.NotNil(t, repo)
}

func TestSendQueueRepository_Enqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("successfully enqueues single job", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		job := &domain.SendJob{
			ID:       "job-123",
			OutboxID: "outbox-456",
			TenantID: "tenant-789",
			Payload: domain.SendJobPayload{
				RequestID: "req-001",
				To:        "user@example.com",
				Subject:   "Welcome",
				HTMLRef:   "outbox-456",
			},
		}

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO send_queue`).
			WithArgs(
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.Enqueue(ctx, []*domain.SendJob{job})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("handles empty jobs slice", func(t *testing.T) {
		db, _, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		err := repo.Enqueue(ctx, []*domain.SendJob{})
		assert.NoError(t, err)
	})

	t.Run("returns error on begin transaction failure", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		job := &domain.SendJob{ID: "job-123", OutboxID: "outbox-456", TenantID: "tenant-789"}

		mock.ExpectBegin().WillReturnError(errors.New("connection error"))

		err := repo.Enqueue(ctx, []*domain.SendJob{job})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
	})

	t.Run("returns error on insert failure", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		job := &domain.SendJob{ID: "job-123", OutboxID: "outbox-456", TenantID: "tenant-789"}

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO send_queue`).
			WillReturnError(errors.New("insert error"))
		mock.ExpectRollback()

		err := repo.Enqueue(ctx, []*domain.SendJob{job})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert queue jobs")
	})

	t.Run("sets default values when not provided", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		// Job without ID, status, max_attempts
		job := &domain.SendJob{
			OutboxID: "outbox-001",
			TenantID: "tenant-001",
			Payload:  domain.SendJobPayload{To: "user@example.com"},
		}

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO send_queue`).
			WithArgs(
				sqlmock.AnyArg(), // ID should be generated
				"outbox-001",
				"tenant-001",
				domain.SendJobStatusPending,
				sqlmock.AnyArg(),
				0,
				domain.MaxSendAttempts,
				sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.Enqueue(ctx, []*domain.SendJob{job})
		assert.NoError(t, err)

		// Verify defaults were set on the job
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, domain.SendJobStatusPending, job.Status)
		assert.Equal(t, domain.MaxSendAttempts, job.MaxAttempts)
	})

	t.Run("successfully enqueues multiple jobs batch", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		jobs := []*domain.SendJob{
			{ID: "job-1", OutboxID: "outbox-1", TenantID: "tenant-1"},
			{ID: "job-2", OutboxID: "outbox-2", TenantID: "tenant-1"},
		}

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO send_queue`).
			WillReturnResult(sqlmock.NewResult(2, 2))
		mock.ExpectCommit()

		err := repo.Enqueue(ctx, jobs)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSendQueueRepository_EnqueueTx(t *testing.T) {
	ctx := context.Background()

	t.Run("enqueues within caller transaction", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO send_queue`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)

		job := &domain.SendJob{ID: "job-1", OutboxID: "outbox-1", TenantID: "tenant-1"}
		err = repo.EnqueueTx(ctx, tx, []*domain.SendJob{job})
		assert.NoError(t, err)

		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSendQueueRepository_FetchPending(t *testing.T) {
	ctx := context.Background()

	t.Run("claims due jobs and returns them as processing", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		now := time.Now().UTC()
		payload := domain.SendJobPayload{
			RequestID: "req-1",
			To:        "user@example.com",
			Subject:   "Hello",
			HTMLRef:   "outbox-1",
		}
		payloadJSON, _ := json.Marshal(payload)

		rows := sqlmock.NewRows([]string{
			"id", "outbox_id", "tenant_id", "status", "payload", "attempts", "max_attempts",
			"last_error", "next_retry_at", "created_at", "updated_at",
		}).AddRow(
			"job-1", "outbox-1", "tenant-1", "processing", payloadJSON, 0, 6,
			nil, nil, now, now,
		).AddRow(
			"job-2", "outbox-2", "tenant-1", "processing", payloadJSON, 2, 6,
			"smtp timeout", now, now, now,
		)

		mock.ExpectQuery(`UPDATE send_queue`).
			WithArgs(10).
			WillReturnRows(rows)

		jobs, err := repo.FetchPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 2)

		assert.Equal(t, "job-1", jobs[0].ID)
		assert.Equal(t, domain.SendJobStatusProcessing, jobs[0].Status)
		assert.Equal(t, "user@example.com", jobs[0].Payload.To)
		assert.Nil(t, jobs[0].LastError)

		assert.Equal(t, "job-2", jobs[1].ID)
		assert.Equal(t, 2, jobs[1].Attempts)
		require.NotNil(t, jobs[1].LastError)
		assert.Equal(t, "smtp timeout", *jobs[1].LastError)
		assert.NotNil(t, jobs[1].NextRetryAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty slice when nothing is due", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		rows := sqlmock.NewRows([]string{
			"id", "outbox_id", "tenant_id", "status", "payload", "attempts", "max_attempts",
			"last_error", "next_retry_at", "created_at", "updated_at",
		})

		mock.ExpectQuery(`UPDATE send_queue`).
			WithArgs(5).
			WillReturnRows(rows)

		jobs, err := repo.FetchPending(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectQuery(`UPDATE send_queue`).
			WillReturnError(errors.New("database down"))

		jobs, err := repo.FetchPending(ctx, 5)
		assert.Error(t, err)
		assert.Nil(t, jobs)
		assert.Contains(t, err.Error(), "failed to claim pending jobs")
	})

	t.Run("returns error on malformed payload", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		now := time.Now().UTC()
		rows := sqlmock.NewRows([]string{
			"id", "outbox_id", "tenant_id", "status", "payload", "attempts", "max_attempts",
			"last_error", "next_retry_at", "created_at", "updated_at",
		}).AddRow(
			"job-1", "outbox-1", "tenant-1", "processing", []byte("not json"), 0, 6,
			nil, nil, now, now,
		)

		mock.ExpectQuery(`UPDATE send_queue`).
			WillReturnRows(rows)

		jobs, err := repo.FetchPending(ctx, 5)
		assert.Error(t, err)
		assert.Nil(t, jobs)
		assert.Contains(t, err.Error(), "failed to unmarshal payload")
	})
}

func TestSendQueueRepository_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the job", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectExec(`DELETE FROM send_queue`).
			WithArgs("job-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Complete(ctx, "job-1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error on delete failure", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectExec(`DELETE FROM send_queue`).
			WillReturnError(errors.New("delete error"))

		err := repo.Complete(ctx, "job-1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete completed job")
	})
}

func TestSendQueueRepository_MarkAsFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("returns job to pending with retry schedule", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		nextRetry := time.Now().UTC().Add(5 * time.Second)
		mock.ExpectExec(`UPDATE send_queue`).
			WithArgs("job-1", sqlmock.AnyArg(), "smtp timeout", nextRetry).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MarkAsFailed(ctx, "job-1", "smtp timeout", nextRetry)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error on update failure", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectExec(`UPDATE send_queue`).
			WillReturnError(errors.New("update error"))

		err := repo.MarkAsFailed(ctx, "job-1", "smtp timeout", time.Now())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to mark job as failed")
	})
}

func TestSendQueueRepository_MoveToDeadLetter(t *testing.T) {
	ctx := context.Background()

	job := &domain.SendJob{
		ID:       "job-1",
		OutboxID: "outbox-1",
		TenantID: "tenant-1",
		Status:   domain.SendJobStatusProcessing,
		Payload: domain.SendJobPayload{
			RequestID: "req-1",
			To:        "user@example.com",
		},
		Attempts:  6,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}

	t.Run("moves job to dead letters in one transaction", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO dead_letters`).
			WithArgs(
				sqlmock.AnyArg(), "job-1", "tenant-1", "outbox-1", sqlmock.AnyArg(),
				"all attempts exhausted", 6, job.CreatedAt, sqlmock.AnyArg(), nil,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`DELETE FROM send_queue`).
			WithArgs("job-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.MoveToDeadLetter(ctx, job, "all attempts exhausted", nil)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when insert fails", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO dead_letters`).
			WillReturnError(errors.New("insert error"))
		mock.ExpectRollback()

		err := repo.MoveToDeadLetter(ctx, job, "all attempts exhausted", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert dead letter")
	})

	t.Run("rolls back when queue delete fails", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO dead_letters`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`DELETE FROM send_queue`).
			WillReturnError(errors.New("delete error"))
		mock.ExpectRollback()

		err := repo.MoveToDeadLetter(ctx, job, "all attempts exhausted", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete dead job")
	})
}

func TestSendQueueRepository_ReleaseStuck(t *testing.T) {
	ctx := context.Background()

	t.Run("releases stuck jobs and reports count", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectExec(`UPDATE send_queue`).
			WithArgs(float64(120)).
			WillReturnResult(sqlmock.NewResult(0, 3))

		released, err := repo.ReleaseStuck(ctx, 2*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(3), released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error on update failure", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectExec(`UPDATE send_queue`).
			WillReturnError(errors.New("update error"))

		released, err := repo.ReleaseStuck(ctx, 2*time.Minute)
		assert.Error(t, err)
		assert.Zero(t, released)
		assert.Contains(t, err.Error(), "failed to release stuck jobs")
	})
}

func TestSendQueueRepository_GetStats(t *testing.T) {
	ctx := context.Background()

	t.Run("returns queue counters", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		oldest := time.Now().UTC().Add(-10 * time.Minute)
		mock.ExpectQuery(`SELECT`).
			WillReturnRows(sqlmock.NewRows([]string{"pending", "processing", "oldest_pending"}).
				AddRow(12, 3, oldest))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM dead_letters`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		stats, err := repo.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(12), stats.Pending)
		assert.Equal(t, int64(3), stats.Processing)
		assert.Equal(t, int64(2), stats.DeadLetter)
		require.NotNil(t, stats.OldestPending)
		assert.True(t, stats.OldestPending.Equal(oldest))
	})

	t.Run("handles empty queue", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectQuery(`SELECT`).
			WillReturnRows(sqlmock.NewRows([]string{"pending", "processing", "oldest_pending"}).
				AddRow(0, 0, nil))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM dead_letters`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		stats, err := repo.GetStats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Pending)
		assert.Zero(t, stats.Processing)
		assert.Zero(t, stats.DeadLetter)
		assert.Nil(t, stats.OldestPending)
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewSendQueueRepository(db)

		mock.ExpectQuery(`SELECT`).
			WillReturnError(errors.New("query error"))

		stats, err := repo.GetStats(ctx)
		assert.Error(t, err)
		assert.Nil(t, stats)
		assert.Contains(t, err.Error(), "failed to get queue stats")
	})
}

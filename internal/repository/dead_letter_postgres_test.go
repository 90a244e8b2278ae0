package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/internal/repository/testutil"
)

func deadLetterRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "job_id", "tenant_id", "outbox_id", "data", "failed_reason",
		"attempts_made", "enqueued_at", "failed_at", "stacktrace",
	})
}

func TestDeadLetterRepository_List(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("returns entries with total count", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

		rows := deadLetterRows().
			AddRow("dl-001", "job-001", "tenant-001", "outbox-001",
				[]byte(`{"request_id":"req-1","to":"alice@example.com","subject":"Hi","html_ref":"outbox-001","recipient":{"email":"alice@example.com"}}`),
				"all attempts exhausted", 6, now.Add(-2*time.Hour), now.Add(-time.Hour), nil).
			AddRow("dl-002", "job-002", "tenant-002", "outbox-002",
				[]byte(`{"request_id":"req-2","to":"bob@example.com","subject":"Yo","html_ref":"outbox-002","recipient":{"email":"bob@example.com"}}`),
				"smtp timeout", 6, now.Add(-3*time.Hour), now.Add(-2*time.Hour), "goroutine 1 [running]")

		mock.ExpectQuery("SELECT (.+) FROM dead_letters").
			WithArgs(20, 0).
			WillReturnRows(rows)

		entries, total, err := repo.List(ctx, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(42), total)
		require.Len(t, entries, 2)
		assert.Equal(t, "dl-001", entries[0].ID)
		assert.Equal(t, "alice@example.com", entries[0].Data.To)
		assert.Nil(t, entries[0].Stacktrace)
		require.NotNil(t, entries[1].Stacktrace)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when count fails", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WillReturnError(errors.New("database error"))

		entries, total, err := repo.List(ctx, 20, 0)
		assert.Nil(t, entries)
		assert.Zero(t, total)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to count dead letters")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeadLetterRepository_GetByID(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("returns entry", func(t *testing.T) {
		rows := deadLetterRows().AddRow(
			"dl-001", "job-001", "tenant-001", "outbox-001",
			[]byte(`{"request_id":"req-1","to":"alice@example.com","subject":"Hi","html_ref":"outbox-001","recipient":{"email":"alice@example.com"}}`),
			"all attempts exhausted", 6, now.Add(-2*time.Hour), now.Add(-time.Hour), nil,
		)

		mock.ExpectQuery("SELECT (.+) FROM dead_letters").
			WithArgs("dl-001").
			WillReturnRows(rows)

		entry, err := repo.GetByID(ctx, "dl-001")
		require.NoError(t, err)
		assert.Equal(t, "job-001", entry.JobID)
		assert.Equal(t, 6, entry.AttemptsMade)
		assert.Equal(t, "req-1", entry.Data.RequestID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing entry", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM dead_letters").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		entry, err := repo.GetByID(ctx, "missing")
		assert.Nil(t, entry)
		assert.True(t, domain.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeadLetterRepository_Requeue(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	t.Run("moves entry back to send queue", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO send_queue").
			WithArgs("dl-001", domain.SendJobStatusPending, domain.MaxSendAttempts).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM dead_letters").
			WithArgs("dl-001").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Requeue(ctx, "dl-001")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing entry", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO send_queue").
			WithArgs("missing", domain.SendJobStatusPending, domain.MaxSendAttempts).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Requeue(ctx, "missing")
		assert.True(t, domain.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when delete fails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO send_queue").
			WithArgs("dl-001", domain.SendJobStatusPending, domain.MaxSendAttempts).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM dead_letters").
			WithArgs("dl-001").
			WillReturnError(errors.New("database error"))
		mock.ExpectRollback()

		err := repo.Requeue(ctx, "dl-001")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete dead letter")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeadLetterRepository_RequeueAll(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	t.Run("moves all entries back to send queue", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO send_queue").
			WithArgs(domain.SendJobStatusPending, domain.MaxSendAttempts).
			WillReturnResult(sqlmock.NewResult(0, 5))
		mock.ExpectExec("DELETE FROM dead_letters").
			WillReturnResult(sqlmock.NewResult(0, 5))
		mock.ExpectCommit()

		moved, err := repo.RequeueAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), moved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when insert fails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO send_queue").
			WillReturnError(errors.New("database error"))
		mock.ExpectRollback()

		moved, err := repo.RequeueAll(ctx)
		assert.Zero(t, moved)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to requeue dead letters")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeadLetterRepository_Delete(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	t.Run("deletes entry", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM dead_letters").
			WithArgs("dl-001").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(ctx, "dl-001")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing entry", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM dead_letters").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(ctx, "missing")
		assert.True(t, domain.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeadLetterRepository_DeleteOlderThan(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	t.Run("deletes old entries", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM dead_letters").
			WithArgs(float64(7 * 24 * 3600)).
			WillReturnResult(sqlmock.NewResult(0, 12))

		deleted, err := repo.DeleteOlderThan(ctx, 7*24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(12), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when delete fails", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM dead_letters").
			WillReturnError(errors.New("database error"))

		deleted, err := repo.DeleteOlderThan(ctx, time.Hour)
		assert.Zero(t, deleted)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete old dead letters")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeadLetterRepository_GetStats(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	t.Run("returns stats with common errors", func(t *testing.T) {
		statRows := sqlmock.NewRows([]string{"total", "old_count", "recent_count", "oldest_age_hours"}).
			AddRow(int64(120), int64(3), int64(60), 36.5)

		mock.ExpectQuery("SELECT(.+)FROM dead_letters").
			WithArgs(domain.DLQOldEntryAge.Seconds(), domain.DLQRecentEntryAge.Seconds()).
			WillReturnRows(statRows)

		errorRows := sqlmock.NewRows([]string{"failed_reason", "count"}).
			AddRow("smtp timeout", int64(80)).
			AddRow("connection refused", int64(40))

		mock.ExpectQuery("SELECT failed_reason").
			WithArgs(domain.DLQCommonErrorLimit).
			WillReturnRows(errorRows)

		stats, err := repo.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(120), stats.Total)
		assert.Equal(t, int64(3), stats.OldCount)
		assert.Equal(t, int64(60), stats.RecentCount)
		assert.Equal(t, 36.5, stats.OldestAgeHours)
		require.Len(t, stats.CommonErrors, 2)
		assert.Equal(t, "smtp timeout", stats.CommonErrors[0].Reason)
		assert.Equal(t, domain.DLQHealthCritical, stats.Health())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero stats for empty queue", func(t *testing.T) {
		statRows := sqlmock.NewRows([]string{"total", "old_count", "recent_count", "oldest_age_hours"}).
			AddRow(int64(0), int64(0), int64(0), 0.0)

		mock.ExpectQuery("SELECT(.+)FROM dead_letters").
			WithArgs(domain.DLQOldEntryAge.Seconds(), domain.DLQRecentEntryAge.Seconds()).
			WillReturnRows(statRows)

		mock.ExpectQuery("SELECT failed_reason").
			WithArgs(domain.DLQCommonErrorLimit).
			WillReturnRows(sqlmock.NewRows([]string{"failed_reason", "count"}))

		stats, err := repo.GetStats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Total)
		assert.Empty(t, stats.CommonErrors)
		assert.Equal(t, domain.DLQHealthHealthy, stats.Health())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when stats query fails", func(t *testing.T) {
		mock.ExpectQuery("SELECT(.+)FROM dead_letters").
			WillReturnError(errors.New("database error"))

		stats, err := repo.GetStats(ctx)
		assert.Nil(t, stats)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get dead letter stats")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

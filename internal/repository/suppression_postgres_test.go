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

func TestSuppressionRepository_Upsert(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSuppressionRepository(db)
	ctx := context.Background()

	t.Run("upserts a hard bounce suppression", func(t *testing.T) {
		bounceType := "Permanent"
		diagnostic := "smtp; 550 5.1.1 user unknown"
		suppression := domain.NewSuppression("tenant-001", "gone@example.com", domain.SuppressionReasonHardBounce)
		suppression.BounceType = &bounceType
		suppression.DiagnosticCode = &diagnostic

		mock.ExpectExec("INSERT INTO suppressions").
			WithArgs("tenant-001", "gone@example.com", "example.com", domain.SuppressionReasonHardBounce,
				&bounceType, &diagnostic, sqlmock.AnyArg(), nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Upsert(ctx, suppression)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("upserts an expiring transient block", func(t *testing.T) {
		expiresAt := time.Now().UTC().Add(72 * time.Hour)
		suppression := domain.NewSuppression("tenant-001", "full@example.com", domain.SuppressionReasonTransientBlock)
		suppression.ExpiresAt = &expiresAt

		mock.ExpectExec("INSERT INTO suppressions").
			WithArgs("tenant-001", "full@example.com", "example.com", domain.SuppressionReasonTransientBlock,
				nil, nil, sqlmock.AnyArg(), &expiresAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Upsert(ctx, suppression)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when upsert fails", func(t *testing.T) {
		suppression := domain.NewSuppression("tenant-001", "gone@example.com", domain.SuppressionReasonManual)

		mock.ExpectExec("INSERT INTO suppressions").
			WillReturnError(errors.New("database error"))

		err := repo.Upsert(ctx, suppression)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upsert suppression")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSuppressionRepository_Get(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSuppressionRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("returns suppression", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"tenant_id", "email", "domain", "reason", "bounce_type", "diagnostic_code", "suppressed_at", "expires_at",
		}).AddRow(
			"tenant-001", "gone@example.com", "example.com", string(domain.SuppressionReasonHardBounce),
			"Permanent", "smtp; 550 5.1.1 user unknown", now, nil,
		)

		mock.ExpectQuery("SELECT (.+) FROM suppressions").
			WithArgs("tenant-001", "gone@example.com").
			WillReturnRows(rows)

		suppression, err := repo.Get(ctx, "tenant-001", "gone@example.com")
		require.NoError(t, err)
		assert.Equal(t, domain.SuppressionReasonHardBounce, suppression.Reason)
		require.NotNil(t, suppression.BounceType)
		assert.Equal(t, "Permanent", *suppression.BounceType)
		assert.Nil(t, suppression.ExpiresAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for unsuppressed address", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM suppressions").
			WithArgs("tenant-001", "ok@example.com").
			WillReturnError(sql.ErrNoRows)

		suppression, err := repo.Get(ctx, "tenant-001", "ok@example.com")
		assert.Nil(t, suppression)
		assert.True(t, domain.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSuppressionRepository_IsSuppressed(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSuppressionRepository(db)
	ctx := context.Background()

	t.Run("returns true for suppressed address", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("tenant-001", "gone@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		suppressed, err := repo.IsSuppressed(ctx, "tenant-001", "gone@example.com")
		require.NoError(t, err)
		assert.True(t, suppressed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns false for clean address", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("tenant-001", "ok@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		suppressed, err := repo.IsSuppressed(ctx, "tenant-001", "ok@example.com")
		require.NoError(t, err)
		assert.False(t, suppressed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when query fails", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WillReturnError(errors.New("database error"))

		suppressed, err := repo.IsSuppressed(ctx, "tenant-001", "gone@example.com")
		assert.False(t, suppressed)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check suppression")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSuppressionRepository_Delete(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSuppressionRepository(db)
	ctx := context.Background()

	t.Run("deletes suppression", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM suppressions").
			WithArgs("tenant-001", "gone@example.com").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(ctx, "tenant-001", "gone@example.com")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when delete fails", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM suppressions").
			WillReturnError(errors.New("database error"))

		err := repo.Delete(ctx, "tenant-001", "gone@example.com")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete suppression")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSuppressionRepository_DeleteExpired(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSuppressionRepository(db)
	ctx := context.Background()

	t.Run("deletes expired suppressions", func(t *testing.T) {
		now := time.Now().UTC()

		mock.ExpectExec("DELETE FROM suppressions").
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 7))

		deleted, err := repo.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(7), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when delete fails", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM suppressions").
			WillReturnError(errors.New("database error"))

		deleted, err := repo.DeleteExpired(ctx, time.Now().UTC())
		assert.Zero(t, deleted)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete expired suppressions")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

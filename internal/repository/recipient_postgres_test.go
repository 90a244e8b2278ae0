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

func TestRecipientRepository_GetByID(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewRecipientRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("returns recipient", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "email", "created_at", "deleted_at"}).
			AddRow("recipient-001", "tenant-001", "alice@example.com", now, nil)

		mock.ExpectQuery("SELECT (.+) FROM recipients").
			WithArgs("recipient-001").
			WillReturnRows(rows)

		recipient, err := repo.GetByID(ctx, "recipient-001")
		require.NoError(t, err)
		assert.Equal(t, "recipient-001", recipient.ID)
		assert.Equal(t, "alice@example.com", recipient.Email)
		assert.False(t, recipient.IsDeleted())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns soft deleted recipient", func(t *testing.T) {
		deletedAt := now.Add(-time.Hour)
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "email", "created_at", "deleted_at"}).
			AddRow("recipient-002", "tenant-001", "bob@example.com", now, deletedAt)

		mock.ExpectQuery("SELECT (.+) FROM recipients").
			WithArgs("recipient-002").
			WillReturnRows(rows)

		recipient, err := repo.GetByID(ctx, "recipient-002")
		require.NoError(t, err)
		assert.True(t, recipient.IsDeleted())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing recipient", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM recipients").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		recipient, err := repo.GetByID(ctx, "missing")
		assert.Nil(t, recipient)
		assert.True(t, domain.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when query fails", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM recipients").
			WithArgs("recipient-001").
			WillReturnError(errors.New("database error"))

		recipient, err := repo.GetByID(ctx, "recipient-001")
		assert.Nil(t, recipient)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get recipient")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

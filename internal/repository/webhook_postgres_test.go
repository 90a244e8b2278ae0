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

func webhookRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "url", "encrypted_secret", "events", "is_active", "created_at", "updated_at",
	})
}

func TestWebhookRepository_GetByID(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewWebhookRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("returns webhook", func(t *testing.T) {
		rows := webhookRows().AddRow(
			"webhook-001", "tenant-001", "https://example.com/hooks", "deadbeef",
			[]byte(`["bounce","complaint"]`), true, now, now,
		)

		mock.ExpectQuery("SELECT (.+) FROM webhooks").
			WithArgs("webhook-001").
			WillReturnRows(rows)

		webhook, err := repo.GetByID(ctx, "webhook-001")
		require.NoError(t, err)
		assert.Equal(t, "webhook-001", webhook.ID)
		assert.Equal(t, "https://example.com/hooks", webhook.URL)
		assert.True(t, webhook.SubscribesTo(domain.WebhookEventBounce))
		assert.False(t, webhook.SubscribesTo(domain.WebhookEventOpen))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing webhook", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM webhooks").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		webhook, err := repo.GetByID(ctx, "missing")
		assert.Nil(t, webhook)
		assert.True(t, domain.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWebhookRepository_ListActiveForEvent(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewWebhookRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("returns subscribed active webhooks", func(t *testing.T) {
		rows := webhookRows().
			AddRow("webhook-001", "tenant-001", "https://example.com/hooks", "deadbeef",
				[]byte(`["bounce","complaint"]`), true, now, now).
			AddRow("webhook-002", "tenant-001", "https://example.org/notify", "cafebabe",
				[]byte(`["bounce"]`), true, now, now)

		mock.ExpectQuery("SELECT (.+) FROM webhooks").
			WithArgs("tenant-001", `["bounce"]`).
			WillReturnRows(rows)

		webhooks, err := repo.ListActiveForEvent(ctx, "tenant-001", domain.WebhookEventBounce)
		require.NoError(t, err)
		require.Len(t, webhooks, 2)
		assert.Equal(t, "webhook-001", webhooks[0].ID)
		assert.Equal(t, "webhook-002", webhooks[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty list when no webhook subscribes", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM webhooks").
			WithArgs("tenant-001", `["click"]`).
			WillReturnRows(webhookRows())

		webhooks, err := repo.ListActiveForEvent(ctx, "tenant-001", domain.WebhookEventClick)
		require.NoError(t, err)
		assert.Empty(t, webhooks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when query fails", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM webhooks").
			WillReturnError(errors.New("database error"))

		webhooks, err := repo.ListActiveForEvent(ctx, "tenant-001", domain.WebhookEventBounce)
		assert.Nil(t, webhooks)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query webhooks")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/internal/repository/testutil"
)

func TestFeedbackQueueRepository_Enqueue(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewFeedbackQueueRepository(db)
	ctx := context.Background()

	t.Run("inserts a pending entry with generated defaults", func(t *testing.T) {
		entry := &domain.FeedbackQueueEntry{
			Provider: domain.ProviderKindSES,
			Event: domain.FeedbackEvent{
				Type:      domain.FeedbackEventBounce,
				MessageID: "ses-msg-001",
				Timestamp: time.Now().UTC(),
			},
			RawPayload: `{"notificationType":"Bounce"}`,
		}

		mock.ExpectExec("INSERT INTO feedback_queue").
			WithArgs(sqlmock.AnyArg(), domain.ProviderKindSES, sqlmock.AnyArg(),
				`{"notificationType":"Bounce"}`, domain.FeedbackQueueStatusPending, 0,
				sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Enqueue(ctx, entry)
		assert.NoError(t, err)
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, domain.FeedbackQueueStatusPending, entry.Status)
		assert.False(t, entry.ReceivedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when insert fails", func(t *testing.T) {
		entry := &domain.FeedbackQueueEntry{
			Provider: domain.ProviderKindSMTP,
			Event:    domain.FeedbackEvent{Type: domain.FeedbackEventComplaint},
		}

		mock.ExpectExec("INSERT INTO feedback_queue").
			WillReturnError(errors.New("database error"))

		err := repo.Enqueue(ctx, entry)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to enqueue feedback")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFeedbackQueueRepository_FetchPending(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewFeedbackQueueRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("claims pending entries", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "provider", "event", "raw_payload", "status", "attempts", "last_error", "received_at", "updated_at",
		}).
			AddRow("fb-001", string(domain.ProviderKindSES),
				[]byte(`{"type":"bounce","message_id":"ses-msg-001","timestamp":"2026-08-25T10:00:00Z"}`),
				`{"notificationType":"Bounce"}`, string(domain.FeedbackQueueStatusProcessing), 0, nil, now, now).
			AddRow("fb-002", string(domain.ProviderKindSMTP),
				[]byte(`{"type":"complaint","message_id":"smtp-msg-002","timestamp":"2026-08-25T10:01:00Z"}`),
				"raw arf report", string(domain.FeedbackQueueStatusProcessing), 1, "parse error", now, now)

		mock.ExpectQuery("UPDATE feedback_queue").
			WithArgs(domain.FeedbackQueueStatusProcessing, domain.FeedbackQueueStatusPending, 50).
			WillReturnRows(rows)

		entries, err := repo.FetchPending(ctx, 50)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "fb-001", entries[0].ID)
		assert.Equal(t, domain.FeedbackEventBounce, entries[0].Event.Type)
		assert.Equal(t, "ses-msg-001", entries[0].Event.MessageID)
		require.NotNil(t, entries[1].LastError)
		assert.Equal(t, "parse error", *entries[1].LastError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty list when queue is empty", func(t *testing.T) {
		mock.ExpectQuery("UPDATE feedback_queue").
			WithArgs(domain.FeedbackQueueStatusProcessing, domain.FeedbackQueueStatusPending, 50).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "provider", "event", "raw_payload", "status", "attempts", "last_error", "received_at", "updated_at",
			}))

		entries, err := repo.FetchPending(ctx, 50)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when claim fails", func(t *testing.T) {
		mock.ExpectQuery("UPDATE feedback_queue").
			WillReturnError(errors.New("database error"))

		entries, err := repo.FetchPending(ctx, 50)
		assert.Nil(t, entries)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to claim feedback entries")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFeedbackQueueRepository_Complete(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewFeedbackQueueRepository(db)
	ctx := context.Background()

	t.Run("removes processed entry", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM feedback_queue").
			WithArgs("fb-001").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Complete(ctx, "fb-001")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when delete fails", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM feedback_queue").
			WillReturnError(errors.New("database error"))

		err := repo.Complete(ctx, "fb-001")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to complete feedback entry")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFeedbackQueueRepository_Fail(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewFeedbackQueueRepository(db)
	ctx := context.Background()

	t.Run("marks entry failed with error", func(t *testing.T) {
		mock.ExpectExec("UPDATE feedback_queue").
			WithArgs("fb-001", domain.FeedbackQueueStatusFailed, "no matching email log").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Fail(ctx, "fb-001", "no matching email log")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when update fails", func(t *testing.T) {
		mock.ExpectExec("UPDATE feedback_queue").
			WillReturnError(errors.New("database error"))

		err := repo.Fail(ctx, "fb-001", "no matching email log")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to mark feedback entry failed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

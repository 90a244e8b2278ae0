package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/internal/domain/mocks"
	"github.com/sendgate/sendgate/pkg/logger"
)

func newDLQService(t *testing.T, ctrl *gomock.Controller) (*DLQService, *mocks.MockDeadLetterRepository, *mocks.MockSendQueueRepository) {
	deadLetters := mocks.NewMockDeadLetterRepository(ctrl)
	sendQueue := mocks.NewMockSendQueueRepository(ctrl)
	svc := NewDLQService(deadLetters, sendQueue, logger.NewTestLogger(t))
	return svc, deadLetters, sendQueue
}

func TestDLQService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps the page size", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, deadLetters, _ := newDLQService(t, ctrl)

		deadLetters.EXPECT().
			List(ctx, dlqMaxPageSize, 0).
			Return([]*domain.DeadLetterEntry{}, int64(0), nil)

		_, _, err := svc.List(ctx, 5000, -3)
		require.NoError(t, err)
	})

	t.Run("defaults the page size", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, deadLetters, _ := newDLQService(t, ctrl)

		entries := []*domain.DeadLetterEntry{{ID: "dl-001", JobID: "job-001"}}
		deadLetters.EXPECT().
			List(ctx, dlqDefaultPageSize, 40).
			Return(entries, int64(41), nil)

		got, total, err := svc.List(ctx, 0, 40)
		require.NoError(t, err)
		assert.Equal(t, entries, got)
		assert.Equal(t, int64(41), total)
	})
}

func TestDLQService_RetryAndRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("retry requeues the entry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, deadLetters, _ := newDLQService(t, ctrl)

		deadLetters.EXPECT().Requeue(ctx, "dl-001").Return(nil)
		require.NoError(t, svc.Retry(ctx, "dl-001"))
	})

	t.Run("retry surfaces missing entries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, deadLetters, _ := newDLQService(t, ctrl)

		deadLetters.EXPECT().
			Requeue(ctx, "dl-404").
			Return(&domain.ErrNotFound{Entity: "dead letter", ID: "dl-404"})

		err := svc.Retry(ctx, "dl-404")
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("remove deletes the entry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, deadLetters, _ := newDLQService(t, ctrl)

		deadLetters.EXPECT().Delete(ctx, "dl-001").Return(nil)
		require.NoError(t, svc.Remove(ctx, "dl-001"))
	})

	t.Run("retry all reports the moved count", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, deadLetters, _ := newDLQService(t, ctrl)

		deadLetters.EXPECT().RequeueAll(ctx).Return(int64(17), nil)

		moved, err := svc.RetryAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(17), moved)
	})
}

func TestDLQService_Clean(t *testing.T) {
	ctx := context.Background()

	t.Run("converts days to a duration", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, deadLetters, _ := newDLQService(t, ctrl)

		deadLetters.EXPECT().
			DeleteOlderThan(ctx, 7*24*time.Hour).
			Return(int64(9), nil)

		removed, err := svc.Clean(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(9), removed)
	})

	t.Run("rejects a zero retention", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, _, _ := newDLQService(t, ctrl)

		_, err := svc.Clean(ctx, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retention")
	})
}

func TestDLQService_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("derives the health verdict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, deadLetters, _ := newDLQService(t, ctrl)

		deadLetters.EXPECT().
			GetStats(ctx).
			Return(&domain.DLQStats{
				Total:          120,
				OldCount:       0,
				RecentCount:    3,
				OldestAgeHours: 12.5,
				CommonErrors:   []domain.DLQErrorCount{{Reason: "mailbox full", Count: 80}},
			}, nil)

		report, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DLQHealthWarning, report.Health)
		assert.Equal(t, int64(120), report.Stats.Total)
	})

	t.Run("old entries are critical", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, deadLetters, _ := newDLQService(t, ctrl)

		deadLetters.EXPECT().
			GetStats(ctx).
			Return(&domain.DLQStats{Total: 2, OldCount: 1}, nil)

		report, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DLQHealthCritical, report.Health)
	})

	t.Run("stats failure surfaces", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, deadLetters, _ := newDLQService(t, ctrl)

		deadLetters.EXPECT().GetStats(ctx).Return(nil, errors.New("connection reset"))

		_, err := svc.Stats(ctx)
		require.Error(t, err)
	})
}

func TestDLQService_QueueStats(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc, _, sendQueue := newDLQService(t, ctrl)

	oldest := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	sendQueue.EXPECT().
		GetStats(ctx).
		Return(&domain.SendQueueStats{Pending: 42, Processing: 7, DeadLetter: 3, OldestPending: &oldest}, nil)

	stats, err := svc.QueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.Pending)
	assert.Equal(t, &oldest, stats.OldestPending)
}

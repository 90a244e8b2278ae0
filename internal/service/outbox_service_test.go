package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/internal/domain/mocks"
	"github.com/sendgate/sendgate/pkg/logger"
)

type outboxServiceFixture struct {
	svc        *OutboxService
	dbMock     sqlmock.Sqlmock
	outboxRepo *mocks.MockOutboxRepository
	queueRepo  *mocks.MockSendQueueRepository
	tenantRepo *mocks.MockTenantRepository
}

func newOutboxService(t *testing.T, ctrl *gomock.Controller) *outboxServiceFixture {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	outboxRepo := mocks.NewMockOutboxRepository(ctrl)
	queueRepo := mocks.NewMockSendQueueRepository(ctrl)
	tenantRepo := mocks.NewMockTenantRepository(ctrl)

	svc := NewOutboxService(db, outboxRepo, queueRepo, tenantRepo, logger.NewTestLogger(t))
	svc.clock = func() time.Time {
		return time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)
	}

	return &outboxServiceFixture{
		svc:        svc,
		dbMock:     dbMock,
		outboxRepo: outboxRepo,
		queueRepo:  queueRepo,
		tenantRepo: tenantRepo,
	}
}

func eligibleTenant(id string, dailyLimit int) *domain.Tenant {
	return &domain.Tenant{
		ID:              id,
		Name:            "Acme",
		IsActive:        true,
		IsApproved:      true,
		DailyEmailLimit: dailyLimit,
	}
}

func validSendRequest() *SendRequest {
	return &SendRequest{
		TenantID: "tenant-1",
		To:       "alice@example.com",
		Subject:  "Hi",
		HTML:     "<p>Hi</p>",
	}
}

func TestOutboxService_CreateAndEnqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("writes entry and job in one transaction", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newOutboxService(t, ctrl)

		f.tenantRepo.EXPECT().
			GetByID(gomock.Any(), "tenant-1").
			Return(eligibleTenant("tenant-1", 1000), nil)
		f.outboxRepo.EXPECT().
			CountCreatedSince(gomock.Any(), "tenant-1", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)).
			Return(int64(12), nil)

		f.dbMock.ExpectBegin()

		var createdEntry *domain.OutboxEntry
		f.outboxRepo.EXPECT().
			CreateTx(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sql.Tx, entry *domain.OutboxEntry) error {
				createdEntry = entry
				return nil
			})

		var enqueued []*domain.SendJob
		f.queueRepo.EXPECT().
			EnqueueTx(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sql.Tx, jobs []*domain.SendJob) error {
				enqueued = jobs
				return nil
			})

		f.dbMock.ExpectCommit()

		entry, err := f.svc.CreateAndEnqueue(ctx, validSendRequest())
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, domain.OutboxStatusPending, entry.Status)

		require.NotNil(t, createdEntry)
		require.Len(t, enqueued, 1)
		job := enqueued[0]
		assert.Equal(t, entry.ID, job.OutboxID)
		assert.Equal(t, entry.ID, job.Payload.HTMLRef)
		assert.Equal(t, "tenant-1", job.TenantID)
		assert.Equal(t, "alice@example.com", job.Payload.To)
		assert.Equal(t, "alice@example.com", job.Payload.Recipient.Email)
		assert.NotEmpty(t, job.Payload.RequestID)

		require.NoError(t, f.dbMock.ExpectationsWereMet())
	})

	t.Run("unlimited tenant skips the daily count", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newOutboxService(t, ctrl)

		f.tenantRepo.EXPECT().
			GetByID(gomock.Any(), "tenant-1").
			Return(eligibleTenant("tenant-1", 0), nil)

		f.dbMock.ExpectBegin()
		f.outboxRepo.EXPECT().CreateTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.queueRepo.EXPECT().EnqueueTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.dbMock.ExpectCommit()

		_, err := f.svc.CreateAndEnqueue(ctx, validSendRequest())
		require.NoError(t, err)
	})

	t.Run("rejects invalid requests before touching the database", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newOutboxService(t, ctrl)

		cases := []struct {
			name string
			req  *SendRequest
		}{
			{"missing tenant", &SendRequest{To: "a@b.com", Subject: "s", HTML: "<p>h</p>"}},
			{"missing recipient", &SendRequest{TenantID: "t", Subject: "s", HTML: "<p>h</p>"}},
			{"malformed recipient", &SendRequest{TenantID: "t", To: "not-an-email", Subject: "s", HTML: "<p>h</p>"}},
			{"missing subject", &SendRequest{TenantID: "t", To: "a@b.com", HTML: "<p>h</p>"}},
			{"missing html", &SendRequest{TenantID: "t", To: "a@b.com", Subject: "s"}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.svc.CreateAndEnqueue(ctx, tc.req)
				require.Error(t, err)
			})
		}
	})

	t.Run("unknown tenant", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newOutboxService(t, ctrl)

		f.tenantRepo.EXPECT().
			GetByID(gomock.Any(), "tenant-1").
			Return(nil, &domain.ErrNotFound{Entity: "tenant", ID: "tenant-1"})

		_, err := f.svc.CreateAndEnqueue(ctx, validSendRequest())
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("suspended tenant is refused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newOutboxService(t, ctrl)

		tenant := eligibleTenant("tenant-1", 1000)
		tenant.IsSuspended = true
		f.tenantRepo.EXPECT().GetByID(gomock.Any(), "tenant-1").Return(tenant, nil)

		_, err := f.svc.CreateAndEnqueue(ctx, validSendRequest())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTenantNotEligible))
	})

	t.Run("unapproved tenant is refused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newOutboxService(t, ctrl)

		tenant := eligibleTenant("tenant-1", 1000)
		tenant.IsApproved = false
		f.tenantRepo.EXPECT().GetByID(gomock.Any(), "tenant-1").Return(tenant, nil)

		_, err := f.svc.CreateAndEnqueue(ctx, validSendRequest())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTenantNotEligible))
	})

	t.Run("daily limit reached", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newOutboxService(t, ctrl)

		f.tenantRepo.EXPECT().
			GetByID(gomock.Any(), "tenant-1").
			Return(eligibleTenant("tenant-1", 100), nil)
		f.outboxRepo.EXPECT().
			CountCreatedSince(gomock.Any(), "tenant-1", gomock.Any()).
			Return(int64(100), nil)

		_, err := f.svc.CreateAndEnqueue(ctx, validSendRequest())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDailyLimitExceeded))
	})

	t.Run("enqueue failure rolls the transaction back", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newOutboxService(t, ctrl)

		f.tenantRepo.EXPECT().
			GetByID(gomock.Any(), "tenant-1").
			Return(eligibleTenant("tenant-1", 1000), nil)
		f.outboxRepo.EXPECT().
			CountCreatedSince(gomock.Any(), "tenant-1", gomock.Any()).
			Return(int64(0), nil)

		f.dbMock.ExpectBegin()
		f.outboxRepo.EXPECT().CreateTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.queueRepo.EXPECT().
			EnqueueTx(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("insert failed"))
		f.dbMock.ExpectRollback()

		_, err := f.svc.CreateAndEnqueue(ctx, validSendRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert failed")
		require.NoError(t, f.dbMock.ExpectationsWereMet())
	})
}

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

func tenantRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "is_active", "is_approved", "is_suspended", "suspension_reason",
		"daily_email_limit", "default_from_address", "default_from_name", "default_domain_id",
		"bounce_rate", "complaint_rate", "created_at", "updated_at", "approved_at", "approved_by",
	})
}

func TestTenantRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns tenant", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		now := time.Now().UTC()
		approvedAt := now.Add(-24 * time.Hour)
		mock.ExpectQuery(`SELECT (.+) FROM tenants WHERE id`).
			WithArgs("tenant-1").
			WillReturnRows(tenantRows().AddRow(
				"tenant-1", "Acme", true, true, false, nil,
				10000, "no-reply@acme.com", "Acme", "dom-1",
				0.01, 0.0001, now, now, approvedAt, "ops@acme.com",
			))

		tenant, err := repo.GetByID(ctx, "tenant-1")
		require.NoError(t, err)
		assert.Equal(t, "tenant-1", tenant.ID)
		assert.Equal(t, "Acme", tenant.Name)
		assert.True(t, tenant.CanSend())
		require.NotNil(t, tenant.DefaultFromAddress)
		assert.Equal(t, "no-reply@acme.com", *tenant.DefaultFromAddress)
		require.NotNil(t, tenant.ApprovedAt)
		assert.True(t, tenant.ApprovedAt.Equal(approvedAt))
	})

	t.Run("returns ErrNotFound when missing", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		mock.ExpectQuery(`SELECT (.+) FROM tenants WHERE id`).
			WithArgs("missing").
			WillReturnRows(tenantRows())

		tenant, err := repo.GetByID(ctx, "missing")
		assert.Nil(t, tenant)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		mock.ExpectQuery(`SELECT (.+) FROM tenants WHERE id`).
			WillReturnError(errors.New("query error"))

		tenant, err := repo.GetByID(ctx, "tenant-1")
		assert.Nil(t, tenant)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get tenant")
	})
}

func TestTenantRepository_ListActive(t *testing.T) {
	ctx := context.Background()

	t.Run("returns active tenants including suspended", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		now := time.Now().UTC()
		mock.ExpectQuery(`SELECT (.+) FROM tenants WHERE is_active = TRUE`).
			WillReturnRows(tenantRows().
				AddRow("tenant-1", "Acme", true, true, false, nil, 10000, nil, nil, nil, 0.0, 0.0, now, now, nil, nil).
				AddRow("tenant-2", "Beta", true, true, true, "bounce rate exceeded", 5000, nil, nil, nil, 0.05, 0.0, now, now, nil, nil))

		tenants, err := repo.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, tenants, 2)
		assert.False(t, tenants[0].IsSuspended)
		assert.True(t, tenants[1].IsSuspended)
		require.NotNil(t, tenants[1].SuspensionReason)
		assert.Equal(t, "bounce rate exceeded", *tenants[1].SuspensionReason)
	})

	t.Run("returns empty list when no tenants", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		mock.ExpectQuery(`SELECT (.+) FROM tenants WHERE is_active = TRUE`).
			WillReturnRows(tenantRows())

		tenants, err := repo.ListActive(ctx)
		require.NoError(t, err)
		assert.Empty(t, tenants)
	})
}

func TestTenantRepository_ListSandboxCandidates(t *testing.T) {
	ctx := context.Background()

	t.Run("passes cutoff and ceilings to the query", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		cutoff := time.Now().UTC().Add(-7 * 24 * time.Hour)
		now := time.Now().UTC()

		mock.ExpectQuery(`SELECT (.+) FROM tenants`).
			WithArgs(cutoff, 0.02, 0.001).
			WillReturnRows(tenantRows().
				AddRow("tenant-3", "Gamma", true, false, false, nil, 100, nil, nil, nil, 0.001, 0.0, now, now, nil, nil))

		tenants, err := repo.ListSandboxCandidates(ctx, cutoff, 0.02, 0.001)
		require.NoError(t, err)
		require.Len(t, tenants, 1)
		assert.False(t, tenants[0].IsApproved)
	})
}

func TestTenantRepository_Suspend(t *testing.T) {
	ctx := context.Background()

	t.Run("suspends tenant", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		mock.ExpectExec(`UPDATE tenants`).
			WithArgs("tenant-1", "bounce rate 5.0% exceeds maximum").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Suspend(ctx, "tenant-1", "bounce rate 5.0% exceeds maximum")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown tenant", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		mock.ExpectExec(`UPDATE tenants`).
			WithArgs("missing", "reason").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Suspend(ctx, "missing", "reason")
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestTenantRepository_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("approves tenant with daily limit", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		mock.ExpectExec(`UPDATE tenants`).
			WithArgs("tenant-1", sqlmock.AnyArg(), domain.SandboxApprover, domain.SandboxDailyLimit).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Approve(ctx, "tenant-1", domain.SandboxApprover, domain.SandboxDailyLimit)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown tenant", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		mock.ExpectExec(`UPDATE tenants`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Approve(ctx, "missing", "approver", 100)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestTenantRepository_UpdateRates(t *testing.T) {
	ctx := context.Background()

	t.Run("updates rolling rates", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		mock.ExpectExec(`UPDATE tenants`).
			WithArgs("tenant-1", 0.015, 0.0002).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateRates(ctx, "tenant-1", 0.015, 0.0002)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error on update failure", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewTenantRepository(db)

		mock.ExpectExec(`UPDATE tenants`).
			WillReturnError(errors.New("update error"))

		err := repo.UpdateRates(ctx, "tenant-1", 0.015, 0.0002)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update tenant rates")
	})
}

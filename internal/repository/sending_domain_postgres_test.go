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

func sendingDomainRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "domain", "status", "warmup_enabled",
		"warmup_start_date", "warmup_config", "created_at", "updated_at",
	})
}

func TestSendingDomainRepository_GetByID(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSendingDomainRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("returns domain with warmup config", func(t *testing.T) {
		started := now.AddDate(0, 0, -3)
		rows := sendingDomainRows().AddRow(
			"dom-001", "tenant-001", "mail.example.com", string(domain.DomainStatusVerified), true,
			started, []byte(`{"start_volume":50,"daily_increase":1.5,"max_daily_volume":100000}`), now, now,
		)

		mock.ExpectQuery("SELECT (.+) FROM sending_domains").
			WithArgs("dom-001").
			WillReturnRows(rows)

		d, err := repo.GetByID(ctx, "dom-001")
		require.NoError(t, err)
		assert.Equal(t, "dom-001", d.ID)
		assert.Equal(t, "mail.example.com", d.Domain)
		assert.Equal(t, domain.DomainStatusVerified, d.Status)
		assert.True(t, d.WarmupEnabled)
		require.NotNil(t, d.WarmupStartDate)
		require.NotNil(t, d.WarmupConfig)
		assert.Equal(t, 50, d.WarmupConfig.StartVolume)
		assert.Equal(t, 1.5, d.WarmupConfig.DailyIncrease)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns domain without warmup config", func(t *testing.T) {
		rows := sendingDomainRows().AddRow(
			"dom-002", "tenant-001", "news.example.com", string(domain.DomainStatusPending), false,
			nil, nil, now, now,
		)

		mock.ExpectQuery("SELECT (.+) FROM sending_domains").
			WithArgs("dom-002").
			WillReturnRows(rows)

		d, err := repo.GetByID(ctx, "dom-002")
		require.NoError(t, err)
		assert.Nil(t, d.WarmupStartDate)
		assert.Nil(t, d.WarmupConfig)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing domain", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM sending_domains").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		d, err := repo.GetByID(ctx, "missing")
		assert.Nil(t, d)
		assert.True(t, domain.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error on malformed warmup config", func(t *testing.T) {
		rows := sendingDomainRows().AddRow(
			"dom-003", "tenant-001", "bad.example.com", string(domain.DomainStatusVerified), true,
			now, []byte(`{invalid`), now, now,
		)

		mock.ExpectQuery("SELECT (.+) FROM sending_domains").
			WithArgs("dom-003").
			WillReturnRows(rows)

		d, err := repo.GetByID(ctx, "dom-003")
		assert.Nil(t, d)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal warmup config")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSendingDomainRepository_GetByName(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSendingDomainRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("returns domain scoped to tenant", func(t *testing.T) {
		rows := sendingDomainRows().AddRow(
			"dom-001", "tenant-001", "mail.example.com", string(domain.DomainStatusVerified), false,
			nil, nil, now, now,
		)

		mock.ExpectQuery("SELECT (.+) FROM sending_domains").
			WithArgs("tenant-001", "mail.example.com").
			WillReturnRows(rows)

		d, err := repo.GetByName(ctx, "tenant-001", "mail.example.com")
		require.NoError(t, err)
		assert.Equal(t, "dom-001", d.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing domain", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM sending_domains").
			WithArgs("tenant-001", "other.example.com").
			WillReturnError(sql.ErrNoRows)

		d, err := repo.GetByName(ctx, "tenant-001", "other.example.com")
		assert.Nil(t, d)
		assert.True(t, domain.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSendingDomainRepository_ListByTenant(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSendingDomainRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("returns all domains of a tenant", func(t *testing.T) {
		rows := sendingDomainRows().
			AddRow("dom-001", "tenant-001", "mail.example.com", string(domain.DomainStatusVerified), false, nil, nil, now, now).
			AddRow("dom-002", "tenant-001", "news.example.com", string(domain.DomainStatusPending), false, nil, nil, now, now)

		mock.ExpectQuery("SELECT (.+) FROM sending_domains").
			WithArgs("tenant-001").
			WillReturnRows(rows)

		domains, err := repo.ListByTenant(ctx, "tenant-001")
		require.NoError(t, err)
		require.Len(t, domains, 2)
		assert.Equal(t, "mail.example.com", domains[0].Domain)
		assert.Equal(t, "news.example.com", domains[1].Domain)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty list when tenant has no domains", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM sending_domains").
			WithArgs("tenant-002").
			WillReturnRows(sendingDomainRows())

		domains, err := repo.ListByTenant(ctx, "tenant-002")
		require.NoError(t, err)
		assert.Empty(t, domains)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when query fails", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM sending_domains").
			WillReturnError(errors.New("database error"))

		domains, err := repo.ListByTenant(ctx, "tenant-001")
		assert.Nil(t, domains)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query sending domains")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSendingDomainRepository_ListWarmingUp(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSendingDomainRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("returns verified domains with warmup enabled", func(t *testing.T) {
		started := now.AddDate(0, 0, -5)
		rows := sendingDomainRows().AddRow(
			"dom-001", "tenant-001", "mail.example.com", string(domain.DomainStatusVerified), true,
			started, []byte(`{"start_volume":100,"daily_increase":2,"max_daily_volume":50000}`), now, now,
		)

		mock.ExpectQuery("SELECT (.+) FROM sending_domains").
			WithArgs(domain.DomainStatusVerified).
			WillReturnRows(rows)

		domains, err := repo.ListWarmingUp(ctx)
		require.NoError(t, err)
		require.Len(t, domains, 1)
		assert.True(t, domains[0].WarmupEnabled)
		require.NotNil(t, domains[0].WarmupConfig)
		assert.Equal(t, 100, domains[0].WarmupConfig.StartVolume)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when query fails", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM sending_domains").
			WillReturnError(errors.New("database error"))

		domains, err := repo.ListWarmingUp(ctx)
		assert.Nil(t, domains)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query warming domains")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

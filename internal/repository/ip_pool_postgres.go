package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sendgate/sendgate/internal/domain"
)

// IPPoolRepository implements domain.IPPoolRepository
type IPPoolRepository struct {
	db *sql.DB
}

// NewIPPoolRepository creates a new IPPoolRepository
func NewIPPoolRepository(db *sql.DB) domain.IPPoolRepository {
	return &IPPoolRepository{
		db: db,
	}
}

const ipPoolColumns = `id, name, type, ip_addresses, is_active, reputation, daily_limit, hourly_limit, warmup_enabled, warmup_config, created_at, updated_at`

// GetByID retrieves a pool by ID
func (r *IPPoolRepository) GetByID(ctx context.Context, id string) (*domain.IPPool, error) {
	query := `SELECT ` + ipPoolColumns + ` FROM ip_pools WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	pool, err := scanIPPool(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "ip pool", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ip pool: %w", err)
	}

	return pool, nil
}

// GetBestActiveByType retrieves the active pool of the given type with the
// highest reputation, ties broken by oldest created_at
func (r *IPPoolRepository) GetBestActiveByType(ctx context.Context, poolType domain.IPPoolType) (*domain.IPPool, error) {
	query := `
		SELECT ` + ipPoolColumns + `
		FROM ip_pools
		WHERE type = $1 AND is_active = TRUE
		ORDER BY reputation DESC, created_at ASC
		LIMIT 1
	`

	row := r.db.QueryRowContext(ctx, query, poolType)

	pool, err := scanIPPool(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "ip pool", ID: string(poolType)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get best ip pool: %w", err)
	}

	return pool, nil
}

// scanIPPool scans a row into an IPPool
func scanIPPool(row interface{ Scan(...interface{}) error }) (*domain.IPPool, error) {
	var pool domain.IPPool
	var ipAddresses, warmupConfig []byte
	var dailyLimit, hourlyLimit sql.NullInt64

	err := row.Scan(
		&pool.ID, &pool.Name, &pool.Type, &ipAddresses, &pool.IsActive, &pool.Reputation,
		&dailyLimit, &hourlyLimit, &pool.WarmupEnabled, &warmupConfig,
		&pool.CreatedAt, &pool.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ipAddresses != nil {
		if err := pool.IPAddresses.Scan(ipAddresses); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ip addresses: %w", err)
		}
	}
	if dailyLimit.Valid {
		limit := int(dailyLimit.Int64)
		pool.DailyLimit = &limit
	}
	if hourlyLimit.Valid {
		limit := int(hourlyLimit.Int64)
		pool.HourlyLimit = &limit
	}
	if warmupConfig != nil {
		var cfg domain.WarmupConfig
		if err := cfg.Scan(warmupConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warmup config: %w", err)
		}
		pool.WarmupConfig = &cfg
	}

	return &pool, nil
}

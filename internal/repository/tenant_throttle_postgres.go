package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
)

// TenantThrottleRepository implements domain.TenantThrottleRepository
type TenantThrottleRepository struct {
	db *sql.DB
}

// NewTenantThrottleRepository creates a new TenantThrottleRepository
func NewTenantThrottleRepository(db *sql.DB) domain.TenantThrottleRepository {
	return &TenantThrottleRepository{
		db: db,
	}
}

// Upsert inserts or updates the throttle for (tenant_id, date). The used
// counter is preserved on update so a warm-up recalculation cannot reset it.
func (r *TenantThrottleRepository) Upsert(ctx context.Context, throttle *domain.TenantThrottle) error {
	now := time.Now().UTC()
	if throttle.CreatedAt.IsZero() {
		throttle.CreatedAt = now
	}
	throttle.UpdatedAt = now

	query := `
		INSERT INTO tenant_throttles (tenant_id, date, max_sends, sends_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, date) DO UPDATE SET
			max_sends = EXCLUDED.max_sends,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		throttle.TenantID, throttle.Date, throttle.MaxSends, throttle.SendsUsed,
		throttle.CreatedAt, throttle.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert tenant throttle: %w", err)
	}

	return nil
}

// Get retrieves the throttle for a tenant and date
func (r *TenantThrottleRepository) Get(ctx context.Context, tenantID string, date time.Time) (*domain.TenantThrottle, error) {
	query := `
		SELECT tenant_id, date, max_sends, sends_used, created_at, updated_at
		FROM tenant_throttles
		WHERE tenant_id = $1 AND date = $2
	`

	var throttle domain.TenantThrottle
	err := r.db.QueryRowContext(ctx, query, tenantID, date).Scan(
		&throttle.TenantID, &throttle.Date, &throttle.MaxSends, &throttle.SendsUsed,
		&throttle.CreatedAt, &throttle.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "tenant throttle", ID: tenantID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant throttle: %w", err)
	}

	return &throttle, nil
}

// IncrementSends bumps sends_used after a successful delivery
func (r *TenantThrottleRepository) IncrementSends(ctx context.Context, tenantID string, date time.Time) error {
	query := `
		UPDATE tenant_throttles
		SET sends_used = sends_used + 1, updated_at = NOW()
		WHERE tenant_id = $1 AND date = $2
	`

	_, err := r.db.ExecContext(ctx, query, tenantID, date)
	if err != nil {
		return fmt.Errorf("failed to increment tenant sends: %w", err)
	}

	return nil
}

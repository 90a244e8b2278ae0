package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sendgate/sendgate/internal/domain"
)

// SendingDomainRepository implements domain.SendingDomainRepository
type SendingDomainRepository struct {
	db *sql.DB
}

// NewSendingDomainRepository creates a new SendingDomainRepository
func NewSendingDomainRepository(db *sql.DB) domain.SendingDomainRepository {
	return &SendingDomainRepository{
		db: db,
	}
}

const sendingDomainColumns = `id, tenant_id, domain, status, warmup_enabled, warmup_start_date, warmup_config, created_at, updated_at`

// GetByID retrieves a sending domain by ID
func (r *SendingDomainRepository) GetByID(ctx context.Context, id string) (*domain.SendingDomain, error) {
	query := `SELECT ` + sendingDomainColumns + ` FROM sending_domains WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	d, err := scanSendingDomain(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "sending domain", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sending domain: %w", err)
	}

	return d, nil
}

// GetByName retrieves a domain by its name within a tenant
func (r *SendingDomainRepository) GetByName(ctx context.Context, tenantID, domainName string) (*domain.SendingDomain, error) {
	query := `SELECT ` + sendingDomainColumns + ` FROM sending_domains WHERE tenant_id = $1 AND domain = $2`

	row := r.db.QueryRowContext(ctx, query, tenantID, domainName)

	d, err := scanSendingDomain(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "sending domain", ID: domainName}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sending domain: %w", err)
	}

	return d, nil
}

// ListByTenant retrieves all domains of a tenant
func (r *SendingDomainRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.SendingDomain, error) {
	query := `SELECT ` + sendingDomainColumns + ` FROM sending_domains WHERE tenant_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sending domains: %w", err)
	}
	defer rows.Close()

	var domains []*domain.SendingDomain
	for rows.Next() {
		d, err := scanSendingDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sending domain: %w", err)
		}
		domains = append(domains, d)
	}

	return domains, rows.Err()
}

// ListWarmingUp retrieves verified domains with warm-up enabled
func (r *SendingDomainRepository) ListWarmingUp(ctx context.Context) ([]*domain.SendingDomain, error) {
	query := `
		SELECT ` + sendingDomainColumns + `
		FROM sending_domains
		WHERE status = $1 AND warmup_enabled = TRUE AND warmup_start_date IS NOT NULL
		ORDER BY warmup_start_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, domain.DomainStatusVerified)
	if err != nil {
		return nil, fmt.Errorf("failed to query warming domains: %w", err)
	}
	defer rows.Close()

	var domains []*domain.SendingDomain
	for rows.Next() {
		d, err := scanSendingDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sending domain: %w", err)
		}
		domains = append(domains, d)
	}

	return domains, rows.Err()
}

// scanSendingDomain scans a row into a SendingDomain
func scanSendingDomain(row interface{ Scan(...interface{}) error }) (*domain.SendingDomain, error) {
	var d domain.SendingDomain
	var warmupStartDate sql.NullTime
	var warmupConfig []byte

	err := row.Scan(
		&d.ID, &d.TenantID, &d.Domain, &d.Status, &d.WarmupEnabled,
		&warmupStartDate, &warmupConfig, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if warmupStartDate.Valid {
		d.WarmupStartDate = &warmupStartDate.Time
	}
	if warmupConfig != nil {
		var cfg domain.WarmupConfig
		if err := cfg.Scan(warmupConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warmup config: %w", err)
		}
		d.WarmupConfig = &cfg
	}

	return &d, nil
}

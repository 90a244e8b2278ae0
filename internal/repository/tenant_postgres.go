package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
)

// TenantRepository implements domain.TenantRepository
type TenantRepository struct {
	db *sql.DB
}

// NewTenantRepository creates a new TenantRepository
func NewTenantRepository(db *sql.DB) domain.TenantRepository {
	return &TenantRepository{
		db: db,
	}
}

const tenantColumns = `id, name, is_active, is_approved, is_suspended, suspension_reason,
	daily_email_limit, default_from_address, default_from_name, default_domain_id,
	bounce_rate, complaint_rate, created_at, updated_at, approved_at, approved_by`

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	tenant, err := scanTenant(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "tenant", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return tenant, nil
}

// ListActive retrieves all active tenants, suspended ones included
func (r *TenantRepository) ListActive(ctx context.Context) ([]*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE is_active = TRUE ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}

	return tenants, rows.Err()
}

// ListSandboxCandidates retrieves unapproved, active, non-suspended tenants
// created at or before the cutoff whose rolling rates stay under the ceilings
func (r *TenantRepository) ListSandboxCandidates(ctx context.Context, createdBefore time.Time, maxBounceRate, maxComplaintRate float64) ([]*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE is_approved = FALSE
		  AND is_active = TRUE
		  AND is_suspended = FALSE
		  AND created_at <= $1
		  AND bounce_rate < $2
		  AND complaint_rate < $3
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, createdBefore, maxBounceRate, maxComplaintRate)
	if err != nil {
		return nil, fmt.Errorf("failed to query sandbox candidates: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}

	return tenants, rows.Err()
}

// Suspend marks a tenant suspended with a reason
func (r *TenantRepository) Suspend(ctx context.Context, id string, reason string) error {
	query := `
		UPDATE tenants
		SET is_suspended = TRUE, suspension_reason = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("failed to suspend tenant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &domain.ErrNotFound{Entity: "tenant", ID: id}
	}

	return nil
}

// Approve marks a tenant approved and sets its daily limit
func (r *TenantRepository) Approve(ctx context.Context, id string, approvedBy string, dailyLimit int) error {
	now := time.Now().UTC()
	query := `
		UPDATE tenants
		SET is_approved = TRUE, approved_at = $2, approved_by = $3, daily_email_limit = $4, updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, now, approvedBy, dailyLimit)
	if err != nil {
		return fmt.Errorf("failed to approve tenant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &domain.ErrNotFound{Entity: "tenant", ID: id}
	}

	return nil
}

// UpdateRates stores the latest rolling bounce and complaint rates
func (r *TenantRepository) UpdateRates(ctx context.Context, id string, bounceRate, complaintRate float64) error {
	query := `
		UPDATE tenants
		SET bounce_rate = $2, complaint_rate = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, bounceRate, complaintRate)
	if err != nil {
		return fmt.Errorf("failed to update tenant rates: %w", err)
	}

	return nil
}

// scanTenant scans a row into a Tenant
func scanTenant(row interface{ Scan(...interface{}) error }) (*domain.Tenant, error) {
	var tenant domain.Tenant
	var suspensionReason, defaultFromAddress, defaultFromName, defaultDomainID, approvedBy sql.NullString
	var approvedAt sql.NullTime

	err := row.Scan(
		&tenant.ID, &tenant.Name, &tenant.IsActive, &tenant.IsApproved, &tenant.IsSuspended,
		&suspensionReason, &tenant.DailyEmailLimit, &defaultFromAddress, &defaultFromName,
		&defaultDomainID, &tenant.BounceRate, &tenant.ComplaintRate,
		&tenant.CreatedAt, &tenant.UpdatedAt, &approvedAt, &approvedBy,
	)
	if err != nil {
		return nil, err
	}

	if suspensionReason.Valid {
		tenant.SuspensionReason = &suspensionReason.String
	}
	if defaultFromAddress.Valid {
		tenant.DefaultFromAddress = &defaultFromAddress.String
	}
	if defaultFromName.Valid {
		tenant.DefaultFromName = &defaultFromName.String
	}
	if defaultDomainID.Valid {
		tenant.DefaultDomainID = &defaultDomainID.String
	}
	if approvedAt.Valid {
		tenant.ApprovedAt = &approvedAt.Time
	}
	if approvedBy.Valid {
		tenant.ApprovedBy = &approvedBy.String
	}

	return &tenant, nil
}

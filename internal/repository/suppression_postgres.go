package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
)

// SuppressionRepository implements domain.SuppressionRepository
type SuppressionRepository struct {
	db *sql.DB
}

// NewSuppressionRepository creates a new SuppressionRepository
func NewSuppressionRepository(db *sql.DB) domain.SuppressionRepository {
	return &SuppressionRepository{
		db: db,
	}
}

// Upsert inserts or refreshes the suppression for (tenant_id, email)
func (r *SuppressionRepository) Upsert(ctx context.Context, suppression *domain.Suppression) error {
	query := `
		INSERT INTO suppressions (tenant_id, email, domain, reason, bounce_type, diagnostic_code, suppressed_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, email) DO UPDATE SET
			domain = EXCLUDED.domain,
			reason = EXCLUDED.reason,
			bounce_type = EXCLUDED.bounce_type,
			diagnostic_code = EXCLUDED.diagnostic_code,
			suppressed_at = EXCLUDED.suppressed_at,
			expires_at = EXCLUDED.expires_at
	`

	_, err := r.db.ExecContext(ctx, query,
		suppression.TenantID, suppression.Email, suppression.Domain, suppression.Reason,
		suppression.BounceType, suppression.DiagnosticCode, suppression.SuppressedAt, suppression.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert suppression: %w", err)
	}

	return nil
}

// Get retrieves a suppression
func (r *SuppressionRepository) Get(ctx context.Context, tenantID, email string) (*domain.Suppression, error) {
	query := `
		SELECT tenant_id, email, domain, reason, bounce_type, diagnostic_code, suppressed_at, expires_at
		FROM suppressions
		WHERE tenant_id = $1 AND email = $2
	`

	var suppression domain.Suppression
	var bounceType, diagnosticCode sql.NullString
	var expiresAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, tenantID, email).Scan(
		&suppression.TenantID, &suppression.Email, &suppression.Domain, &suppression.Reason,
		&bounceType, &diagnosticCode, &suppression.SuppressedAt, &expiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "suppression", ID: email}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suppression: %w", err)
	}

	if bounceType.Valid {
		suppression.BounceType = &bounceType.String
	}
	if diagnosticCode.Valid {
		suppression.DiagnosticCode = &diagnosticCode.String
	}
	if expiresAt.Valid {
		suppression.ExpiresAt = &expiresAt.Time
	}

	return &suppression, nil
}

// IsSuppressed reports whether an unexpired suppression exists for the
// address
func (r *SuppressionRepository) IsSuppressed(ctx context.Context, tenantID, email string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM suppressions
			WHERE tenant_id = $1 AND email = $2
			  AND (expires_at IS NULL OR expires_at > NOW())
		)
	`

	var suppressed bool
	err := r.db.QueryRowContext(ctx, query, tenantID, email).Scan(&suppressed)
	if err != nil {
		return false, fmt.Errorf("failed to check suppression: %w", err)
	}

	return suppressed, nil
}

// Delete removes a suppression
func (r *SuppressionRepository) Delete(ctx context.Context, tenantID, email string) error {
	query := `DELETE FROM suppressions WHERE tenant_id = $1 AND email = $2`

	_, err := r.db.ExecContext(ctx, query, tenantID, email)
	if err != nil {
		return fmt.Errorf("failed to delete suppression: %w", err)
	}

	return nil
}

// DeleteExpired removes suppressions whose expires_at has passed
func (r *SuppressionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM suppressions WHERE expires_at IS NOT NULL AND expires_at <= $1`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired suppressions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}

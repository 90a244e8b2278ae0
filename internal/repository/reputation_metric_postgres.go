package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
)

// ReputationMetricRepository implements domain.ReputationMetricRepository
type ReputationMetricRepository struct {
	db *sql.DB
}

// NewReputationMetricRepository creates a new ReputationMetricRepository
func NewReputationMetricRepository(db *sql.DB) domain.ReputationMetricRepository {
	return &ReputationMetricRepository{
		db: db,
	}
}

// Upsert inserts or replaces the snapshot for (tenant_id, date)
func (r *ReputationMetricRepository) Upsert(ctx context.Context, metric *domain.ReputationMetric) error {
	now := time.Now().UTC()
	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = now
	}
	metric.UpdatedAt = now

	query := `
		INSERT INTO reputation_metrics (
			tenant_id, date, sent, delivered, bounced, bounced_hard, bounced_soft,
			complained, opened, clicked, bounce_rate, complaint_rate, open_rate,
			click_rate, reputation_score, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (tenant_id, date) DO UPDATE SET
			sent = EXCLUDED.sent,
			delivered = EXCLUDED.delivered,
			bounced = EXCLUDED.bounced,
			bounced_hard = EXCLUDED.bounced_hard,
			bounced_soft = EXCLUDED.bounced_soft,
			complained = EXCLUDED.complained,
			opened = EXCLUDED.opened,
			clicked = EXCLUDED.clicked,
			bounce_rate = EXCLUDED.bounce_rate,
			complaint_rate = EXCLUDED.complaint_rate,
			open_rate = EXCLUDED.open_rate,
			click_rate = EXCLUDED.click_rate,
			reputation_score = EXCLUDED.reputation_score,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		metric.TenantID, metric.Date, metric.Sent, metric.Delivered, metric.Bounced,
		metric.BouncedHard, metric.BouncedSoft, metric.Complained, metric.Opened, metric.Clicked,
		metric.BounceRate, metric.ComplaintRate, metric.OpenRate, metric.ClickRate,
		metric.ReputationScore, metric.CreatedAt, metric.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reputation metric: %w", err)
	}

	return nil
}

// Get retrieves the snapshot for a tenant and date
func (r *ReputationMetricRepository) Get(ctx context.Context, tenantID string, date time.Time) (*domain.ReputationMetric, error) {
	query := `
		SELECT tenant_id, date, sent, delivered, bounced, bounced_hard, bounced_soft,
		       complained, opened, clicked, bounce_rate, complaint_rate, open_rate,
		       click_rate, reputation_score, created_at, updated_at
		FROM reputation_metrics
		WHERE tenant_id = $1 AND date = $2
	`

	var metric domain.ReputationMetric
	err := r.db.QueryRowContext(ctx, query, tenantID, date).Scan(
		&metric.TenantID, &metric.Date, &metric.Sent, &metric.Delivered, &metric.Bounced,
		&metric.BouncedHard, &metric.BouncedSoft, &metric.Complained, &metric.Opened, &metric.Clicked,
		&metric.BounceRate, &metric.ComplaintRate, &metric.OpenRate, &metric.ClickRate,
		&metric.ReputationScore, &metric.CreatedAt, &metric.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "reputation metric", ID: tenantID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reputation metric: %w", err)
	}

	return &metric, nil
}

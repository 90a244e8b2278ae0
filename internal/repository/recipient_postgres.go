package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sendgate/sendgate/internal/domain"
)

// RecipientRepository implements domain.RecipientRepository
type RecipientRepository struct {
	db *sql.DB
}

// NewRecipientRepository creates a new RecipientRepository
func NewRecipientRepository(db *sql.DB) domain.RecipientRepository {
	return &RecipientRepository{
		db: db,
	}
}

// GetByID retrieves a recipient including soft-deleted rows
func (r *RecipientRepository) GetByID(ctx context.Context, id string) (*domain.Recipient, error) {
	query := `SELECT id, tenant_id, email, created_at, deleted_at FROM recipients WHERE id = $1`

	var recipient domain.Recipient
	var deletedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&recipient.ID, &recipient.TenantID, &recipient.Email,
		&recipient.CreatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "recipient", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}

	if deletedAt.Valid {
		recipient.DeletedAt = &deletedAt.Time
	}

	return &recipient, nil
}

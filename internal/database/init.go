package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sendgate/sendgate/internal/database/schema"
	"github.com/sendgate/sendgate/internal/domain"
)

// InitializeDatabase applies the schema and seeds the default shared IP pool.
// Table definitions and migrations are idempotent, so startup runs this on
// every boot.
func InitializeDatabase(db *sql.DB, defaultPoolName string) error {
	for _, query := range schema.TableDefinitions {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, query := range schema.GetMigrationStatements() {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	if defaultPoolName == "" {
		return nil
	}
	return seedSharedPool(db, defaultPoolName)
}

// seedSharedPool creates the fallback shared pool unless one already exists.
// Tenants without a dedicated pool assignment send through this pool.
func seedSharedPool(db *sql.DB, name string) error {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM ip_pools WHERE type = $1)", domain.IPPoolTypeShared).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check shared pool existence: %w", err)
	}
	if exists {
		return nil
	}

	now := time.Now().UTC()
	pool := &domain.IPPool{
		ID:          "shared-" + uuid.New().String()[:8],
		Name:        name,
		Type:        domain.IPPoolTypeShared,
		IPAddresses: domain.IPAddressList{},
		IsActive:    true,
		Reputation:  100,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = db.Exec(`
		INSERT INTO ip_pools (id, name, type, ip_addresses, is_active, reputation, warmup_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		pool.ID,
		pool.Name,
		pool.Type,
		pool.IPAddresses,
		pool.IsActive,
		pool.Reputation,
		pool.WarmupEnabled,
		pool.CreatedAt,
		pool.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create default shared pool: %w", err)
	}
	return nil
}

// CleanDatabase drops every gateway table, walking TableNames in reverse so
// dependents go before the tables they reference.
func CleanDatabase(db *sql.DB) error {
	for i := len(schema.TableNames) - 1; i >= 0; i-- {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", schema.TableNames[i])
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", schema.TableNames[i], err)
		}
	}
	return nil
}

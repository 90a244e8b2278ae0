package database

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq" // registers the postgres driver

	"github.com/sendgate/sendgate/config"
)

// PoolSettings returns the connection pool limits. Test runs get a small
// pool so parallel packages don't exhaust the server's connection slots.
func PoolSettings() (maxOpen, maxIdle int, maxLifetime time.Duration) {
	if os.Getenv("ENVIRONMENT") == "test" || os.Getenv("INTEGRATION_TESTS") == "true" {
		return 10, 5, 2 * time.Minute
	}
	return 25, 25, 20 * time.Minute
}

// GatewayDSN builds the DSN for the gateway database.
func GatewayDSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		sslMode(cfg),
	)
}

// ServerDSN builds a DSN for the server's maintenance database, used before
// the gateway database is known to exist.
func ServerDSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/postgres?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		sslMode(cfg),
	)
}

func sslMode(cfg *config.DatabaseConfig) string {
	if cfg.SSLMode == "" {
		return "disable"
	}
	return cfg.SSLMode
}

// EnsureDatabaseExists creates dbName when it is missing, connecting through
// the server's maintenance database.
func EnsureDatabaseExists(dsn string, dbName string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL server: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL server: %w", err)
	}

	return createDatabaseIfMissing(db, dbName)
}

// createDatabaseIfMissing runs the existence check and CREATE DATABASE on an
// open maintenance connection. CREATE DATABASE cannot take a bind parameter,
// so the identifier is quote-escaped inline.
func createDatabaseIfMissing(db *sql.DB, dbName string) error {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	quoted := strings.ReplaceAll(dbName, `"`, `""`)
	if _, err := db.Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, quoted)); err != nil {
		return fmt.Errorf("failed to create gateway database: %w", err)
	}
	return nil
}

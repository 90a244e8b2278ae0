// Package schema defines the database schema for development.
//
// DEVELOPMENT USE ONLY
// This file contains the current database schema and is used for development and testing.
// Before deploying to production, these table definitions should be converted to proper migrations.
package schema

// TableDefinitions contains all the SQL statements to create the database tables
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id VARCHAR(32) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_approved BOOLEAN NOT NULL DEFAULT FALSE,
		is_suspended BOOLEAN NOT NULL DEFAULT FALSE,
		suspension_reason TEXT,
		daily_email_limit INTEGER NOT NULL DEFAULT 0,
		default_from_address VARCHAR(255),
		default_from_name VARCHAR(255),
		default_domain_id VARCHAR(32),
		bounce_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		complaint_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		approved_at TIMESTAMP,
		approved_by VARCHAR(255)
	)`,
	`CREATE TABLE IF NOT EXISTS sending_domains (
		id VARCHAR(32) PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL,
		domain VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		warmup_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		warmup_start_date TIMESTAMP,
		warmup_config JSONB,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (tenant_id, domain)
	)`,
	`CREATE TABLE IF NOT EXISTS recipients (
		id UUID PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL,
		email VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		deleted_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id UUID PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL,
		recipient_id UUID,
		to_email VARCHAR(255) NOT NULL,
		subject VARCHAR(998) NOT NULL,
		html TEXT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		processed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS send_queue (
		id UUID PRIMARY KEY,
		outbox_id UUID NOT NULL,
		tenant_id VARCHAR(32) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		payload JSONB NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 6,
		last_error TEXT,
		next_retry_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS email_logs (
		id UUID PRIMARY KEY,
		outbox_id UUID NOT NULL UNIQUE,
		tenant_id VARCHAR(32) NOT NULL,
		recipient_id UUID,
		to_email VARCHAR(255) NOT NULL,
		subject VARCHAR(998) NOT NULL,
		status VARCHAR(20) NOT NULL,
		provider_message_id VARCHAR(255),
		error_code VARCHAR(50),
		error_reason TEXT,
		attempts INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		bounce_type VARCHAR(50),
		bounce_subtype VARCHAR(50),
		complaint_feedback_type VARCHAR(50),
		sent_at TIMESTAMP,
		failed_at TIMESTAMP,
		delivery_timestamp TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS email_events (
		id UUID PRIMARY KEY,
		email_log_id UUID NOT NULL,
		type VARCHAR(20) NOT NULL,
		metadata JSONB,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS email_tracking (
		email_log_id UUID PRIMARY KEY,
		tracking_id VARCHAR(64) UNIQUE NOT NULL,
		opened_at TIMESTAMP,
		open_count INTEGER NOT NULL DEFAULT 0,
		clicked_at TIMESTAMP,
		click_count INTEGER NOT NULL DEFAULT 0,
		clicked_urls JSONB,
		user_agent VARCHAR(512),
		ip_address VARCHAR(45),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS suppressions (
		tenant_id VARCHAR(32) NOT NULL,
		email VARCHAR(255) NOT NULL,
		domain VARCHAR(255) NOT NULL,
		reason VARCHAR(30) NOT NULL,
		bounce_type VARCHAR(50),
		diagnostic_code TEXT,
		suppressed_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP,
		PRIMARY KEY (tenant_id, email)
	)`,
	`CREATE TABLE IF NOT EXISTS ip_pools (
		id VARCHAR(32) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		type VARCHAR(20) NOT NULL,
		ip_addresses JSONB NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		reputation DOUBLE PRECISION NOT NULL DEFAULT 100,
		daily_limit INTEGER,
		hourly_limit INTEGER,
		warmup_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		warmup_config JSONB,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS webhooks (
		id UUID PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL,
		url VARCHAR(2048) NOT NULL,
		encrypted_secret VARCHAR(512) NOT NULL,
		events JSONB NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS webhook_deliveries (
		id UUID PRIMARY KEY,
		webhook_id UUID NOT NULL,
		event_type VARCHAR(30) NOT NULL,
		payload JSONB NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		response_code INTEGER,
		response_body TEXT,
		attempts INTEGER NOT NULL DEFAULT 0,
		next_retry_at TIMESTAMP,
		delivered_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reputation_metrics (
		tenant_id VARCHAR(32) NOT NULL,
		date DATE NOT NULL,
		sent BIGINT NOT NULL DEFAULT 0,
		delivered BIGINT NOT NULL DEFAULT 0,
		bounced BIGINT NOT NULL DEFAULT 0,
		bounced_hard BIGINT NOT NULL DEFAULT 0,
		bounced_soft BIGINT NOT NULL DEFAULT 0,
		complained BIGINT NOT NULL DEFAULT 0,
		opened BIGINT NOT NULL DEFAULT 0,
		clicked BIGINT NOT NULL DEFAULT 0,
		bounce_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		complaint_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		open_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		click_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		reputation_score DOUBLE PRECISION NOT NULL DEFAULT 100,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (tenant_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS dead_letters (
		id UUID PRIMARY KEY,
		job_id UUID NOT NULL,
		tenant_id VARCHAR(32) NOT NULL,
		outbox_id UUID NOT NULL,
		data JSONB NOT NULL,
		failed_reason TEXT NOT NULL,
		attempts_made INTEGER NOT NULL DEFAULT 0,
		enqueued_at TIMESTAMP NOT NULL,
		failed_at TIMESTAMP NOT NULL,
		stacktrace TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS feedback_queue (
		id UUID PRIMARY KEY,
		provider VARCHAR(20) NOT NULL,
		event JSONB NOT NULL,
		raw_payload TEXT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		received_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tenant_throttles (
		tenant_id VARCHAR(32) NOT NULL,
		date DATE NOT NULL,
		max_sends BIGINT NOT NULL DEFAULT 0,
		sends_used BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (tenant_id, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recipients_tenant_email ON recipients (tenant_id, email)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_tenant_created_at ON outbox (tenant_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox (status)`,
	`CREATE INDEX IF NOT EXISTS idx_send_queue_status_next_retry_at ON send_queue (status, next_retry_at)`,
	`CREATE INDEX IF NOT EXISTS idx_send_queue_created_at ON send_queue (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_email_logs_provider_message_id ON email_logs (provider_message_id)`,
	`CREATE INDEX IF NOT EXISTS idx_email_logs_tenant_created_at ON email_logs (tenant_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_email_logs_status ON email_logs (status)`,
	`CREATE INDEX IF NOT EXISTS idx_email_events_email_log_id ON email_events (email_log_id)`,
	`CREATE INDEX IF NOT EXISTS idx_email_events_type_created_at ON email_events (type, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_suppressions_domain ON suppressions (domain)`,
	`CREATE INDEX IF NOT EXISTS idx_suppressions_expires_at ON suppressions (expires_at) WHERE expires_at IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_webhooks_tenant_id ON webhooks (tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_webhook_deliveries_status_next_retry_at ON webhook_deliveries (status, next_retry_at)`,
	`CREATE INDEX IF NOT EXISTS idx_dead_letters_failed_at ON dead_letters (failed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_queue_status_received_at ON feedback_queue (status, received_at)`,
}

// MigrationStatements contains SQL statements to be run after table creation
// These are for schema changes that need to be applied to existing databases
var MigrationStatements = []string{
	`DO $$
	BEGIN
		-- Add unique constraint on sending_domains (tenant_id, domain) if it doesn't exist
		IF NOT EXISTS (
			SELECT 1 FROM pg_constraint
			WHERE conname = 'sending_domains_tenant_id_domain_key'
			AND conrelid = 'sending_domains'::regclass
		) THEN
			ALTER TABLE sending_domains ADD CONSTRAINT sending_domains_tenant_id_domain_key UNIQUE (tenant_id, domain);
		END IF;
	EXCEPTION
		WHEN duplicate_object THEN
			-- Constraint already exists, ignore
			NULL;
	END $$`,
	`DO $$
	BEGIN
		-- Add unique constraint on email_logs (outbox_id) if it doesn't exist
		IF NOT EXISTS (
			SELECT 1 FROM pg_constraint
			WHERE conname = 'email_logs_outbox_id_key'
			AND conrelid = 'email_logs'::regclass
		) THEN
			ALTER TABLE email_logs ADD CONSTRAINT email_logs_outbox_id_key UNIQUE (outbox_id);
		END IF;
	EXCEPTION
		WHEN duplicate_object THEN
			NULL;
	END $$`,
}

// GetMigrationStatements returns migration statements for database schema setup
func GetMigrationStatements() []string {
	return MigrationStatements
}

// TableNames returns a list of all table names in creation order
var TableNames = []string{
	"tenants",
	"sending_domains",
	"recipients",
	"outbox",
	"send_queue",
	"email_logs",
	"email_events",
	"email_tracking",
	"suppressions",
	"ip_pools",
	"webhooks",
	"webhook_deliveries",
	"reputation_metrics",
	"dead_letters",
	"feedback_queue",
	"tenant_throttles",
}

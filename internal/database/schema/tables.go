package schema

// TableDefinitions contains all the SQL statements to create the database tables.
// Per-letter-type dynamic record tables are created separately when a
// letter type is registered.
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS letter_types (
		id UUID PRIMARY KEY,
		type_key VARCHAR(100) UNIQUE NOT NULL,
		display_name VARCHAR(255) NOT NULL,
		data_source VARCHAR(20) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dynamic_fields (
		id UUID PRIMARY KEY,
		letter_type_id UUID NOT NULL,
		field_key VARCHAR(100) NOT NULL,
		display_name VARCHAR(255) NOT NULL,
		field_type VARCHAR(20) NOT NULL,
		required BOOLEAN NOT NULL DEFAULT FALSE,
		default_value TEXT,
		order_index INTEGER NOT NULL DEFAULT 0,
		validation_rules JSONB,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (letter_type_id, field_key)
	)`,
	`CREATE TABLE IF NOT EXISTS document_templates (
		id UUID NOT NULL,
		version INTEGER NOT NULL,
		letter_type_id UUID NOT NULL,
		name VARCHAR(255) NOT NULL,
		content JSONB NOT NULL,
		placeholders JSONB,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (id, version)
	)`,
	`CREATE TABLE IF NOT EXISTS document_files (
		file_ref UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		content JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS generated_documents (
		id UUID PRIMARY KEY,
		letter_type_id UUID NOT NULL,
		record_external_id VARCHAR(255) NOT NULL,
		template_id UUID NOT NULL,
		template_version INTEGER NOT NULL,
		file_ref VARCHAR(255),
		generated_by VARCHAR(255) NOT NULL,
		generated_at TIMESTAMP NOT NULL,
		success BOOLEAN NOT NULL,
		error_message TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS email_jobs (
		id UUID PRIMARY KEY,
		generated_document_id UUID,
		letter_type_id UUID,
		owner_user_id VARCHAR(255) NOT NULL,
		recipient_email VARCHAR(255) NOT NULL,
		recipient_name VARCHAR(255),
		subject VARCHAR(998) NOT NULL,
		body TEXT,
		status VARCHAR(20) NOT NULL,
		provider_message_id VARCHAR(255),
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		sending_at TIMESTAMP,
		sent_at TIMESTAMP,
		delivered_at TIMESTAMP,
		opened_at TIMESTAMP,
		clicked_at TIMESTAMP,
		bounced_at TIMESTAMP,
		dropped_at TIMESTAMP,
		failed_at TIMESTAMP,
		unsubscribed_at TIMESTAMP,
		spam_reported_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_email_jobs_provider_message_id ON email_jobs (provider_message_id)`,
	`CREATE INDEX IF NOT EXISTS idx_email_jobs_status_created_at ON email_jobs (status, created_at)`,
	`CREATE TABLE IF NOT EXISTS webhook_events (
		provider_event_id VARCHAR(255) PRIMARY KEY,
		provider_message_id VARCHAR(255) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		email VARCHAR(255),
		occurred_at TIMESTAMP NOT NULL,
		mapped_status VARCHAR(20) NOT NULL,
		email_job_id UUID,
		raw_payload JSONB,
		received_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_webhook_events_email_job_id ON webhook_events (email_job_id)`,
}

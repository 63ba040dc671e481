// Package store owns the database schema for the call-center platform.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'agent',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS companies (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		phone VARCHAR(32) NOT NULL,
		product VARCHAR(255) NOT NULL DEFAULT '',
		activity VARCHAR(255) NOT NULL DEFAULT '',
		location VARCHAR(255) NOT NULL DEFAULT '',
		legal_form VARCHAR(255) NOT NULL DEFAULT '',
		niu VARCHAR(128) NOT NULL DEFAULT '',
		validity_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_status ON companies (status)`,
	`CREATE TABLE IF NOT EXISTS call_records (
		id UUID PRIMARY KEY,
		company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		status_numero VARCHAR(32) NOT NULL,
		call_status VARCHAR(32) NOT NULL DEFAULT '',
		presentation_level VARCHAR(16) NOT NULL DEFAULT '',
		questions_libres_level VARCHAR(16) NOT NULL DEFAULT '',
		questions_orientees_level VARCHAR(16) NOT NULL DEFAULT '',
		questionnaire_data JSONB,
		status_marked_at TIMESTAMPTZ,
		recording_started_at TIMESTAMPTZ,
		recording_stopped_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_call_records_company ON call_records (company_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_call_records_user ON call_records (user_id)`,
	`CREATE TABLE IF NOT EXISTS recordings (
		id UUID PRIMARY KEY,
		call_id UUID NOT NULL REFERENCES call_records(id) ON DELETE CASCADE,
		path VARCHAR(255) NOT NULL,
		mime_type VARCHAR(64) NOT NULL DEFAULT '',
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recordings_call ON recordings (call_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY,
		user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		session_key VARCHAR(64) NOT NULL DEFAULT '',
		ip_address VARCHAR(64) NOT NULL DEFAULT '',
		method VARCHAR(8) NOT NULL,
		path TEXT NOT NULL,
		status_code INTEGER NOT NULL DEFAULT 0,
		user_agent VARCHAR(1024) NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL DEFAULT 0,
		payload_summary VARCHAR(4000) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs (created_at)`,
	`CREATE TABLE IF NOT EXISTS session_snapshots (
		session_key VARCHAR(64) PRIMARY KEY,
		user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		ip_address VARCHAR(64) NOT NULL DEFAULT '',
		user_agent VARCHAR(1024) NOT NULL DEFAULT '',
		login_at TIMESTAMPTZ,
		last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_session_snapshots_activity ON session_snapshots (last_activity)`,
}

// Migrate applies the schema. Statements are idempotent so repeated startups
// are safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migration failed: %w", err)
		}
	}
	return nil
}

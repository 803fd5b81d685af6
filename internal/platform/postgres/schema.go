package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the DDL for the tables this service owns. Applied by the
// integration test harness and, when AUTO_MIGRATE is set, at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS companies (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS subcontractors (
	id         UUID PRIMARY KEY,
	company_id UUID NOT NULL REFERENCES companies(id),
	name       TEXT NOT NULL,
	email      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS compliance_documents (
	id                UUID PRIMARY KEY,
	subcontractor_id  UUID NOT NULL,
	type              TEXT NOT NULL,
	file_locator      TEXT NOT NULL,
	status            TEXT NOT NULL,
	expires_at        TIMESTAMPTZ,
	verified_by       TEXT,
	verification_date TIMESTAMPTZ,
	metadata          JSONB NOT NULL DEFAULT '{}',
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_subcontractor
	ON compliance_documents (subcontractor_id);
CREATE INDEX IF NOT EXISTS idx_documents_expiring
	ON compliance_documents (expires_at)
	WHERE expires_at IS NOT NULL AND status <> 'expired';

CREATE TABLE IF NOT EXISTS notifications (
	id              UUID PRIMARY KEY,
	type            TEXT NOT NULL,
	title           TEXT NOT NULL,
	message         TEXT NOT NULL,
	status          TEXT NOT NULL,
	recipient_email TEXT NOT NULL,
	document_id     UUID NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient
	ON notifications (recipient_email, created_at DESC);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

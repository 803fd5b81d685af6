package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"buildsync/internal/document"
	"buildsync/pkg/platform/sentinel"
)

// Store persists compliance documents in PostgreSQL. Metadata, including the
// append-only verification history, lives in a JSONB column so unknown keys
// written by newer code survive round trips.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const documentColumns = `id, subcontractor_id, type, file_locator, status,
	expires_at, verified_by, verification_date, metadata, created_at, updated_at`

func (s *Store) Create(ctx context.Context, doc *document.Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal document metadata: %w", err)
	}

	query := `
		INSERT INTO compliance_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		doc.ID,
		doc.SubcontractorID,
		string(doc.Type),
		doc.FileLocator,
		string(doc.Status),
		doc.ExpiresAt,
		nullString(doc.VerifiedBy),
		doc.VerificationDate,
		metadata,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert compliance document: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM compliance_documents WHERE id = $1`
	return scanDocument(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) FindBySubcontractor(ctx context.Context, subcontractorID uuid.UUID) ([]*document.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM compliance_documents
		WHERE subcontractor_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, subcontractorID)
	if err != nil {
		return nil, fmt.Errorf("query documents by subcontractor: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (s *Store) FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]*document.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM compliance_documents
		WHERE expires_at IS NOT NULL
		  AND expires_at <= $1
		  AND status <> $2
		ORDER BY expires_at
	`
	rows, err := s.db.QueryContext(ctx, query, cutoff, string(document.StatusExpired))
	if err != nil {
		return nil, fmt.Errorf("query expiring documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// Update re-reads the row under a row lock, applies mutate, and writes the
// result in the same transaction. Preconditions checked inside mutate hold
// at commit time, which is what the verify-vs-expire race requires.
func (s *Store) Update(ctx context.Context, id uuid.UUID, mutate func(*document.Document) error) (*document.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin document update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + documentColumns + ` FROM compliance_documents WHERE id = $1 FOR UPDATE`
	doc, err := scanDocument(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := mutate(doc); err != nil {
		return nil, err
	}
	doc.UpdatedAt = time.Now()

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal document metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE compliance_documents
		SET type = $2, file_locator = $3, status = $4, expires_at = $5,
		    verified_by = $6, verification_date = $7, metadata = $8, updated_at = $9
		WHERE id = $1
	`,
		doc.ID,
		string(doc.Type),
		doc.FileLocator,
		string(doc.Status),
		doc.ExpiresAt,
		nullString(doc.VerifiedBy),
		doc.VerificationDate,
		metadata,
		doc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update compliance document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit document update: %w", err)
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM compliance_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete compliance document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete compliance document: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*document.Document, error) {
	var (
		doc          document.Document
		docType      string
		status       string
		verifiedBy   sql.NullString
		metadataJSON []byte
	)
	err := row.Scan(
		&doc.ID,
		&doc.SubcontractorID,
		&docType,
		&doc.FileLocator,
		&status,
		&doc.ExpiresAt,
		&verifiedBy,
		&doc.VerificationDate,
		&metadataJSON,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan compliance document: %w", err)
	}

	doc.Type = document.Type(docType)
	doc.Status = document.Status(status)
	doc.VerifiedBy = verifiedBy.String
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal document metadata: %w", err)
		}
	}
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*document.Document, error) {
	var docs []*document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compliance documents: %w", err)
	}
	return docs, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

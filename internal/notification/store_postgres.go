package notification

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists notification records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO notifications (id, type, title, message, status, recipient_email, document_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Type,
		record.Title,
		record.Message,
		record.Status,
		record.RecipientEmail,
		record.DocumentID,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, email string) ([]*Record, error) {
	query := `
		SELECT id, type, title, message, status, recipient_email, document_id, created_at
		FROM notifications
		WHERE recipient_email = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var record Record
		err := rows.Scan(
			&record.ID,
			&record.Type,
			&record.Title,
			&record.Message,
			&record.Status,
			&record.RecipientEmail,
			&record.DocumentID,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return records, nil
}

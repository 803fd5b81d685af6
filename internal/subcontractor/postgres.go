package subcontractor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"buildsync/pkg/platform/sentinel"
)

// PostgresDirectory resolves recipients from the subcontractors table joined
// to the owning general-contractor company.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) GetRecipientInfo(ctx context.Context, id uuid.UUID) (RecipientInfo, error) {
	query := `
		SELECT s.name, COALESCE(s.email, ''), c.name
		FROM subcontractors s
		JOIN companies c ON c.id = s.company_id
		WHERE s.id = $1
	`
	var info RecipientInfo
	err := d.db.QueryRowContext(ctx, query, id).Scan(&info.Name, &info.Email, &info.CompanyName)
	if errors.Is(err, sql.ErrNoRows) {
		return RecipientInfo{}, sentinel.ErrNotFound
	}
	if err != nil {
		return RecipientInfo{}, fmt.Errorf("query subcontractor recipient: %w", err)
	}
	return info, nil
}

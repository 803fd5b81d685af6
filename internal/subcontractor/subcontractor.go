package subcontractor

import (
	"context"

	"github.com/google/uuid"
)

// RecipientInfo is what the expiration scanner needs to address a
// notification. Email may be empty; subcontractors without one are skipped.
type RecipientInfo struct {
	Name        string
	Email       string
	CompanyName string
}

// Directory resolves subcontractor ids to notification recipients. The full
// subcontractor entity lives outside this service's core; only the lookup is
// consumed here.
type Directory interface {
	GetRecipientInfo(ctx context.Context, id uuid.UUID) (RecipientInfo, error)
}

package notification

import (
	"time"

	"github.com/google/uuid"
)

// Record is a persisted in-app notification, created alongside each
// expiration email so recipients see the alert in the portal too.
type Record struct {
	ID             uuid.UUID `json:"id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Status         string    `json:"status"`
	RecipientEmail string    `json:"recipientEmail"`
	DocumentID     uuid.UUID `json:"documentId"`
	CreatedAt      time.Time `json:"createdAt"`
}

const (
	TypeDocumentExpiring = "document_expiring"

	StatusUnread = "unread"
	StatusRead   = "read"
)

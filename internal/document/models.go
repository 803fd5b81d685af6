package document

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type classifies a compliance document.
type Type string

const (
	TypeInsurance     Type = "insurance"
	TypeLicense       Type = "license"
	TypeCertification Type = "certification"
	TypeContract      Type = "contract"
	TypeOther         Type = "other"
)

// ValidTypes lists the accepted document types, in the order surfaced to
// callers on validation failure.
func ValidTypes() []Type {
	return []Type{TypeInsurance, TypeLicense, TypeCertification, TypeContract, TypeOther}
}

func (t Type) IsValid() bool {
	switch t {
	case TypeInsurance, TypeLicense, TypeCertification, TypeContract, TypeOther:
		return true
	}
	return false
}

// Status is the verification state of a document.
type Status string

const (
	StatusPending         Status = "pending"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusPendingRevision Status = "pending_revision"
	StatusExpired         Status = "expired"
)

// IsVerifiable reports whether the status is one a reviewer may set through
// the verify operation. The expired status is reserved for the expiration
// scanner.
func (s Status) IsVerifiable() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusPendingRevision:
		return true
	}
	return false
}

// VerifiableStatuses lists the statuses accepted by the verify operation.
func VerifiableStatuses() []Status {
	return []Status{StatusApproved, StatusRejected, StatusPendingRevision}
}

// VerificationEntry is one record in a document's append-only audit trail.
// Entries are never mutated or removed once written.
type VerificationEntry struct {
	Status     Status    `json:"status"`
	VerifiedBy string    `json:"verifiedBy"`
	Date       time.Time `json:"date"`
	Notes      string    `json:"notes,omitempty"`
}

// Metadata holds file facts and the verification audit trail. Unknown keys
// found when decoding are retained in Extra and written back verbatim, so
// records produced by newer writers survive a round trip.
type Metadata struct {
	OriginalName        string              `json:"originalName"`
	Size                int64               `json:"size"`
	MimeType            string              `json:"mimeType"`
	StorageKey          string              `json:"storageKey,omitempty"`
	StorageBucket       string              `json:"storageBucket,omitempty"`
	LastVerifiedAt      *time.Time          `json:"lastVerifiedAt,omitempty"`
	VerificationHistory []VerificationEntry `json:"verificationHistory,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// knownMetadataKeys are the fields Metadata decodes itself; everything else
// passes through Extra untouched.
var knownMetadataKeys = map[string]struct{}{
	"originalName":        {},
	"size":                {},
	"mimeType":            {},
	"storageKey":          {},
	"storageBucket":       {},
	"lastVerifiedAt":      {},
	"verificationHistory": {},
}

type metadataAlias Metadata

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var known metadataAlias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range knownMetadataKeys {
		delete(raw, key)
	}
	if len(raw) == 0 {
		raw = nil
	}

	*m = Metadata(known)
	m.Extra = raw
	return nil
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	knownJSON, err := json.Marshal(metadataAlias(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return knownJSON, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(knownJSON, &merged); err != nil {
		return nil, err
	}
	for key, value := range m.Extra {
		if _, known := knownMetadataKeys[key]; known {
			continue
		}
		merged[key] = value
	}
	return json.Marshal(merged)
}

// Document is a subcontractor-supplied compliance document subject to
// verification and expiration tracking.
type Document struct {
	ID               uuid.UUID  `json:"id"`
	SubcontractorID  uuid.UUID  `json:"subcontractorId"`
	Type             Type       `json:"type"`
	FileLocator      string     `json:"fileUrl"`
	Status           Status     `json:"status"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	VerifiedBy       string     `json:"verifiedBy,omitempty"`
	VerificationDate *time.Time `json:"verificationDate,omitempty"`
	Metadata         Metadata   `json:"metadata"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// IsExpiredAt reports whether the document's expiration timestamp has passed
// as of now. Documents without an expiration never expire.
func (d *Document) IsExpiredAt(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(now)
}

// Clone returns a deep copy so store callers cannot mutate shared state.
func (d *Document) Clone() *Document {
	clone := *d
	if d.ExpiresAt != nil {
		t := *d.ExpiresAt
		clone.ExpiresAt = &t
	}
	if d.VerificationDate != nil {
		t := *d.VerificationDate
		clone.VerificationDate = &t
	}
	if d.Metadata.LastVerifiedAt != nil {
		t := *d.Metadata.LastVerifiedAt
		clone.Metadata.LastVerifiedAt = &t
	}
	if d.Metadata.VerificationHistory != nil {
		clone.Metadata.VerificationHistory = append([]VerificationEntry(nil), d.Metadata.VerificationHistory...)
	}
	if d.Metadata.Extra != nil {
		extra := make(map[string]json.RawMessage, len(d.Metadata.Extra))
		for k, v := range d.Metadata.Extra {
			extra[k] = v
		}
		clone.Metadata.Extra = extra
	}
	return &clone
}

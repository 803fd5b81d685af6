package document

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataUnknownFieldPassthrough(t *testing.T) {
	raw := []byte(`{
		"originalName": "cert.pdf",
		"size": 2048,
		"mimeType": "application/pdf",
		"storageKey": "documents/123-cert.pdf",
		"customField": {"nested": true},
		"reviewerTag": "priority"
	}`)

	var meta Metadata
	require.NoError(t, json.Unmarshal(raw, &meta))

	assert.Equal(t, "cert.pdf", meta.OriginalName)
	assert.Equal(t, int64(2048), meta.Size)
	assert.Contains(t, meta.Extra, "customField")
	assert.Contains(t, meta.Extra, "reviewerTag")

	out, err := json.Marshal(meta)
	require.NoError(t, err)

	var roundTrip map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &roundTrip))
	assert.JSONEq(t, `{"nested": true}`, string(roundTrip["customField"]))
	assert.JSONEq(t, `"priority"`, string(roundTrip["reviewerTag"]))
	assert.JSONEq(t, `"cert.pdf"`, string(roundTrip["originalName"]))
}

func TestMetadataHistoryRoundTrip(t *testing.T) {
	when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	meta := Metadata{
		OriginalName: "license.png",
		Size:         100,
		MimeType:     "image/png",
		VerificationHistory: []VerificationEntry{
			{Status: StatusApproved, VerifiedBy: "inspector", Date: when, Notes: "ok"},
		},
	}

	out, err := json.Marshal(meta)
	require.NoError(t, err)

	var decoded Metadata
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded.VerificationHistory, 1)
	assert.Equal(t, StatusApproved, decoded.VerificationHistory[0].Status)
	assert.Equal(t, "inspector", decoded.VerificationHistory[0].VerifiedBy)
	assert.True(t, when.Equal(decoded.VerificationHistory[0].Date))
}

func TestDocumentIsExpiredAt(t *testing.T) {
	now := time.Now()

	noExpiry := Document{}
	assert.False(t, noExpiry.IsExpiredAt(now))

	past := now.Add(-time.Hour)
	expired := Document{ExpiresAt: &past}
	assert.True(t, expired.IsExpiredAt(now))

	future := now.Add(time.Hour)
	live := Document{ExpiresAt: &future}
	assert.False(t, live.IsExpiredAt(now))
}

func TestDocumentCloneIsIndependent(t *testing.T) {
	expires := time.Now().Add(24 * time.Hour)
	doc := &Document{
		ID:        uuid.New(),
		Type:      TypeInsurance,
		Status:    StatusPending,
		ExpiresAt: &expires,
		Metadata: Metadata{
			VerificationHistory: []VerificationEntry{{Status: StatusApproved, VerifiedBy: "a"}},
			Extra:               map[string]json.RawMessage{"k": json.RawMessage(`"v"`)},
		},
	}

	clone := doc.Clone()
	clone.Status = StatusApproved
	clone.Metadata.VerificationHistory = append(clone.Metadata.VerificationHistory, VerificationEntry{Status: StatusRejected})
	clone.Metadata.Extra["k2"] = json.RawMessage(`1`)
	*clone.ExpiresAt = clone.ExpiresAt.Add(time.Hour)

	assert.Equal(t, StatusPending, doc.Status)
	assert.Len(t, doc.Metadata.VerificationHistory, 1)
	assert.NotContains(t, doc.Metadata.Extra, "k2")
	assert.True(t, expires.Equal(*doc.ExpiresAt))
}

func TestStatusIsVerifiable(t *testing.T) {
	assert.True(t, StatusApproved.IsVerifiable())
	assert.True(t, StatusRejected.IsVerifiable())
	assert.True(t, StatusPendingRevision.IsVerifiable())
	assert.False(t, StatusPending.IsVerifiable())
	assert.False(t, StatusExpired.IsVerifiable())
}

func TestTypeIsValid(t *testing.T) {
	for _, valid := range ValidTypes() {
		assert.True(t, valid.IsValid(), valid)
	}
	assert.False(t, Type("passport").IsValid())
	assert.False(t, Type("").IsValid())
}

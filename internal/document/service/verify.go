package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"buildsync/internal/document"
	dErrors "buildsync/pkg/domain-errors"
	"buildsync/pkg/platform/sentinel"
)

// VerifyRequest carries one verification action against a document.
type VerifyRequest struct {
	Status     document.Status
	VerifiedBy string
	Notes      string
}

// Verify transitions a document to approved, rejected, or pending_revision
// and appends one entry to the verification history. The expired transition
// is not reachable here; only the expiration scanner performs it.
//
// The expiration precondition is re-checked inside the store's conditional
// update, against the freshest committed record, so a verify racing a scan
// cannot approve a document that just expired.
func (s *Service) Verify(ctx context.Context, subcontractorID, documentID uuid.UUID, req VerifyRequest) (*document.Document, error) {
	if !req.Status.IsVerifiable() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid verification status: %q", req.Status).
			WithDetails(map[string]any{"validStatuses": document.VerifiableStatuses()})
	}
	if req.VerifiedBy == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "verifiedBy is required")
	}

	now := s.clock()

	updated, err := s.docs.Update(ctx, documentID, func(doc *document.Document) error {
		if doc.SubcontractorID != subcontractorID {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		if doc.IsExpiredAt(now) {
			// Checked against ExpiresAt, not the stored status: a scan may
			// not have run yet.
			return dErrors.New(dErrors.CodeConflict, "cannot verify expired document").
				WithDetails(map[string]any{"expiresAt": doc.ExpiresAt})
		}

		doc.Status = req.Status
		doc.VerifiedBy = req.VerifiedBy
		verifiedAt := now
		doc.VerificationDate = &verifiedAt
		doc.Metadata.LastVerifiedAt = &verifiedAt
		doc.Metadata.VerificationHistory = append(doc.Metadata.VerificationHistory, document.VerificationEntry{
			Status:     req.Status,
			VerifiedBy: req.VerifiedBy,
			Date:       now,
			Notes:      req.Notes,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to verify document")
	}

	if s.metrics != nil {
		s.metrics.DocumentsVerified.Inc()
	}
	s.logger.Info("document verified",
		"document_id", documentID,
		"status", req.Status,
		"verified_by", req.VerifiedBy,
	)
	return updated, nil
}

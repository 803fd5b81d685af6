package service

import (
	"time"

	"github.com/google/uuid"

	"buildsync/internal/document"
	dErrors "buildsync/pkg/domain-errors"
)

func (s *ServiceSuite) uploadWithExpiry(expiresAt *time.Time) *document.Document {
	req := s.validUpload()
	req.ExpiresAt = expiresAt
	doc, err := s.service.Upload(s.ctx, req)
	s.Require().NoError(err)
	return doc
}

func (s *ServiceSuite) TestVerifyValidation() {
	future := s.now.Add(90 * 24 * time.Hour)
	doc := s.uploadWithExpiry(&future)

	s.Run("status outside the reviewer set", func() {
		_, err := s.service.Verify(s.ctx, doc.SubcontractorID, doc.ID, VerifyRequest{
			Status:     document.StatusExpired,
			VerifiedBy: "inspector",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		var de *dErrors.Error
		s.Require().ErrorAs(err, &de)
		s.Contains(de.Details, "validStatuses")
	})

	s.Run("missing verifiedBy", func() {
		_, err := s.service.Verify(s.ctx, doc.SubcontractorID, doc.ID, VerifyRequest{
			Status: document.StatusApproved,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown document", func() {
		_, err := s.service.Verify(s.ctx, doc.SubcontractorID, uuid.New(), VerifyRequest{
			Status:     document.StatusApproved,
			VerifiedBy: "inspector",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("wrong subcontractor treated as absent", func() {
		_, err := s.service.Verify(s.ctx, uuid.New(), doc.ID, VerifyRequest{
			Status:     document.StatusApproved,
			VerifiedBy: "inspector",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestVerifySuccessAppendsHistory() {
	future := s.now.Add(90 * 24 * time.Hour)
	doc := s.uploadWithExpiry(&future)

	verified, err := s.service.Verify(s.ctx, doc.SubcontractorID, doc.ID, VerifyRequest{
		Status:     document.StatusApproved,
		VerifiedBy: "inspector@gc.example",
		Notes:      "coverage confirmed",
	})
	s.Require().NoError(err)

	s.Equal(document.StatusApproved, verified.Status)
	s.Equal("inspector@gc.example", verified.VerifiedBy)
	s.Require().NotNil(verified.VerificationDate)
	s.True(s.now.Equal(*verified.VerificationDate))
	s.Require().NotNil(verified.Metadata.LastVerifiedAt)

	s.Require().Len(verified.Metadata.VerificationHistory, 1)
	entry := verified.Metadata.VerificationHistory[0]
	s.Equal(document.StatusApproved, entry.Status)
	s.Equal("inspector@gc.example", entry.VerifiedBy)
	s.Equal("coverage confirmed", entry.Notes)
	s.True(s.now.Equal(entry.Date))

	s.Run("each verification grows history by exactly one", func() {
		again, err := s.service.Verify(s.ctx, doc.SubcontractorID, doc.ID, VerifyRequest{
			Status:     document.StatusPendingRevision,
			VerifiedBy: "auditor",
			Notes:      "needs updated policy number",
		})
		s.Require().NoError(err)
		s.Require().Len(again.Metadata.VerificationHistory, 2)
		tail := again.Metadata.VerificationHistory[1]
		s.Equal(document.StatusPendingRevision, tail.Status)
		s.Equal("auditor", tail.VerifiedBy)
		s.Equal("needs updated policy number", tail.Notes)
	})
}

func (s *ServiceSuite) TestVerifyExpiredDocumentConflicts() {
	// Upload with a future expiry, then move the clock past it: the document
	// is past due even though its stored status is still pending.
	expiry := s.now.Add(24 * time.Hour)
	doc := s.uploadWithExpiry(&expiry)
	s.now = s.now.Add(48 * time.Hour)

	_, err := s.service.Verify(s.ctx, doc.SubcontractorID, doc.ID, VerifyRequest{
		Status:     document.StatusApproved,
		VerifiedBy: "inspector",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Contains(err.Error(), "cannot verify expired document")

	var de *dErrors.Error
	s.Require().ErrorAs(err, &de)
	s.Contains(de.Details, "expiresAt")

	stored, findErr := s.docs.FindByID(s.ctx, doc.ID)
	s.Require().NoError(findErr)
	s.Equal(document.StatusPending, stored.Status, "rejected verification leaves no partial write")
	s.Empty(stored.Metadata.VerificationHistory)
}

func (s *ServiceSuite) TestVerifyExpiredRegardlessOfStoredStatus() {
	expiry := s.now.Add(time.Hour)
	doc := s.uploadWithExpiry(&expiry)

	// Mark expired the way the scanner would.
	_, err := s.docs.Update(s.ctx, doc.ID, func(d *document.Document) error {
		d.Status = document.StatusExpired
		return nil
	})
	s.Require().NoError(err)
	s.now = s.now.Add(2 * time.Hour)

	_, err = s.service.Verify(s.ctx, doc.SubcontractorID, doc.ID, VerifyRequest{
		Status:     document.StatusRejected,
		VerifiedBy: "inspector",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

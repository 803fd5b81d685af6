package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"buildsync/internal/blob"
	"buildsync/internal/document"
	"buildsync/internal/document/store"
	"buildsync/internal/platform/metrics"
	dErrors "buildsync/pkg/domain-errors"
	"buildsync/pkg/platform/sentinel"
)

// MaxFileSize caps uploads at 10 MiB.
const MaxFileSize = 10 << 20

// allowedMimeTypes are the file formats accepted for compliance documents.
var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
}

// AllowedMimeTypes lists the accepted MIME types for callers and error detail.
func AllowedMimeTypes() []string {
	return []string{"application/pdf", "image/jpeg", "image/png", "image/gif"}
}

// Service owns the document lifecycle: the upload pipeline, deletion with
// blob reconciliation, and the verification state machine.
type Service struct {
	docs    store.Store
	blobs   blob.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source. Tests use it to pin "now".
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func New(docs store.Store, blobs blob.Store, opts ...Option) (*Service, error) {
	if docs == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	svc := &Service{
		docs:   docs,
		blobs:  blobs,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// UploadRequest carries a validated-on-entry upload. ExpiresAt nil means the
// document never expires.
type UploadRequest struct {
	SubcontractorID uuid.UUID
	Type            document.Type
	ExpiresAt       *time.Time
	File            []byte
	FileName        string
	MimeType        string
}

// Upload validates the request, stores the blob, then persists the record.
// Validation failures never touch the blob store. If record persistence
// fails after the blob was stored, the blob is deleted best-effort before
// the storage error is surfaced; a failed cleanup is logged, not returned,
// so the original failure is what the caller sees.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*document.Document, error) {
	now := s.clock()

	if !req.Type.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid document type: %q", req.Type).
			WithDetails(map[string]any{"validTypes": document.ValidTypes()})
	}
	if !allowedMimeTypes[req.MimeType] {
		return nil, dErrors.New(dErrors.CodeValidation,
			"unsupported file type: only PDF, JPEG, PNG, and GIF files are allowed").
			WithDetails(map[string]any{"allowedTypes": AllowedMimeTypes()})
	}
	if len(req.File) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no file uploaded")
	}
	if len(req.File) > MaxFileSize {
		return nil, dErrors.Newf(dErrors.CodeValidation, "file exceeds maximum size of %d bytes", MaxFileSize).
			WithDetails(map[string]any{"maxFileSize": MaxFileSize, "fileSize": len(req.File)})
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "expiration date must not be in the past").
			WithDetails(map[string]any{"expiresAt": req.ExpiresAt})
	}

	stored, err := s.blobs.Put(ctx, req.File, req.FileName, req.MimeType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to store file")
	}

	doc := &document.Document{
		ID:              uuid.New(),
		SubcontractorID: req.SubcontractorID,
		Type:            req.Type,
		FileLocator:     stored.Locator,
		Status:          document.StatusPending,
		ExpiresAt:       req.ExpiresAt,
		Metadata: document.Metadata{
			OriginalName:  req.FileName,
			Size:          int64(len(req.File)),
			MimeType:      req.MimeType,
			StorageKey:    stored.Key,
			StorageBucket: stored.Bucket,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		// Compensate: drop the blob we just stored so it is not orphaned.
		// A failed cleanup leaves a residual orphan, which we accept and log;
		// the original persistence error still wins.
		if cleanupErr := s.blobs.Delete(ctx, stored.Key); cleanupErr != nil {
			s.logger.Error("blob cleanup after failed document create",
				"key", stored.Key, "error", cleanupErr)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to save document")
	}

	if s.metrics != nil {
		s.metrics.DocumentsUploaded.Inc()
	}
	s.logger.Info("document uploaded",
		"document_id", doc.ID,
		"subcontractor_id", doc.SubcontractorID,
		"type", doc.Type,
	)
	return doc, nil
}

// Delete removes a document and its blob. The blob goes first: if that
// fails, the record is kept so the locator is not lost, and a storage error
// is returned.
func (s *Service) Delete(ctx context.Context, subcontractorID, documentID uuid.UUID) error {
	doc, err := s.findOwned(ctx, subcontractorID, documentID)
	if err != nil {
		return err
	}

	if doc.Metadata.StorageKey != "" {
		if err := s.blobs.Delete(ctx, doc.Metadata.StorageKey); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to delete file from storage")
		}
	}

	if err := s.docs.Delete(ctx, documentID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to delete document")
	}

	s.logger.Info("document deleted", "document_id", documentID, "subcontractor_id", subcontractorID)
	return nil
}

// ListBySubcontractor returns every document owned by the subcontractor.
func (s *Service) ListBySubcontractor(ctx context.Context, subcontractorID uuid.UUID) ([]*document.Document, error) {
	docs, err := s.docs.FindBySubcontractor(ctx, subcontractorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list documents")
	}
	return docs, nil
}

// Get returns one document owned by the subcontractor.
func (s *Service) Get(ctx context.Context, subcontractorID, documentID uuid.UUID) (*document.Document, error) {
	return s.findOwned(ctx, subcontractorID, documentID)
}

func (s *Service) findOwned(ctx context.Context, subcontractorID, documentID uuid.UUID) (*document.Document, error) {
	doc, err := s.docs.FindByID(ctx, documentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load document")
	}
	if doc.SubcontractorID != subcontractorID {
		// Treated as absence rather than leaking another subcontractor's record.
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return doc, nil
}

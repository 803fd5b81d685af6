package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"buildsync/internal/document"
	"buildsync/internal/document/service"
	"buildsync/internal/expiration"
	dErrors "buildsync/pkg/domain-errors"
	"buildsync/pkg/platform/httputil"
)

// DocumentService is the document lifecycle surface consumed by the HTTP layer.
type DocumentService interface {
	Upload(ctx context.Context, req service.UploadRequest) (*document.Document, error)
	Delete(ctx context.Context, subcontractorID, documentID uuid.UUID) error
	Verify(ctx context.Context, subcontractorID, documentID uuid.UUID, req service.VerifyRequest) (*document.Document, error)
	ListBySubcontractor(ctx context.Context, subcontractorID uuid.UUID) ([]*document.Document, error)
}

// ScanRunner triggers one expiration scan on demand.
type ScanRunner interface {
	RunOnce(ctx context.Context, now time.Time) ([]expiration.Notification, error)
}

// Handler is the thin HTTP layer over the document service and scanner.
type Handler struct {
	documents DocumentService
	scanner   ScanRunner
	logger    *slog.Logger
}

func NewHandler(documents DocumentService, scanner ScanRunner, logger *slog.Logger) *Handler {
	return &Handler{documents: documents, scanner: scanner, logger: logger}
}

// multipartMemory caps the in-memory portion of multipart parsing; the rest
// spills to temp files. The service enforces the 10 MiB document limit.
const multipartMemory = 4 << 20

// HandleUpload handles POST /subcontractors/{subcontractorID}/documents.
// Multipart fields: file (single part), type, optional expiresAt (RFC 3339).
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	subcontractorID, ok := pathUUID(w, r, "subcontractorID")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxFileSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid multipart request"))
		return
	}

	var expiresAt *time.Time
	if raw := r.FormValue("expiresAt"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid expiration date").
				WithDetails(map[string]any{"expiresAt": raw, "expectedFormat": time.RFC3339}))
			return
		}
		expiresAt = &parsed
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "no file uploaded"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxFileSize+1))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "failed to read uploaded file"))
		return
	}

	doc, err := h.documents.Upload(r.Context(), service.UploadRequest{
		SubcontractorID: subcontractorID,
		Type:            document.Type(r.FormValue("type")),
		ExpiresAt:       expiresAt,
		File:            data,
		FileName:        header.Filename,
		MimeType:        header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.logger.Error("document upload failed", "subcontractor_id", subcontractorID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":  "Document uploaded successfully",
		"document": doc,
	})
}

// HandleList handles GET /subcontractors/{subcontractorID}/documents.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	subcontractorID, ok := pathUUID(w, r, "subcontractorID")
	if !ok {
		return
	}

	docs, err := h.documents.ListBySubcontractor(r.Context(), subcontractorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if docs == nil {
		docs = []*document.Document{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// HandleDelete handles DELETE /subcontractors/{subcontractorID}/documents/{documentID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	subcontractorID, ok := pathUUID(w, r, "subcontractorID")
	if !ok {
		return
	}
	documentID, ok := pathUUID(w, r, "documentID")
	if !ok {
		return
	}

	if err := h.documents.Delete(r.Context(), subcontractorID, documentID); err != nil {
		h.logger.Error("document deletion failed", "document_id", documentID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"message": "Document deleted successfully"})
}

type verifyRequest struct {
	Status     string `json:"status"`
	VerifiedBy string `json:"verifiedBy"`
	Notes      string `json:"notes"`
}

// HandleVerify handles PUT /subcontractors/{subcontractorID}/documents/{documentID}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	subcontractorID, ok := pathUUID(w, r, "subcontractorID")
	if !ok {
		return
	}
	documentID, ok := pathUUID(w, r, "documentID")
	if !ok {
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid request body"))
		return
	}

	doc, err := h.documents.Verify(r.Context(), subcontractorID, documentID, service.VerifyRequest{
		Status:     document.Status(req.Status),
		VerifiedBy: req.VerifiedBy,
		Notes:      req.Notes,
	})
	if err != nil {
		h.logger.Error("document verification failed", "document_id", documentID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "Document verified successfully",
		"document": doc,
	})
}

// HandleRunScan handles POST /admin/expiration-scan: one on-demand scan.
func (h *Handler) HandleRunScan(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.scanner.RunOnce(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("on-demand expiration scan failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if notifications == nil {
		notifications = []expiration.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "invalid %s", param))
		return uuid.Nil, false
	}
	return id, true
}

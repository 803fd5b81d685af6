package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	blobmemory "buildsync/internal/blob/memory"
	"buildsync/internal/document"
	"buildsync/internal/document/service"
	storememory "buildsync/internal/document/store/memory"
	"buildsync/internal/expiration"
	"buildsync/internal/notification"
	"buildsync/internal/subcontractor"
)

type HandlerSuite struct {
	suite.Suite
	docs      *storememory.InMemory
	blobs     *blobmemory.InMemory
	directory *subcontractor.InMemoryDirectory
	router    http.Handler
	subID     uuid.UUID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.docs = storememory.NewInMemory()
	s.blobs = blobmemory.NewInMemory()
	s.directory = subcontractor.NewInMemoryDirectory()
	s.subID = uuid.New()
	s.directory.Add(s.subID, subcontractor.RecipientInfo{
		Name:        "Acme Electrical",
		Email:       "ops@acme.example",
		CompanyName: "BuildRight GC",
	})

	svc, err := service.New(s.docs, s.blobs)
	s.Require().NoError(err)

	scanner, err := expiration.NewScanner(
		s.docs,
		s.directory,
		notification.NewSlogNotifier(slog.New(slog.NewTextHandler(io.Discard, nil))),
		notification.NewInMemoryStore(),
	)
	s.Require().NoError(err)

	handler := NewHandler(svc, scanner, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = NewRouter(handler)
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// multipartUpload builds a document upload request. An empty expiresAt omits
// the field.
func (s *HandlerSuite) multipartUpload(subID uuid.UUID, docType, fileName, mimeType, expiresAt string, content []byte) *http.Request {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)

	s.Require().NoError(writer.WriteField("type", docType))
	if expiresAt != "" {
		s.Require().NoError(writer.WriteField("expiresAt", expiresAt))
	}
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/subcontractors/%s/documents", subID), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func (s *HandlerSuite) uploadDocument(expiresAt string) uuid.UUID {
	rec := s.do(s.multipartUpload(s.subID, "insurance", "cert.pdf", "application/pdf", expiresAt, []byte("%PDF-1.4")))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	doc := s.decode(rec)["document"].(map[string]any)
	id, err := uuid.Parse(doc["id"].(string))
	s.Require().NoError(err)
	return id
}

func (s *HandlerSuite) TestUploadDocument() {
	expiresAt := time.Now().Add(90 * 24 * time.Hour).UTC().Format(time.RFC3339)
	rec := s.do(s.multipartUpload(s.subID, "insurance", "cert.pdf", "application/pdf", expiresAt, []byte("%PDF-1.4")))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	body := s.decode(rec)
	s.Equal("Document uploaded successfully", body["message"])

	doc := body["document"].(map[string]any)
	s.Equal("insurance", doc["type"])
	s.Equal("pending", doc["status"])
	s.NotEmpty(doc["fileUrl"])
	s.Equal(1, s.blobs.Len())
}

func (s *HandlerSuite) TestUploadRejectsInvalidType() {
	rec := s.do(s.multipartUpload(s.subID, "passport", "cert.pdf", "application/pdf", "", []byte("%PDF-1.4")))
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	body := s.decode(rec)
	s.Equal("validation", body["error"])
	s.Contains(body, "details")
	details := body["details"].(map[string]any)
	s.Contains(details, "validTypes")
	s.Equal(0, s.blobs.Len())
}

func (s *HandlerSuite) TestUploadRejectsMalformedExpiresAt() {
	rec := s.do(s.multipartUpload(s.subID, "insurance", "cert.pdf", "application/pdf", "next tuesday", []byte("%PDF-1.4")))
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	body := s.decode(rec)
	s.Equal("validation", body["error"])
	s.Equal("invalid expiration date", body["error_description"])
}

func (s *HandlerSuite) TestUploadRejectsMissingFile() {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	s.Require().NoError(writer.WriteField("type", "insurance"))
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/subcontractors/%s/documents", s.subID), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := s.do(req)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	s.Equal("no file uploaded", s.decode(rec)["error_description"])
}

func (s *HandlerSuite) TestUploadRejectsInvalidSubcontractorID() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subcontractors/not-a-uuid/documents",
		strings.NewReader(""))
	rec := s.do(req)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid subcontractorID", s.decode(rec)["error_description"])
}

func (s *HandlerSuite) TestListDocuments() {
	s.Run("empty list is an empty array, not null", func() {
		rec := s.do(httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/api/v1/subcontractors/%s/documents", s.subID), nil))
		s.Require().Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"documents": []}`, rec.Body.String())
	})

	s.uploadDocument("")
	s.uploadDocument("")

	rec := s.do(httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/subcontractors/%s/documents", s.subID), nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(s.decode(rec)["documents"], 2)
}

func (s *HandlerSuite) TestVerifyDocument() {
	docID := s.uploadDocument("")

	payload := `{"status":"approved","verifiedBy":"inspector@gc.example","notes":"coverage confirmed"}`
	req := httptest.NewRequest(http.MethodPut,
		fmt.Sprintf("/api/v1/subcontractors/%s/documents/%s/verify", s.subID, docID),
		strings.NewReader(payload))
	rec := s.do(req)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	body := s.decode(rec)
	s.Equal("Document verified successfully", body["message"])
	doc := body["document"].(map[string]any)
	s.Equal("approved", doc["status"])
	s.Equal("inspector@gc.example", doc["verifiedBy"])

	metadata := doc["metadata"].(map[string]any)
	s.Len(metadata["verificationHistory"], 1)
}

func (s *HandlerSuite) TestVerifyRejectsBadStatus() {
	docID := s.uploadDocument("")

	req := httptest.NewRequest(http.MethodPut,
		fmt.Sprintf("/api/v1/subcontractors/%s/documents/%s/verify", s.subID, docID),
		strings.NewReader(`{"status":"expired","verifiedBy":"inspector"}`))
	rec := s.do(req)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation", s.decode(rec)["error"])
}

func (s *HandlerSuite) TestVerifyExpiredDocumentConflicts() {
	expiresAt := time.Now().Add(time.Minute).UTC()
	docID := s.uploadDocument(expiresAt.Format(time.RFC3339))

	// Push the stored expiration into the past; the upload validation only
	// rejects dates that are already past at upload time.
	_, err := s.docs.Update(context.Background(), docID, func(d *document.Document) error {
		past := time.Now().Add(-time.Hour)
		d.ExpiresAt = &past
		return nil
	})
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPut,
		fmt.Sprintf("/api/v1/subcontractors/%s/documents/%s/verify", s.subID, docID),
		strings.NewReader(`{"status":"approved","verifiedBy":"inspector"}`))
	rec := s.do(req)
	s.Require().Equal(http.StatusConflict, rec.Code)

	body := s.decode(rec)
	s.Equal("conflict", body["error"])
	s.Equal("cannot verify expired document", body["error_description"])
}

func (s *HandlerSuite) TestDeleteDocument() {
	docID := s.uploadDocument("")

	s.Run("unknown document", func() {
		req := httptest.NewRequest(http.MethodDelete,
			fmt.Sprintf("/api/v1/subcontractors/%s/documents/%s", s.subID, uuid.New()), nil)
		rec := s.do(req)
		s.Require().Equal(http.StatusNotFound, rec.Code)
		s.Equal("not_found", s.decode(rec)["error"])
	})

	s.Run("wrong subcontractor is indistinguishable from absent", func() {
		req := httptest.NewRequest(http.MethodDelete,
			fmt.Sprintf("/api/v1/subcontractors/%s/documents/%s", uuid.New(), docID), nil)
		rec := s.do(req)
		s.Require().Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("removes document and blob", func() {
		req := httptest.NewRequest(http.MethodDelete,
			fmt.Sprintf("/api/v1/subcontractors/%s/documents/%s", s.subID, docID), nil)
		rec := s.do(req)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal("Document deleted successfully", s.decode(rec)["message"])
		s.Equal(0, s.blobs.Len())
	})
}

func (s *HandlerSuite) TestRunScanEndpoint() {
	in5Days := time.Now().Add(5 * 24 * time.Hour).UTC()
	s.uploadDocument(in5Days.Format(time.RFC3339))

	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/v1/admin/expiration-scan", nil))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	notifications := s.decode(rec)["notifications"].([]any)
	s.Require().Len(notifications, 1)
	first := notifications[0].(map[string]any)
	s.Equal("insurance", first["type"])
	s.Equal("ops@acme.example", first["recipientEmail"])
}

func (s *HandlerSuite) TestRunScanEmptyWindow() {
	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/v1/admin/expiration-scan", nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"notifications": []}`, rec.Body.String())
}

func (s *HandlerSuite) TestHealthz() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", rec.Body.String())
}

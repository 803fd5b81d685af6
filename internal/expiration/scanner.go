package expiration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"buildsync/internal/document"
	"buildsync/internal/document/store"
	"buildsync/internal/notification"
	"buildsync/internal/platform/metrics"
	"buildsync/internal/subcontractor"
	dErrors "buildsync/pkg/domain-errors"
)

// Horizon is how far ahead of expiry a document starts producing alerts.
const Horizon = 30 * 24 * time.Hour

// Notification is one scan's decision to alert about one document. It is
// returned to the caller for observability; the durable side effects are the
// email and the persisted notification record.
type Notification struct {
	DocumentID        uuid.UUID     `json:"documentId"`
	Type              document.Type `json:"type"`
	SubcontractorName string        `json:"subcontractorName"`
	RecipientEmail    string        `json:"recipientEmail"`
	CompanyName       string        `json:"companyName"`
	ExpiresAt         time.Time     `json:"expiresAt"`
	FileLocator       string        `json:"fileUrl"`
}

// Scanner classifies documents against their expiration window, transitions
// overdue ones to expired, and dispatches alerts. RunOnce takes an explicit
// "now" so the algorithm stays independent of any scheduling mechanism.
type Scanner struct {
	docs          store.Store
	directory     subcontractor.Directory
	notifier      notification.Notifier
	notifications notification.Store
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(*Scanner)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

func NewScanner(docs store.Store, directory subcontractor.Directory, notifier notification.Notifier, notifications notification.Store, opts ...Option) (*Scanner, error) {
	if docs == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("subcontractor directory is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if notifications == nil {
		return nil, fmt.Errorf("notification store is required")
	}

	s := &Scanner{
		docs:          docs,
		directory:     directory,
		notifier:      notifier,
		notifications: notifications,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunOnce performs one expiration scan as of now and returns the
// notifications it dispatched.
//
// Per-document failures (recipient lookup, email delivery, record insert)
// are logged and skipped; the scan always runs to completion. Only a store
// failure on the initial query aborts the run, surfacing the error to the
// scheduler for retry on the next cycle. The expired-status transition is
// persisted before any notification is attempted and is never rolled back
// by a later delivery failure.
func (s *Scanner) RunOnce(ctx context.Context, now time.Time) ([]Notification, error) {
	if s.metrics != nil {
		s.metrics.ScansTotal.Inc()
	}

	candidates, err := s.docs.FindExpiringBefore(ctx, now.Add(Horizon))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to query expiring documents")
	}

	var sent []Notification
	for _, doc := range candidates {
		// Cancellation stops the scan between documents, never mid-document:
		// the current document's transition and notification either both ran
		// already or neither has started.
		if ctx.Err() != nil {
			return sent, nil
		}
		if doc.ExpiresAt == nil {
			continue
		}

		daysUntil := daysUntilExpiration(*doc.ExpiresAt, now)

		if daysUntil <= 0 {
			if err := s.markExpired(ctx, doc.ID, now); err != nil {
				s.logger.Error("failed to mark document expired", "document_id", doc.ID, "error", err)
				continue
			}
			if s.metrics != nil {
				s.metrics.DocumentsExpired.Inc()
			}
		}

		if n, ok := s.dispatch(ctx, doc, now); ok {
			sent = append(sent, n)
		}
	}

	s.logger.Info("expiration scan complete",
		"candidates", len(candidates),
		"notifications", len(sent),
	)
	return sent, nil
}

// daysUntilExpiration rounds up, so a document expiring later today counts
// as one day out and one expiring an hour ago counts as zero.
func daysUntilExpiration(expiresAt, now time.Time) int {
	const day = 24 * time.Hour
	remaining := expiresAt.Sub(now)
	days := remaining / day
	if remaining%day > 0 {
		days++
	}
	return int(days)
}

// markExpired transitions the document to expired. Idempotent: a document
// another scan already expired is left untouched.
func (s *Scanner) markExpired(ctx context.Context, id uuid.UUID, now time.Time) error {
	_, err := s.docs.Update(ctx, id, func(doc *document.Document) error {
		if doc.Status == document.StatusExpired {
			return nil
		}
		if !doc.IsExpiredAt(now) {
			// Someone replaced the expiration under us; leave the document alone.
			return nil
		}
		doc.Status = document.StatusExpired
		return nil
	})
	return err
}

// dispatch sends the expiration email and persists the in-app notification
// record. Subcontractors without an email address are skipped silently.
func (s *Scanner) dispatch(ctx context.Context, doc *document.Document, now time.Time) (Notification, bool) {
	info, err := s.directory.GetRecipientInfo(ctx, doc.SubcontractorID)
	if err != nil {
		s.logger.Error("failed to resolve notification recipient",
			"document_id", doc.ID, "subcontractor_id", doc.SubcontractorID, "error", err)
		return Notification{}, false
	}
	if info.Email == "" {
		return Notification{}, false
	}

	remaining := formatDistance(*doc.ExpiresAt, now)
	subject := fmt.Sprintf("Document Expiration Notice - %s", doc.Type)
	body := expirationEmailBody(doc, info, remaining)

	if err := s.notifier.Send(ctx, info.Email, subject, body); err != nil {
		if s.metrics != nil {
			s.metrics.NotificationsFailed.Inc()
		}
		s.logger.Error("failed to send expiration notification",
			"document_id", doc.ID, "recipient", info.Email,
			"error", dErrors.Wrap(err, dErrors.CodeDelivery, "notifier send failed"))
		return Notification{}, false
	}

	record := &notification.Record{
		ID:             uuid.New(),
		Type:           notification.TypeDocumentExpiring,
		Title:          fmt.Sprintf("%s Expiring Soon", doc.Type),
		Message:        fmt.Sprintf("Your %s will expire in %s", doc.Type, remaining),
		Status:         notification.StatusUnread,
		RecipientEmail: info.Email,
		DocumentID:     doc.ID,
		CreatedAt:      now,
	}
	if err := s.notifications.Create(ctx, record); err != nil {
		// The email went out; losing the in-app record is logged, not fatal.
		s.logger.Error("failed to persist notification record", "document_id", doc.ID, "error", err)
	}

	if s.metrics != nil {
		s.metrics.NotificationsSent.Inc()
	}
	return Notification{
		DocumentID:        doc.ID,
		Type:              doc.Type,
		SubcontractorName: info.Name,
		RecipientEmail:    info.Email,
		CompanyName:       info.CompanyName,
		ExpiresAt:         *doc.ExpiresAt,
		FileLocator:       doc.FileLocator,
	}, true
}

func expirationEmailBody(doc *document.Document, info subcontractor.RecipientInfo, remaining string) string {
	return fmt.Sprintf(
		"Hello %s,\n\n"+
			"This is a reminder that your %s document for %s will expire in %s.\n"+
			"Please upload an updated document before the expiration date to maintain compliance.\n\n"+
			"You can view the current document here: %s\n"+
			"If you've already renewed this document, please upload the new version through the BuildSync portal.\n\n"+
			"Best regards,\nBuildSync Team\n",
		info.Name, doc.Type, info.CompanyName, remaining, doc.FileLocator,
	)
}

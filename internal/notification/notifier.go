package notification

import (
	"context"
	"log/slog"
)

// Notifier attempts delivery of one message to one recipient. Implementations
// must be independently callable per message; a failed send never poisons the
// next one.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SlogNotifier writes messages to the log instead of delivering them. It is
// the development and test stand-in for a real mail provider.
type SlogNotifier struct {
	logger *slog.Logger
}

func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) Send(_ context.Context, to, subject, body string) error {
	n.logger.Info("email notification",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

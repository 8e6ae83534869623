package email

import (
	"context"
	"log/slog"
)

// NoopSender logs instead of sending; used when no mail API key is
// configured (local dev, tests).
type NoopSender struct {
	logger *slog.Logger
}

// NewNoopSender constructs the log-only sender.
func NewNoopSender(logger *slog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email suppressed (noop sender)", "to", msg.To, "subject", msg.Subject)
	return nil
}

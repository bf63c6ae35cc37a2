// Package logsink writes audit events to a structured logger. It is the
// fallback sink when no broker or database is configured.
package logsink

import (
	"context"
	"log/slog"

	audit "postgate/pkg/platform/audit"
)

type Sink struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger.With("component", "audit")}
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"category", string(event.Category),
		"action", event.Action,
		"user_id", event.UserID,
		"subject", event.Subject,
		"resource", event.Resource,
		"decision", event.Decision,
		"reason", event.Reason,
		"request_id", event.RequestID,
		"client_ip", event.ClientIP,
		"user_agent", event.UserAgent,
		"occurred_at", event.Timestamp,
	)
	return nil
}

package audit

import (
	"context"
	"log/slog"
)

// Emitter is the interface for audit event emission.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// SlogPublisher writes audit events to a structured logger. With no
// persistence requirement for checks, the log stream is the audit trail;
// a store-backed publisher can replace this behind the same Emitter interface.
type SlogPublisher struct {
	logger *slog.Logger
}

// NewSlogPublisher creates a log-backed audit publisher.
func NewSlogPublisher(logger *slog.Logger) *SlogPublisher {
	return &SlogPublisher{logger: logger}
}

// Emit logs the event at info level. It never fails; audit for advisory
// check outcomes is best-effort.
func (p *SlogPublisher) Emit(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "audit",
		"action", event.Action,
		"requester", event.Requester,
		"outcome", event.Outcome,
		"reason", event.Reason,
		"share_code_hash", event.ShareCodeHash,
		"organization", event.Organization,
		"request_id", event.RequestID,
		"client_fingerprint", event.ClientFinger,
		"timestamp", event.Timestamp,
	)
	return nil
}

var _ Emitter = (*SlogPublisher)(nil)

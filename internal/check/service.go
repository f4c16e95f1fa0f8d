package check

import (
	"context"
	"log/slog"
	"time"

	"rtw-gateway/internal/check/metrics"
	"rtw-gateway/internal/platform/privacy"
	"rtw-gateway/internal/platform/requestmeta"
	dErrors "rtw-gateway/pkg/domain-errors"
	"rtw-gateway/pkg/platform/audit"
)

// Verifier classifies a validated request into an outcome. Two
// implementations exist: the deterministic simulation and the external
// provider client. Both produce the same CheckOutcome/SubjectRecord shape so
// callers never depend on which strategy is configured.
//
// Implementations map provider failures into Error outcomes themselves; a
// non-nil error return is reserved for faults the strategy cannot classify.
type Verifier interface {
	Verify(ctx context.Context, req CheckRequest, checkTime time.Time) (*CheckOutcome, error)
}

// Service is the verification engine. It owns the validation gate, delegates
// classification to the configured strategy, and finalizes every outcome
// (share-code echo, check timestamp, checked-by labels, employer details) so
// strategies stay focused on classification.
type Service struct {
	verifier Verifier
	auditor  audit.Emitter
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new check service with required dependencies.
// Panics if required dependencies are nil - fail fast at startup.
func New(verifier Verifier, auditor audit.Emitter, opts ...Option) *Service {
	if verifier == nil {
		panic("check.New: verifier is required")
	}
	if auditor == nil {
		panic("check.New: auditor is required for the check audit trail")
	}

	s := &Service{
		verifier: verifier,
		auditor:  auditor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check performs a complete verification attempt for the given request.
// It always returns a fully-formed outcome; validation failures and provider
// faults surface as Error outcomes, not Go errors.
func (s *Service) Check(ctx context.Context, req CheckRequest) (*CheckOutcome, error) {
	// Single authoritative timestamp for the entire attempt, injected into
	// validation, classification, and the record for consistent audit trails.
	checkTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveCheckLatency(time.Since(checkTime))
		}
	}()

	vr := Validate(req, checkTime)
	if !vr.Valid() {
		outcome := errorOutcome(ReasonValidationFailed, vr.Err.Error())
		if s.metrics != nil {
			s.metrics.IncrementValidationFailure(string(dErrors.CodeOf(vr.Err)))
		}
		s.finish(ctx, req, outcome, checkTime, audit.EventCheckRejected)
		return outcome, nil
	}

	// Under-16 subjects short-circuit before any strategy runs: the outcome
	// is a warning with no record, and the external provider is never
	// contacted. Reproduces the established early-return behaviour.
	if vr.Minor {
		outcome := &CheckOutcome{
			Kind:    OutcomeWarning,
			Message: MsgMinorSubject,
			Reason:  ReasonMinorSubject,
		}
		s.finish(ctx, req, outcome, checkTime, audit.EventCheckPerformed)
		return outcome, nil
	}

	verifyStart := time.Now()
	outcome, err := s.verifier.Verify(ctx, req, checkTime)
	if s.metrics != nil {
		s.metrics.ObserveVerifyLatency(time.Since(verifyStart))
	}
	if err != nil || outcome == nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "verification strategy failed",
				"error", err,
				"share_code_hash", privacy.HashShareCode(req.ShareCode),
			)
		}
		outcome = errorOutcome(ReasonProviderUnavailable,
			"The check could not be completed. Please try again later.")
		s.finish(ctx, req, outcome, checkTime, audit.EventProviderFailure)
		return outcome, nil
	}

	s.finalize(req, outcome, checkTime)
	s.finish(ctx, req, outcome, checkTime, audit.EventCheckPerformed)
	return outcome, nil
}

// finalize normalizes strategy output so the collaborator-facing invariants
// hold regardless of which strategy produced the outcome.
func (s *Service) finalize(req CheckRequest, outcome *CheckOutcome, checkTime time.Time) {
	// Error outcomes never carry a record.
	if outcome.Kind == OutcomeError {
		outcome.Record = nil
		return
	}
	if outcome.Record == nil {
		return
	}

	rec := outcome.Record
	rec.ShareCode = req.ShareCode
	rec.CheckedAt = checkTime
	rec.CheckedBy = req.RequestedBy.ServiceName()
	if req.RequestedBy == RequesterEmployer {
		rec.EmployerName = req.RequesterName
		rec.Organization = req.Organization
	}
}

// finish records metrics and emits the audit event for a completed attempt.
// Audit is best-effort: check outcomes are advisory, so an audit failure is
// logged rather than blocking the response.
func (s *Service) finish(ctx context.Context, req CheckRequest, outcome *CheckOutcome, checkTime time.Time, action audit.AuditEvent) {
	if s.metrics != nil {
		s.metrics.IncrementOutcome(string(outcome.Kind), string(req.RequestedBy))
	}

	event := audit.Event{
		Timestamp:     checkTime,
		Action:        string(action),
		Requester:     string(req.RequestedBy),
		Outcome:       string(outcome.Kind),
		Reason:        string(outcome.Reason),
		ShareCodeHash: privacy.HashShareCode(req.ShareCode),
		Organization:  req.Organization,
		RequestID:     requestmeta.RequestIDFromContext(ctx),
		ClientFinger:  requestmeta.FromContext(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit check audit event",
			"error", err,
			"action", event.Action,
		)
	}
}

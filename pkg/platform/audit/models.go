package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// Events carry no raw PII: share codes are hashed before they reach an
// Event, and dates of birth and names never do.
type Event struct {
	Timestamp      time.Time
	Action         string
	Requester      string // employee or employer
	Outcome        string // success, warning, error
	Reason         string // domain error code or classification reason
	ShareCodeHash  string
	Organization   string
	RequestID      string // correlation ID from HTTP request context
	ClientFinger   string // non-identifying client fingerprint, may be empty
}

type AuditEvent string

const (
	EventCheckPerformed  AuditEvent = "check_performed"
	EventCheckRejected   AuditEvent = "check_rejected"
	EventProviderFailure AuditEvent = "provider_failure"
)

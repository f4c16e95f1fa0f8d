package check

import (
	"time"

	dErrors "rtw-gateway/pkg/domain-errors"
)

// DateLayout is the wire format for dates of birth and expiry dates.
const DateLayout = "2006-01-02"

// RequesterRole identifies who is performing the check.
type RequesterRole string

const (
	RequesterEmployee RequesterRole = "employee"
	RequesterEmployer RequesterRole = "employer"
)

// ParseRequesterRole validates and parses a requester role string.
//
// Usage: call at trust boundaries for external input.
func ParseRequesterRole(s string) (RequesterRole, error) {
	switch RequesterRole(s) {
	case RequesterEmployee, RequesterEmployer:
		return RequesterRole(s), nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "unsupported requester role: must be employee or employer")
	}
}

// ServiceName returns the service label recorded on checks made in this role.
func (r RequesterRole) ServiceName() string {
	if r == RequesterEmployer {
		return "Employer Online Service"
	}
	return "Employee Online Service"
}

// CheckRequest is the immutable input to a single verification attempt.
// One is constructed per submitted form; nothing mutates it afterwards.
type CheckRequest struct {
	ShareCode   string
	DateOfBirth string // YYYY-MM-DD; parsed and policed by Validate
	Forename    string
	Surname     string

	RequestedBy RequesterRole

	// Present only for employer-requested checks.
	RequesterName string
	Organization  string

	// Policy toggles for which immigration categories the requester accepts.
	// Forwarded to the external provider; the simulation ignores them.
	AllowStudent     bool
	AllowSponsorship bool
}

// OutcomeKind is the classification severity of a completed check.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeWarning OutcomeKind = "warning"
	OutcomeError   OutcomeKind = "error"
)

// Human-readable outcome messages. These are part of the collaborator-facing
// contract: the UI renders them verbatim.
const (
	MsgInvalidShareCode = "Invalid share code format. Share codes are typically 9 characters with both letters and numbers."
	MsgInvalidDate      = "Invalid date format."
	MsgFutureDOB        = "Date of birth cannot be in the future."
	MsgMinorSubject     = "The person appears to be under 16 years old. Special rules may apply."
	MsgCodeNotFound     = "The share code could not be found. Please check and try again."
	MsgTimeLimited      = "Right to work check completed, but verification required. This person may have time-limited right to work."
	MsgConfirmed        = "Right to work check completed successfully. This person has the right to work in the UK."
)

// Classification reasons recorded on outcomes for metrics and audit.
// Unlike messages these are stable machine-readable codes.
type Reason string

const (
	ReasonConfirmed           Reason = "confirmed"
	ReasonTimeLimited         Reason = "time_limited"
	ReasonMinorSubject        Reason = "minor_subject"
	ReasonCodeNotFound        Reason = "code_not_found"
	ReasonProviderRejected    Reason = "provider_rejected"
	ReasonProviderUnavailable Reason = "provider_unavailable"
	ReasonValidationFailed    Reason = "validation_failed"
)

// CheckOutcome is the result of one verification attempt. Error outcomes
// never carry a SubjectRecord.
type CheckOutcome struct {
	Kind    OutcomeKind    `json:"status"`
	Message string         `json:"message"`
	Reason  Reason         `json:"-"`
	Record  *SubjectRecord `json:"data,omitempty"`
}

// SubjectRecord is the normalized verified-person data produced by a
// Success or Warning outcome. Both verification strategies emit this shape
// so rendering and export collaborators stay strategy-agnostic.
type SubjectRecord struct {
	Name              string     `json:"name"`
	DateOfBirth       string     `json:"date_of_birth"`
	Nationality       string     `json:"nationality"`
	ImmigrationStatus string     `json:"immigration_status"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"` // absent means no expiry
	Restrictions      string     `json:"restrictions"`          // "None" when unrestricted

	ShareCode string    `json:"share_code"`
	CheckedAt time.Time `json:"check_date"`
	CheckedBy string    `json:"check_performed_by"`

	// Set only when the requester is an employer.
	EmployerName string `json:"employer_name,omitempty"`
	Organization string `json:"organization,omitempty"`

	// Provider-reported extras; empty in simulation mode.
	StartDate string `json:"start_date,omitempty"`
	Details   string `json:"details,omitempty"`
}

// errorOutcome builds an Error outcome. Error outcomes carry no record.
func errorOutcome(reason Reason, msg string) *CheckOutcome {
	return &CheckOutcome{Kind: OutcomeError, Message: msg, Reason: reason}
}

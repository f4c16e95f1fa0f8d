package check

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Simulation constants. The substring triggers and fixed record values are a
// test convenience carried over from the original checking service; they are
// not a real verification algorithm and the simulated verifier must never
// back a production deployment.
const (
	simTriggerError   = "ERR"
	simTriggerWarning = "WRN"

	simPlaceholderSurname  = "Smith"
	simPlaceholderForename = "John"

	simTimeLimitedNationality  = "Nigerian"
	simTimeLimitedStatus       = "Student Visa"
	simTimeLimitedRestrictions = "Limited to 20 hours work per week during term time"
	simTimeLimitedValidityDays = 180

	simUnrestricted = "None"
)

// SimulatedVerifier classifies share codes with deterministic rules and no
// external dependency. Outcomes are driven by share-code content:
// codes containing "ERR" fail, codes containing "WRN" produce a time-limited
// warning record, and everything else succeeds with a status derived from the
// surname.
type SimulatedVerifier struct{}

// NewSimulatedVerifier creates the simulation strategy.
func NewSimulatedVerifier() *SimulatedVerifier {
	return &SimulatedVerifier{}
}

// Verify classifies the request. Validation has already run; the share code
// is structurally well-formed and the subject is not a minor.
func (v *SimulatedVerifier) Verify(_ context.Context, req CheckRequest, checkTime time.Time) (*CheckOutcome, error) {
	code := strings.ToUpper(req.ShareCode)

	switch {
	case strings.Contains(code, simTriggerError):
		return errorOutcome(ReasonCodeNotFound, MsgCodeNotFound), nil

	case strings.Contains(code, simTriggerWarning):
		expiry := checkTime.AddDate(0, 0, simTimeLimitedValidityDays)
		return &CheckOutcome{
			Kind:    OutcomeWarning,
			Message: MsgTimeLimited,
			Reason:  ReasonTimeLimited,
			Record: &SubjectRecord{
				Name:              simulatedName(req),
				DateOfBirth:       req.DateOfBirth,
				Nationality:       simTimeLimitedNationality,
				ImmigrationStatus: simTimeLimitedStatus,
				ExpiryDate:        &expiry,
				Restrictions:      simTimeLimitedRestrictions,
			},
		}, nil

	default:
		nationality, status := simulatedStatus(req.Surname)
		return &CheckOutcome{
			Kind:    OutcomeSuccess,
			Message: MsgConfirmed,
			Reason:  ReasonConfirmed,
			Record: &SubjectRecord{
				Name:              simulatedName(req),
				DateOfBirth:       req.DateOfBirth,
				Nationality:       nationality,
				ImmigrationStatus: status,
				Restrictions:      simUnrestricted,
			},
		}, nil
	}
}

// simulatedName renders "Surname, Forename" with placeholders for absent parts.
func simulatedName(req CheckRequest) string {
	surname := req.Surname
	if surname == "" {
		surname = simPlaceholderSurname
	}
	forename := req.Forename
	if forename == "" {
		forename = simPlaceholderForename
	}
	return fmt.Sprintf("%s, %s", surname, forename)
}

// simulatedStatus derives nationality and immigration status from surname
// presence and character-count parity. Deterministic so the same form input
// always reproduces the same record.
func simulatedStatus(surname string) (nationality, status string) {
	switch {
	case surname == "":
		return "British", "British Citizen"
	case len(surname)%2 == 0:
		return "EU Settled Status", "EU Settlement Scheme"
	default:
		return "Indefinite Leave to Remain", "Indefinite Leave to Remain"
	}
}

var _ Verifier = (*SimulatedVerifier)(nil)

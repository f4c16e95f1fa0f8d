package check

import (
	"context"
	"errors"
	"testing"
	"time"

	"rtw-gateway/internal/platform/requestmeta"
	"rtw-gateway/pkg/platform/audit"

	"github.com/stretchr/testify/suite"
)

// CheckServiceSuite tests the verification engine: the validation gate, the
// minor-subject short circuit, strategy delegation, and outcome finalization.
type CheckServiceSuite struct {
	suite.Suite
	verifier *mockVerifier
	auditor  *mockAuditEmitter
	service  *Service
}

func TestCheckServiceSuite(t *testing.T) {
	suite.Run(t, new(CheckServiceSuite))
}

func (s *CheckServiceSuite) SetupTest() {
	s.verifier = &mockVerifier{}
	s.auditor = &mockAuditEmitter{}
	s.service = New(s.verifier, s.auditor)
}

func (s *CheckServiceSuite) validRequest() CheckRequest {
	return CheckRequest{
		ShareCode:   "AB123456X",
		DateOfBirth: "1990-05-20",
		Forename:    "Jane",
		Surname:     "Doe",
		RequestedBy: RequesterEmployee,
	}
}

func (s *CheckServiceSuite) TestRequiredDependencies() {
	s.Panics(func() { New(nil, s.auditor) })
	s.Panics(func() { New(s.verifier, nil) })
}

func (s *CheckServiceSuite) TestValidationFailureBecomesErrorOutcome() {
	req := s.validRequest()
	req.ShareCode = "short"

	outcome, err := s.service.Check(context.Background(), req)

	s.Require().NoError(err)
	s.Equal(OutcomeError, outcome.Kind)
	s.Equal(MsgInvalidShareCode, outcome.Message)
	s.Equal(ReasonValidationFailed, outcome.Reason)
	s.Nil(outcome.Record)

	s.Zero(s.verifier.calls, "verifier must not run for invalid requests")
	s.Require().Len(s.auditor.events, 1)
	s.Equal(string(audit.EventCheckRejected), s.auditor.events[0].Action)
}

func (s *CheckServiceSuite) TestMinorSubjectShortCircuitsStrategy() {
	req := s.validRequest()
	req.DateOfBirth = time.Now().AddDate(-10, 0, 0).Format(DateLayout)

	outcome, err := s.service.Check(context.Background(), req)

	s.Require().NoError(err)
	s.Equal(OutcomeWarning, outcome.Kind)
	s.Equal(MsgMinorSubject, outcome.Message)
	s.Equal(ReasonMinorSubject, outcome.Reason)
	s.Nil(outcome.Record, "minor warnings carry no record")

	s.Zero(s.verifier.calls, "strategy must never run for a minor subject")
	s.Require().Len(s.auditor.events, 1)
	s.Equal(string(audit.EventCheckPerformed), s.auditor.events[0].Action)
}

func (s *CheckServiceSuite) TestSuccessfulCheckIsFinalized() {
	s.verifier.outcome = &CheckOutcome{
		Kind:    OutcomeSuccess,
		Message: MsgConfirmed,
		Reason:  ReasonConfirmed,
		Record: &SubjectRecord{
			Name:              "Doe, Jane",
			DateOfBirth:       "1990-05-20",
			Nationality:       "British",
			ImmigrationStatus: "British Citizen",
			Restrictions:      "None",
		},
	}

	before := time.Now()
	outcome, err := s.service.Check(context.Background(), s.validRequest())

	s.Require().NoError(err)
	s.Equal(1, s.verifier.calls)
	s.Equal(OutcomeSuccess, outcome.Kind)

	s.Require().NotNil(outcome.Record)
	rec := outcome.Record
	s.Equal("AB123456X", rec.ShareCode, "record echoes the checked share code")
	s.Equal("Employee Online Service", rec.CheckedBy)
	s.False(rec.CheckedAt.Before(before))
	s.False(rec.CheckedAt.After(time.Now()))
	s.Empty(rec.EmployerName)
	s.Empty(rec.Organization)
}

func (s *CheckServiceSuite) TestEmployerDetailsStampedOnRecord() {
	s.verifier.outcome = &CheckOutcome{
		Kind:    OutcomeSuccess,
		Message: MsgConfirmed,
		Reason:  ReasonConfirmed,
		Record:  &SubjectRecord{Name: "Doe, Jane"},
	}

	req := s.validRequest()
	req.RequestedBy = RequesterEmployer
	req.RequesterName = "Alex Morgan"
	req.Organization = "Acme Ltd"

	outcome, err := s.service.Check(context.Background(), req)

	s.Require().NoError(err)
	s.Require().NotNil(outcome.Record)
	s.Equal("Employer Online Service", outcome.Record.CheckedBy)
	s.Equal("Alex Morgan", outcome.Record.EmployerName)
	s.Equal("Acme Ltd", outcome.Record.Organization)
}

func (s *CheckServiceSuite) TestErrorOutcomeNeverCarriesRecord() {
	// A buggy strategy attaches a record to an error; finalize drops it.
	s.verifier.outcome = &CheckOutcome{
		Kind:    OutcomeError,
		Message: MsgCodeNotFound,
		Reason:  ReasonCodeNotFound,
		Record:  &SubjectRecord{Name: "Should, NotSurvive"},
	}

	outcome, err := s.service.Check(context.Background(), s.validRequest())

	s.Require().NoError(err)
	s.Equal(OutcomeError, outcome.Kind)
	s.Nil(outcome.Record)
}

func (s *CheckServiceSuite) TestStrategyFaultBecomesErrorOutcome() {
	s.Run("strategy error", func() {
		s.SetupTest()
		s.verifier.err = errors.New("boom")

		outcome, err := s.service.Check(context.Background(), s.validRequest())

		s.Require().NoError(err, "strategy faults must not surface as Go errors")
		s.Equal(OutcomeError, outcome.Kind)
		s.Equal(ReasonProviderUnavailable, outcome.Reason)
		s.Nil(outcome.Record)

		s.Require().Len(s.auditor.events, 1)
		s.Equal(string(audit.EventProviderFailure), s.auditor.events[0].Action)
	})

	s.Run("nil outcome", func() {
		s.SetupTest()
		s.verifier.outcome = nil

		outcome, err := s.service.Check(context.Background(), s.validRequest())

		s.Require().NoError(err)
		s.Equal(OutcomeError, outcome.Kind)
		s.Equal(ReasonProviderUnavailable, outcome.Reason)
	})
}

func (s *CheckServiceSuite) TestAuditEventContents() {
	s.verifier.outcome = &CheckOutcome{
		Kind:    OutcomeSuccess,
		Message: MsgConfirmed,
		Reason:  ReasonConfirmed,
		Record:  &SubjectRecord{Name: "Doe, Jane"},
	}

	ctx := requestmeta.WithRequestID(context.Background(), "req-123")
	req := s.validRequest()
	req.RequestedBy = RequesterEmployer
	req.Organization = "Acme Ltd"

	_, err := s.service.Check(ctx, req)
	s.Require().NoError(err)

	s.Require().Len(s.auditor.events, 1)
	event := s.auditor.events[0]
	s.Equal(string(audit.EventCheckPerformed), event.Action)
	s.Equal("employer", event.Requester)
	s.Equal("success", event.Outcome)
	s.Equal("confirmed", event.Reason)
	s.Equal("Acme Ltd", event.Organization)
	s.Equal("req-123", event.RequestID)
	s.NotEmpty(event.ShareCodeHash)
	s.NotContains(event.ShareCodeHash, "AB123456X", "audit must never carry the raw share code")
}

func (s *CheckServiceSuite) TestAuditFailureDoesNotBlockOutcome() {
	s.verifier.outcome = &CheckOutcome{
		Kind:    OutcomeSuccess,
		Message: MsgConfirmed,
		Reason:  ReasonConfirmed,
		Record:  &SubjectRecord{Name: "Doe, Jane"},
	}
	s.auditor.err = errors.New("sink unavailable")

	outcome, err := s.service.Check(context.Background(), s.validRequest())

	s.Require().NoError(err)
	s.Equal(OutcomeSuccess, outcome.Kind)
}

func (s *CheckServiceSuite) TestSimulationEndToEnd() {
	service := New(NewSimulatedVerifier(), s.auditor)

	s.Run("success", func() {
		outcome, err := service.Check(context.Background(), CheckRequest{
			ShareCode:   "AB123456X",
			DateOfBirth: "1990-05-20",
			Forename:    "John",
			Surname:     "Smith",
			RequestedBy: RequesterEmployee,
		})

		s.Require().NoError(err)
		s.Equal(OutcomeSuccess, outcome.Kind)
		s.Require().NotNil(outcome.Record)
		s.Equal("Indefinite Leave to Remain", outcome.Record.ImmigrationStatus)
		s.Equal("AB123456X", outcome.Record.ShareCode)
	})

	s.Run("warning with future expiry", func() {
		outcome, err := service.Check(context.Background(), CheckRequest{
			ShareCode:   "WRNXY1234",
			DateOfBirth: "1998-03-02",
			RequestedBy: RequesterEmployee,
		})

		s.Require().NoError(err)
		s.Equal(OutcomeWarning, outcome.Kind)
		s.Require().NotNil(outcome.Record)
		s.Require().NotNil(outcome.Record.ExpiryDate)
		s.True(outcome.Record.ExpiryDate.After(outcome.Record.CheckedAt))
	})

	s.Run("not found", func() {
		outcome, err := service.Check(context.Background(), CheckRequest{
			ShareCode:   "ERRXY1234",
			DateOfBirth: "1990-05-20",
			RequestedBy: RequesterEmployee,
		})

		s.Require().NoError(err)
		s.Equal(OutcomeError, outcome.Kind)
		s.Equal(MsgCodeNotFound, outcome.Message)
		s.Nil(outcome.Record)
	})

	s.Run("minor wins over error trigger", func() {
		outcome, err := service.Check(context.Background(), CheckRequest{
			ShareCode:   "ERRXY1234",
			DateOfBirth: time.Now().AddDate(-10, 0, 0).Format(DateLayout),
			RequestedBy: RequesterEmployee,
		})

		s.Require().NoError(err)
		s.Equal(OutcomeWarning, outcome.Kind)
		s.Equal(MsgMinorSubject, outcome.Message)
		s.Nil(outcome.Record)
	})
}

// =============================================================================
// Mock implementations
// =============================================================================

type mockVerifier struct {
	outcome *CheckOutcome
	err     error
	calls   int
	lastReq CheckRequest
}

func (m *mockVerifier) Verify(_ context.Context, req CheckRequest, _ time.Time) (*CheckOutcome, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

type mockAuditEmitter struct {
	events []audit.Event
	err    error
}

func (m *mockAuditEmitter) Emit(_ context.Context, event audit.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

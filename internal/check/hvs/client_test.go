package hvs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rtw-gateway/internal/check"
	"rtw-gateway/pkg/platform/circuit"

	"github.com/stretchr/testify/suite"
)

const testAPIKey = "test-secret"

// ClientSuite tests the provider client against a stub HTTP server:
// request shape, decision mapping, and fault normalization.
type ClientSuite struct {
	suite.Suite
	checkTime time.Time
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.checkTime = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func (s *ClientSuite) request() check.CheckRequest {
	return check.CheckRequest{
		ShareCode:        "AB123456X",
		DateOfBirth:      "1990-05-20",
		Forename:         "Jane",
		Surname:          "Doe",
		RequestedBy:      check.RequesterEmployer,
		RequesterName:    "Alex Morgan",
		Organization:     "Acme Ltd",
		AllowStudent:     true,
		AllowSponsorship: false,
	}
}

// newServer returns a stub provider and a client pointed at it.
func (s *ClientSuite) newServer(handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	s.T().Cleanup(srv.Close)
	client := NewClient(srv.URL, testAPIKey, 2*time.Second)
	return srv, client
}

func (s *ClientSuite) respond(w http.ResponseWriter, status statusPayload) {
	w.Header().Set("Content-Type", "application/json")
	s.Require().NoError(json.NewEncoder(w).Encode(checkResponse{Status: status}))
}

func (s *ClientSuite) TestRequestShape() {
	var got *http.Request
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		s.respond(w, statusPayload{Outcome: decisionAccepted, Title: "British Citizen"})
	})

	_, err := client.Verify(context.Background(), s.request(), s.checkTime)
	s.Require().NoError(err)
	s.Require().NotNil(got)

	s.Equal(http.MethodGet, got.Method)
	s.Equal("/api/v1/rtw/check", got.URL.Path)
	s.Equal(testAPIKey, got.Header.Get("X-API-Key"))
	s.Equal("application/json", got.Header.Get("Accept"))

	q := got.URL.Query()
	s.Equal("AB123456X", q.Get("share_code"))
	s.Equal("Jane", q.Get("forename"))
	s.Equal("Doe", q.Get("surname"))
	s.Equal("20-05-1990", q.Get("dob"), "provider expects day-month-year")
	s.Equal("Acme Ltd", q.Get("organisation"))
	s.Equal("true", q.Get("allow_student"))
	s.Equal("false", q.Get("allow_sponsorship"))
}

func (s *ClientSuite) TestAcceptedDecision() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, statusPayload{
			Name:      "Doe, Jane",
			Outcome:   decisionAccepted,
			StartDate: "2020-07-01",
			Title:     "EU Settlement Scheme",
			Details:   "Settled status confirmed.",
		})
	})

	outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
	s.Require().NoError(err)

	s.Equal(check.OutcomeSuccess, outcome.Kind)
	s.Equal(check.MsgConfirmed, outcome.Message)
	s.Require().NotNil(outcome.Record)
	s.Equal("Doe, Jane", outcome.Record.Name)
	s.Equal("1990-05-20", outcome.Record.DateOfBirth)
	s.Equal("EU Settlement Scheme", outcome.Record.ImmigrationStatus)
	s.Equal("None", outcome.Record.Restrictions)
	s.Equal("2020-07-01", outcome.Record.StartDate)
	s.Equal("Settled status confirmed.", outcome.Record.Details)
	s.Nil(outcome.Record.ExpiryDate)
}

func (s *ClientSuite) TestConditionalDecision() {
	expiry := "2025-12-31"
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, statusPayload{
			Name:       "Doe, Jane",
			Outcome:    decisionConditional,
			StartDate:  "2024-09-01",
			ExpiryDate: &expiry,
			Conditions: "Limited to 20 hours work per week during term time",
			Title:      "Student Visa",
		})
	})

	outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
	s.Require().NoError(err)

	s.Equal(check.OutcomeWarning, outcome.Kind)
	s.Equal(check.MsgTimeLimited, outcome.Message)
	s.Require().NotNil(outcome.Record)
	s.Equal("Student Visa", outcome.Record.ImmigrationStatus)
	s.Equal("Limited to 20 hours work per week during term time", outcome.Record.Restrictions)
	s.Require().NotNil(outcome.Record.ExpiryDate)
	s.Equal("2025-12-31", outcome.Record.ExpiryDate.Format(check.DateLayout))
}

func (s *ClientSuite) TestLapsedExpiryIsDropped() {
	expiry := "2025-01-01" // before the check timestamp
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, statusPayload{
			Name:       "Doe, Jane",
			Outcome:    decisionConditional,
			ExpiryDate: &expiry,
			Title:      "Skilled Worker Visa",
		})
	})

	outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
	s.Require().NoError(err)

	s.Equal(check.OutcomeWarning, outcome.Kind)
	s.Require().NotNil(outcome.Record)
	s.Nil(outcome.Record.ExpiryDate)
}

func (s *ClientSuite) TestNotFoundDecision() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, statusPayload{Outcome: "NOT_FOUND"})
	})

	outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
	s.Require().NoError(err)

	s.Equal(check.OutcomeError, outcome.Kind)
	s.Equal(check.MsgCodeNotFound, outcome.Message)
	s.Equal(check.ReasonCodeNotFound, outcome.Reason)
	s.Nil(outcome.Record)
}

func (s *ClientSuite) TestRejectedDecision() {
	s.Run("provider details are surfaced", func() {
		_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
			s.respond(w, statusPayload{Outcome: "REJECTED", Details: "Share code revoked."})
		})

		outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
		s.Require().NoError(err)
		s.Equal(check.OutcomeError, outcome.Kind)
		s.Equal(check.ReasonProviderRejected, outcome.Reason)
		s.Equal("Share code revoked.", outcome.Message)
	})

	s.Run("decision named when details absent", func() {
		_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
			s.respond(w, statusPayload{Outcome: "SUSPENDED"})
		})

		outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
		s.Require().NoError(err)
		s.Equal(check.OutcomeError, outcome.Kind)
		s.Contains(outcome.Message, "SUSPENDED")
	})
}

func (s *ClientSuite) TestServerErrorBecomesUnavailableOutcome() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
	s.Require().NoError(err, "provider faults must not surface as Go errors")

	s.Equal(check.OutcomeError, outcome.Kind)
	s.Equal(check.ReasonProviderUnavailable, outcome.Reason)
	s.Contains(outcome.Message, "500")
	s.Nil(outcome.Record)
}

func (s *ClientSuite) TestMalformedResponseBecomesUnavailableOutcome() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
	s.Require().NoError(err)

	s.Equal(check.OutcomeError, outcome.Kind)
	s.Equal(check.ReasonProviderUnavailable, outcome.Reason)
}

func (s *ClientSuite) TestTimeoutBecomesUnavailableOutcome() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		s.respond(w, statusPayload{Outcome: decisionAccepted})
	})
	client.httpClient.Timeout = 50 * time.Millisecond

	outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
	s.Require().NoError(err)

	s.Equal(check.OutcomeError, outcome.Kind)
	s.Equal(check.ReasonProviderUnavailable, outcome.Reason)
}

func (s *ClientSuite) TestUnreachableProviderBecomesUnavailableOutcome() {
	client := NewClient("http://127.0.0.1:1", testAPIKey, 500*time.Millisecond)

	outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
	s.Require().NoError(err)

	s.Equal(check.OutcomeError, outcome.Kind)
	s.Equal(check.ReasonProviderUnavailable, outcome.Reason)
	s.Nil(outcome.Record)
}

func (s *ClientSuite) TestCircuitBreakerSkipsCallsAfterRepeatedFailures() {
	var hits int
	srv, _ := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	breaker := circuit.New("hvs-test",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
	)
	client := NewClient(srv.URL, testAPIKey, time.Second, WithBreaker(breaker))

	for i := 0; i < 5; i++ {
		outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
		s.Require().NoError(err)
		s.Equal(check.OutcomeError, outcome.Kind)
		s.Equal(check.ReasonProviderUnavailable, outcome.Reason)
	}

	s.Equal(2, hits, "calls past the threshold must be skipped while the circuit is open")
}

func (s *ClientSuite) TestClientErrorsDoNotTripBreaker() {
	var hits int
	srv, _ := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	breaker := circuit.New("hvs-test", circuit.WithFailureThreshold(2))
	client := NewClient(srv.URL, testAPIKey, time.Second, WithBreaker(breaker))

	for i := 0; i < 4; i++ {
		outcome, err := client.Verify(context.Background(), s.request(), s.checkTime)
		s.Require().NoError(err)
		s.Equal(check.OutcomeError, outcome.Kind)
	}

	s.Equal(4, hits, "a responding provider keeps the circuit closed")
}

// Package hvs implements the external verification strategy against a
// Home Office-style verification service (HVS). It maps provider responses
// and transport failures into check outcomes; callers never see raw HTTP
// errors.
package hvs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rtw-gateway/internal/check"
	"rtw-gateway/internal/platform/privacy"
	"rtw-gateway/internal/platform/tracer"
	"rtw-gateway/pkg/platform/circuit"
)

const (
	checkPath = "/api/v1/rtw/check"

	// dobLayout is the day-month-year textual form the provider expects.
	dobLayout = "02-01-2006"
)

// Provider decisions. ACCEPTED confirms the right to work; CONDITIONAL
// confirms it with conditions attached; anything else is a rejection.
const (
	decisionAccepted    = "ACCEPTED"
	decisionConditional = "CONDITIONAL"
)

// Client calls the verification provider over HTTP. It implements
// check.Verifier.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *circuit.Breaker
	tracer     tracer.Tracer
}

// Ensure Client implements the strategy interface.
var _ check.Verifier = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTracer enables distributed tracing of provider calls.
func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithBreaker sets a custom circuit breaker (for testing thresholds).
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// NewClient creates a new HTTP-based verification client.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = circuit.New("hvs")
	}
	if c.tracer == nil {
		c.tracer = tracer.NewNoop()
	}
	return c
}

// statusPayload is the provider's verification result.
type statusPayload struct {
	Name       string  `json:"name"`
	Outcome    string  `json:"outcome"`
	StartDate  string  `json:"start_date"`
	ExpiryDate *string `json:"expiry_date"`
	Conditions string  `json:"conditions"`
	Details    string  `json:"details"`
	Title      string  `json:"title"`
}

// checkResponse is the provider's success envelope.
type checkResponse struct {
	Status statusPayload `json:"status"`
}

// Verify issues one synchronous request to the provider and normalizes the
// response into a CheckOutcome. Failures are terminal for the attempt:
// nothing is retried, and every fault surfaces as an Error outcome with a
// human-readable message.
func (c *Client) Verify(ctx context.Context, req check.CheckRequest, checkTime time.Time) (*check.CheckOutcome, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanProviderCheck,
		tracer.String(tracer.AttrShareCodeHash, privacy.HashShareCode(req.ShareCode)),
		tracer.String(tracer.AttrRequester, string(req.RequestedBy)),
	)

	outcome, callErr := c.call(ctx, span, req, checkTime)
	span.SetAttributes(tracer.String(tracer.AttrOutcome, string(outcome.Kind)))
	span.End(callErr)
	return outcome, nil
}

// call does the provider round trip. The returned error mirrors the Error
// outcome for tracing purposes; the outcome is always usable.
func (c *Client) call(ctx context.Context, span tracer.Span, req check.CheckRequest, checkTime time.Time) (*check.CheckOutcome, error) {
	if !c.breaker.Allow() {
		err := errors.New("circuit open: provider skipped")
		return unavailableOutcome("The verification service is temporarily unavailable. Please try again later."), err
	}

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return unavailableOutcome("The check could not be completed: " + err.Error()), err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.breaker.RecordFailure()
		if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
			return unavailableOutcome("The verification service did not respond in time. Please try again later."), err
		}
		return unavailableOutcome(fmt.Sprintf("The verification service could not be reached: %v.", err)), err
	}
	defer resp.Body.Close()

	span.SetAttributes(tracer.Int64(tracer.AttrHTTPStatus, int64(resp.StatusCode)))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return unavailableOutcome("The verification service sent an unreadable response."), err
	}

	if resp.StatusCode != http.StatusOK {
		// The provider answered, so only server-side statuses count toward
		// tripping the circuit.
		if resp.StatusCode >= http.StatusInternalServerError {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		return unavailableOutcome(fmt.Sprintf("The verification service returned status %d. Please try again later.", resp.StatusCode)), err
	}

	var payload checkResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.breaker.RecordSuccess()
		return unavailableOutcome("The verification service sent a malformed response."), err
	}

	c.breaker.RecordSuccess()
	return c.mapStatus(payload.Status, req, checkTime), nil
}

// buildRequest assembles the GET request: all inputs as query parameters,
// auth via the pre-shared secret header.
func (c *Client) buildRequest(ctx context.Context, req check.CheckRequest) (*http.Request, error) {
	dob, err := time.Parse(check.DateLayout, req.DateOfBirth)
	if err != nil {
		// Validation runs before any strategy, so this indicates a caller bug.
		return nil, fmt.Errorf("unparseable date of birth: %w", err)
	}

	q := url.Values{}
	q.Set("share_code", req.ShareCode)
	q.Set("forename", req.Forename)
	q.Set("surname", req.Surname)
	q.Set("dob", dob.Format(dobLayout))
	q.Set("organisation", req.Organization)
	q.Set("allow_student", strconv.FormatBool(req.AllowStudent))
	q.Set("allow_sponsorship", strconv.FormatBool(req.AllowSponsorship))

	endpoint := c.baseURL + checkPath + "?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)
	return httpReq, nil
}

// mapStatus converts the provider decision into the shared outcome shape.
func (c *Client) mapStatus(status statusPayload, req check.CheckRequest, checkTime time.Time) *check.CheckOutcome {
	switch status.Outcome {
	case decisionAccepted, decisionConditional:
		rec := &check.SubjectRecord{
			Name:              status.Name,
			DateOfBirth:       req.DateOfBirth,
			ImmigrationStatus: status.Title,
			Restrictions:      status.Conditions,
			StartDate:         status.StartDate,
			Details:           status.Details,
		}
		if rec.Restrictions == "" {
			rec.Restrictions = "None"
		}
		if status.ExpiryDate != nil && *status.ExpiryDate != "" {
			if expiry, err := time.Parse(check.DateLayout, *status.ExpiryDate); err == nil && expiry.After(checkTime) {
				rec.ExpiryDate = &expiry
			}
		}

		if status.Outcome == decisionAccepted {
			return &check.CheckOutcome{
				Kind:    check.OutcomeSuccess,
				Message: check.MsgConfirmed,
				Reason:  check.ReasonConfirmed,
				Record:  rec,
			}
		}
		return &check.CheckOutcome{
			Kind:    check.OutcomeWarning,
			Message: check.MsgTimeLimited,
			Reason:  check.ReasonTimeLimited,
			Record:  rec,
		}

	case "NOT_FOUND":
		return &check.CheckOutcome{
			Kind:    check.OutcomeError,
			Message: check.MsgCodeNotFound,
			Reason:  check.ReasonCodeNotFound,
		}

	default:
		msg := status.Details
		if msg == "" {
			msg = fmt.Sprintf("The right to work check was not accepted (decision: %s).", status.Outcome)
		}
		return &check.CheckOutcome{
			Kind:    check.OutcomeError,
			Message: msg,
			Reason:  check.ReasonProviderRejected,
		}
	}
}

func unavailableOutcome(msg string) *check.CheckOutcome {
	return &check.CheckOutcome{
		Kind:    check.OutcomeError,
		Message: msg,
		Reason:  check.ReasonProviderUnavailable,
	}
}

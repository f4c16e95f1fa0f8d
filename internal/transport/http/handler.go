package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rtw-gateway/internal/check"
	"rtw-gateway/internal/platform/middleware"
	"rtw-gateway/pkg/platform/httputil"
)

// Service defines the engine operations the transport needs.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	Check(ctx context.Context, req check.CheckRequest) (*check.CheckOutcome, error)
}

// Handler is the thin HTTP layer. It delegates to the check service without
// embedding business logic so transport concerns remain isolated.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/check", h.HandleCheck)
	r.Post("/check/record", h.HandleCheckRecord)
}

// HandleCheck runs a verification attempt and returns the outcome.
// A completed check whose outcome is an error (bad share code, unknown code,
// provider failure) is still HTTP 200: the outcome is the result the UI
// renders. Only structurally unusable requests get 4xx.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	outcome, ok := h.performCheck(w, r, requestID)
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, outcome)
}

// HandleCheckRecord runs a verification attempt and returns the flattened
// export projection for Success/Warning outcomes.
func (h *Handler) HandleCheckRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	outcome, ok := h.performCheck(w, r, requestID)
	if !ok {
		return
	}

	record, err := check.FlatRecord(outcome)
	if err != nil {
		h.logger.WarnContext(ctx, "outcome not exportable",
			"request_id", requestID,
			"outcome", outcome.Kind,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &RecordResponse{
		Fields: check.FlatRecordFields,
		Record: record,
	})
}

// performCheck decodes, validates, and evaluates a check request. On failure
// the error response has already been written and ok is false.
func (h *Handler) performCheck(w http.ResponseWriter, r *http.Request, requestID string) (*check.CheckOutcome, bool) {
	ctx := r.Context()

	payload, ok := httputil.DecodeAndPrepare[CheckPayload](w, r, h.logger, ctx, requestID)
	if !ok {
		return nil, false
	}

	req, err := payload.ToDomain()
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}

	outcome, err := h.service.Check(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "check failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return nil, false
	}

	return outcome, true
}

// RecordResponse is the export projection envelope: the ordered field list
// plus the field-to-value mapping.
type RecordResponse struct {
	Fields []string          `json:"fields"`
	Record map[string]string `json:"record"`
}

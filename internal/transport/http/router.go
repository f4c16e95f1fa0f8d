package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rtw-gateway/internal/platform/health"
	"rtw-gateway/internal/platform/middleware"
	"rtw-gateway/internal/platform/requestmeta"
)

// NewRouter wires all public endpoints with middleware.
func NewRouter(h *Handler, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requestmeta.Middleware)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	h.Register(r)
	healthHandler.Register(r)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"rtw-gateway/internal/check"
	"rtw-gateway/internal/check/hvs"
	checkmetrics "rtw-gateway/internal/check/metrics"
	"rtw-gateway/internal/platform/config"
	"rtw-gateway/internal/platform/health"
	"rtw-gateway/internal/platform/httpserver"
	"rtw-gateway/internal/platform/logger"
	"rtw-gateway/internal/platform/tracer"
	httptransport "rtw-gateway/internal/transport/http"
	"rtw-gateway/pkg/platform/audit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal/check packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing rtw-gateway",
		"addr", cfg.Addr,
		"mode", cfg.Mode,
	)

	verifier, err := buildVerifier(cfg)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	svc := check.New(
		verifier,
		audit.NewSlogPublisher(log),
		check.WithMetrics(checkmetrics.New()),
		check.WithLogger(log),
	)

	healthHandler := health.New(cfg.Environment)
	if cfg.Mode == config.ModeProvider {
		healthHandler.RegisterCheck("hvs", func() error {
			if cfg.HVSBaseURL == "" {
				return errors.New("HVS_BASE_URL not configured")
			}
			return nil
		})
	}

	handler := httptransport.New(svc, log)
	router := httptransport.NewRouter(handler, healthHandler, log)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting http server", "addr", cfg.Addr)
	if err := srv.Run(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// buildVerifier selects the verification strategy from configuration.
func buildVerifier(cfg config.Server) (check.Verifier, error) {
	switch cfg.Mode {
	case config.ModeProvider:
		if cfg.HVSBaseURL == "" {
			return nil, errors.New("provider mode requires HVS_BASE_URL")
		}
		if cfg.HVSAPIKey == "" {
			return nil, errors.New("provider mode requires HVS_API_KEY")
		}
		return hvs.NewClient(cfg.HVSBaseURL, cfg.HVSAPIKey, cfg.HVSTimeout,
			hvs.WithTracer(tracer.NewOTel()),
		), nil
	default:
		return check.NewSimulatedVerifier(), nil
	}
}

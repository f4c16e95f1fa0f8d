package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Mode selects the verification strategy backing the check engine.
type Mode string

const (
	// ModeSimulation classifies share codes with deterministic test rules
	// and needs no external service.
	ModeSimulation Mode = "simulation"
	// ModeProvider delegates verification to the configured HVS endpoint.
	ModeProvider Mode = "provider"
)

// Server captures process-level configuration.
type Server struct {
	Addr string
	Mode Mode

	// Home-office verification service (provider mode only).
	HVSBaseURL string
	HVSAPIKey  string
	HVSTimeout time.Duration

	Environment string
}

// DefaultHVSTimeout bounds the single synchronous provider call.
var DefaultHVSTimeout = 5 * time.Second

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present (dev
// convenience; real deployments set the environment directly).
func FromEnv() Server {
	_ = godotenv.Load()

	addr := os.Getenv("RTW_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	mode := ModeSimulation
	if os.Getenv("RTW_MODE") == string(ModeProvider) {
		mode = ModeProvider
	}

	timeout := DefaultHVSTimeout
	if raw := os.Getenv("HVS_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}

	env := os.Getenv("RTW_ENV")
	if env == "" {
		env = "development"
	}

	return Server{
		Addr:        addr,
		Mode:        mode,
		HVSBaseURL:  os.Getenv("HVS_BASE_URL"),
		HVSAPIKey:   os.Getenv("HVS_API_KEY"),
		HVSTimeout:  timeout,
		Environment: env,
	}
}

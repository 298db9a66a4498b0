package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/cosmos/cosmos-sdk/telemetry"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/paw-chain/modelreg/api/health"
	apptelemetry "github.com/paw-chain/modelreg/app/telemetry"
)

// newTelemetryRouter serves /metrics and the health endpoints of checker.
func newTelemetryRouter(checker *health.HealthChecker) http.Handler {
	router := mux.NewRouter()
	for path, handler := range checker.HTTPHandlers() {
		router.HandleFunc(path, handler).Methods(http.MethodGet)
	}

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(
		handlers.CompressHandler(router),
	)
}

func newTelemetryServer(addr string, checker *health.HealthChecker) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           newTelemetryRouter(checker),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// startMetrics enables the SDK telemetry sink; its Prometheus collectors land in the
// default registry served on /metrics.
func startMetrics(cfg *Config) error {
	_, err := telemetry.New(telemetry.Config{
		ServiceName:             "modelreg",
		Enabled:                 true,
		EnableHostnameLabel:     false,
		EnableServiceLabel:      true,
		PrometheusRetentionTime: cfg.Telemetry.PrometheusRetention,
		GlobalLabels:            [][]string{{"chain_id", cfg.ChainID}},
	})
	return err
}

func startTracing(cfg *Config) (*apptelemetry.Provider, error) {
	return apptelemetry.NewProvider(apptelemetry.Config{
		Enabled:           cfg.Telemetry.TracingEnabled,
		OTLPEndpoint:      cfg.Telemetry.OTLPEndpoint,
		SampleRate:        cfg.Telemetry.SampleRate,
		Environment:       cfg.Telemetry.Environment,
		ChainID:           cfg.ChainID,
		PrometheusEnabled: cfg.Telemetry.TracingEnabled,
	})
}

// tracingCheck degrades health when the tracing pipeline is not running.
func tracingCheck(p *apptelemetry.Provider) health.CheckFunc {
	return func(context.Context) health.CheckResult {
		if err := p.HealthCheck(); err != nil {
			return health.CheckResult{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.CheckResult{Status: health.StatusHealthy, Message: "Tracing OK"}
	}
}

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler http.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealthChecker_Statuses(t *testing.T) {
	tests := []struct {
		name        string
		check       CheckFunc
		healthCode  int
		healthState string
		readyCode   int
	}{
		{
			name:        "committed",
			check:       CommittedStateCheck(func(context.Context) (int64, error) { return 7, nil }),
			healthCode:  http.StatusOK,
			healthState: string(StatusHealthy),
			readyCode:   http.StatusOK,
		},
		{
			name:        "nothing committed",
			check:       CommittedStateCheck(func(context.Context) (int64, error) { return 0, nil }),
			healthCode:  http.StatusOK,
			healthState: string(StatusDegraded),
			readyCode:   http.StatusServiceUnavailable,
		},
		{
			name:        "database down",
			check:       DatabaseCheck(func(context.Context) error { return errors.New("connection refused") }),
			healthCode:  http.StatusServiceUnavailable,
			healthState: string(StatusUnhealthy),
			readyCode:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker("test", WithCacheTimeout(0))
			hc.RegisterCheck("subject", tt.check)

			w, body := serve(t, hc.HealthHandler)
			assert.Equal(t, tt.healthCode, w.Code)
			assert.Equal(t, tt.healthState, body["status"])
			assert.Equal(t, "test", body["version"])

			w, _ = serve(t, hc.ReadinessHandler)
			assert.Equal(t, tt.readyCode, w.Code)
		})
	}
}

func TestHealthChecker_Liveness(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.RegisterCheck("down", DatabaseCheck(func(context.Context) error { return errors.New("down") }))

	w, body := serve(t, hc.LivenessHandler)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", body["status"])
}

func TestHealthChecker_CachesResults(t *testing.T) {
	var calls int32
	hc := NewHealthChecker("test", WithCacheTimeout(time.Hour))
	hc.RegisterCheck("counted", func(context.Context) CheckResult {
		atomic.AddInt32(&calls, 1)
		return CheckResult{Status: StatusHealthy}
	})

	hc.PerformChecks(context.Background())
	hc.PerformChecks(context.Background())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	uncached := NewHealthChecker("test", WithCacheTimeout(0))
	uncached.RegisterCheck("counted", func(context.Context) CheckResult {
		atomic.AddInt32(&calls, 1)
		return CheckResult{Status: StatusHealthy}
	})
	uncached.PerformChecks(context.Background())
	uncached.PerformChecks(context.Background())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHealthChecker_CheckTimeout(t *testing.T) {
	hc := NewHealthChecker("test", WithCheckTimeout(10*time.Millisecond), WithCacheTimeout(0))
	hc.RegisterCheck("slow", DatabaseCheck(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	resp := hc.PerformChecks(context.Background())
	require.Contains(t, resp.Checks, "slow")
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

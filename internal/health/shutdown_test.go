package health_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-commission/internal/health"
)

type upChecker struct{}

func (upChecker) PingDB(context.Context, time.Duration) error    { return nil }
func (upChecker) PingRedis(context.Context, time.Duration) error { return nil }

func TestReadyReportsDrainingOnceShutdownBegins(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })
	h := health.Handler{Checker: upChecker{}}

	ready := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		return rec
	}

	health.SetReady(true)
	require.Equal(t, http.StatusOK, ready().Code)

	health.SetReady(false)
	draining := ready()
	require.Equal(t, http.StatusServiceUnavailable, draining.Code)
	require.JSONEq(t, `{"status":"shutting_down"}`, draining.Body.String())
}

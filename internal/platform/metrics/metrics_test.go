package metrics

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"codequest_admin/internal/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveTransition(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveTransition("start_game", nil)
	m.ObserveTransition("start_game", fmt.Errorf("wrapped: %w", common.ErrInvalidTransition))
	m.ObserveTransition("start_game", fmt.Errorf("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("start_game", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("start_game", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("start_game", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition("x", nil)
		m.ObserveGateway("/auth/me", "200", time.Millisecond)
		m.ObserveBroadcast(nil)
	})
	assert.Nil(t, m.Registry())
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	m.ObserveGateway("/admin/my-rooms", "200", 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "codequest_admin_gateway_request_seconds")
}

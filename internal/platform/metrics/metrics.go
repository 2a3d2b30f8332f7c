package metrics

import (
	"errors"
	"net/http"
	"time"

	"codequest_admin/internal/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codequest_admin"

// Metrics holds the collectors shared by the services and the gateway.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	transitions    *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
	broadcasts     *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(registry)
}

func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Game state operations by outcome.",
		}, []string{"operation", "result"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_seconds",
			Help:      "Latency of calls to the CodeQuest backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaderboard_broadcasts_total",
			Help:      "Leaderboard snapshots processed by the broadcaster.",
		}, []string{"result"}),
	}
	registry.MustRegister(m.transitions, m.gatewayLatency, m.broadcasts)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTransition counts one operation. The result label is "ok", "rejected"
// for guard failures and "error" otherwise.
func (m *Metrics) ObserveTransition(operation string, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, resultLabel(err)).Inc()
}

func (m *Metrics) ObserveGateway(route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(route, status).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveBroadcast(err error) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrInvalidTransition), errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrNoRoomSelected):
		return "rejected"
	default:
		return "error"
	}
}

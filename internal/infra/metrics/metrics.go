// Package metrics держит Prometheus-коллекторы сервиса в собственном реестре.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	authOutcomes *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auth_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Authentication operations by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
	registry.MustRegister(m.requests, m.latency, m.authOutcomes)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveAuth считает исход операции (register, login, refresh, logout).
func (m *Metrics) ObserveAuth(operation string, err error) {
	m.authOutcomes.WithLabelValues(operation, Outcome(err)).Inc()
}

func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case customErrors.IsInvalidArgument(err):
		return "invalid_argument"
	case customErrors.IsInvalidCredentials(err):
		return "invalid_credentials"
	case customErrors.IsAlreadyExists(err):
		return "already_exists"
	case customErrors.IsInvalidToken(err):
		return "invalid_token"
	case customErrors.IsNotFound(err):
		return "not_found"
	case customErrors.IsUnavailable(err):
		return "unavailable"
	default:
		return "internal"
	}
}

package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "branchweb"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Key metrics
	KeysIssued  prometheus.Counter
	KeysRevoked prometheus.Counter
	KeysExpired prometheus.Counter
	KeysActive  prometheus.Gauge

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	HandlerFailures prometheus.Counter

	// Auth metrics
	LoginThrottled prometheus.Counter
}

// NewRegistry creates a registry with all metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		KeysIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "keys_issued_total",
			Help:      "Session keys issued by successful logins.",
		}),
		KeysRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "keys_revoked_total",
			Help:      "Session keys removed by logoff.",
		}),
		KeysExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "keys_expired_total",
			Help:      "Session keys removed because they were idle past the timeout.",
		}),
		KeysActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "keys_active",
			Help:      "Session keys currently held.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Requests answered, by HTTP method and envelope status.",
		}, []string{"method", "status"}),
		HandlerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "handler_failures_total",
			Help:      "Handler invocations that returned an internal error or panicked.",
		}),
		LoginThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "login_throttled_total",
			Help:      "Login attempts rejected by the per-user rate limit.",
		}),
	}

	r.reg.MustRegister(
		r.KeysIssued,
		r.KeysRevoked,
		r.KeysExpired,
		r.KeysActive,
		r.RequestsTotal,
		r.HandlerFailures,
		r.LoginThrottled,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// MustRegister adds extra collectors to the registry.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gatherer exposes the underlying registry for tests and custom exposition.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Package metrics exposes rr-guard counters to Prometheus. Every method is
// safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haukened/rr-guard/internal/guard/domain"
)

const namespace = "rr_guard"

// Metrics holds all Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Blocked          *prometheus.CounterVec
	Disabled         *prometheus.CounterVec
	Removed          *prometheus.CounterVec
	Installed        prometheus.Gauge
	PolicyRules      *prometheus.GaugeVec
	ProxyRequests    *prometheus.CounterVec
	ProxyDuration    *prometheus.HistogramVec
	SanitizedHTML    prometheus.Counter
	SanitizeFailures prometheus.Counter
	UnsanitizedHTML  *prometheus.CounterVec
}

// New creates the collectors and registers them, with the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Blocked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_total",
			Help:      "Calls refused because the destination matched the denylist",
		}, []string{"capability"}),
		Disabled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disabled_calls_total",
			Help:      "Calls to blanket-disabled capabilities",
		}, []string{"capability"}),
		Removed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elements_removed_total",
			Help:      "Elements removed from observed trees, by matched indicator",
		}, []string{"indicator"}),
		Installed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interceptors_installed",
			Help:      "Number of capabilities currently intercepted",
		}),
		PolicyRules: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "policy_rules",
			Help:      "Rules in the active policy set, by category",
		}, []string{"category"}),
		ProxyRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_requests_total",
			Help:      "Proxied requests by method and status code",
		}, []string{"method", "code"}),
		ProxyDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "proxy_request_duration_seconds",
			Help:      "Proxied request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		SanitizedHTML: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "html_documents_sanitized_total",
			Help:      "HTML responses passed through the tree watcher",
		}),
		SanitizeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "html_sanitize_failures_total",
			Help:      "HTML responses that could not be read or parsed",
		}),
		UnsanitizedHTML: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "html_unsanitized_total",
			Help:      "HTML responses passed through unsanitized because of an undecoded content encoding",
		}, []string{"encoding"}),
	}
}

// Registry returns the private registry, for tests and custom exposition.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) IncBlocked(c domain.CapabilityName) {
	if m == nil {
		return
	}
	m.Blocked.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) IncDisabled(c domain.CapabilityName) {
	if m == nil {
		return
	}
	m.Disabled.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) IncRemoved(indicator string) {
	if m == nil {
		return
	}
	m.Removed.WithLabelValues(indicator).Inc()
}

func (m *Metrics) SetInstalled(n int) {
	if m == nil {
		return
	}
	m.Installed.Set(float64(n))
}

// SetPolicy publishes per-category rule counts.
func (m *Metrics) SetPolicy(counts map[string]int) {
	if m == nil {
		return
	}
	for cat, n := range counts {
		m.PolicyRules.WithLabelValues(cat).Set(float64(n))
	}
}

// ObserveProxy records one proxied request.
func (m *Metrics) ObserveProxy(method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.ProxyRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.ProxyDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveSanitize records one sanitize attempt.
func (m *Metrics) ObserveSanitize(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SanitizeFailures.Inc()
		return
	}
	m.SanitizedHTML.Inc()
}

// IncUnsanitized records an HTML response that skipped sanitizing.
func (m *Metrics) IncUnsanitized(encoding string) {
	if m == nil {
		return
	}
	m.UnsanitizedHTML.WithLabelValues(encoding).Inc()
}

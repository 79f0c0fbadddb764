package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "userdesk"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	userEvents   *prometheus.CounterVec
	logins       *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheus creates a recorder with its own registry, including the
// standard process and Go runtime collectors.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		userEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "users",
				Name:      "mutations_total",
				Help:      "Committed user mutations by kind.",
			},
			[]string{"op"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "logins_total",
				Help:      "Login attempts by outcome.",
			},
			[]string{"result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "route"},
		),
	}

	p.registry.MustRegister(
		p.userEvents,
		p.logins,
		p.httpRequests,
		p.httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return p
}

// Registry returns the registry backing this recorder.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// Handler exposes the registry in the Prometheus text format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// IncUserCreated increments user created counter.
func (p *PrometheusRecorder) IncUserCreated() {
	p.userEvents.WithLabelValues("created").Inc()
}

// IncUserUpdated increments user updated counter.
func (p *PrometheusRecorder) IncUserUpdated() {
	p.userEvents.WithLabelValues("updated").Inc()
}

// IncUserDeleted increments user deleted counter.
func (p *PrometheusRecorder) IncUserDeleted() {
	p.userEvents.WithLabelValues("deleted").Inc()
}

// IncLoginSucceeded increments successful login counter.
func (p *PrometheusRecorder) IncLoginSucceeded() {
	p.logins.WithLabelValues("success").Inc()
}

// IncLoginFailed increments failed login counter.
func (p *PrometheusRecorder) IncLoginFailed() {
	p.logins.WithLabelValues("failure").Inc()
}

// ObserveRequest records one handled HTTP request.
func (p *PrometheusRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Package metrics exports Prometheus instruments for HTTP traffic, live
// connections and collection bindings.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "piperacks"

type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// WebSocket
	WSConnectionsActive prometheus.Gauge
	WSMessagesTotal     *prometheus.CounterVec

	// Live bindings
	BindingsActive     *prometheus.GaugeVec
	SnapshotsDelivered *prometheus.CounterVec
	SnapshotFailures   *prometheus.CounterVec
	SnapshotSize       *prometheus.HistogramVec

	// Store
	WriteFailures *prometheus.CounterVec
	SignIns       *prometheus.CounterVec
}

// New registers all instruments on a fresh registry that also carries the
// Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		WSConnectionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "websocket_connections_active",
				Help:      "Active WebSocket connections",
			},
		),
		WSMessagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "websocket_messages_total",
				Help:      "Total WebSocket messages",
			},
			[]string{"direction", "type"},
		),
		BindingsActive: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "live_bindings_active",
				Help:      "Open live collection bindings",
			},
			[]string{"collection"},
		),
		SnapshotsDelivered: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "live_snapshots_delivered_total",
				Help:      "Collection snapshots delivered to bindings",
			},
			[]string{"collection"},
		),
		SnapshotFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "live_snapshot_failures_total",
				Help:      "Snapshot loads or subscriptions that failed and were delivered empty",
			},
			[]string{"collection"},
		),
		SnapshotSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "live_snapshot_documents",
				Help:      "Documents per delivered snapshot",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"collection"},
		),
		WriteFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "store_write_failures_total",
				Help:      "Rejected document writes by operation",
			},
			[]string{"operation"},
		),
		SignIns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "sign_ins_total",
				Help:      "Sign-in attempts by method and result",
			},
			[]string{"method", "result"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency. Paths are the matched
// route templates so ids never become label values.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// collection maps a bus topic to a low-cardinality label: "units/550/pipeRacks"
// becomes "pipeRacks".
func collection(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}

//
// live.Observer
//

func (m *Metrics) BindingOpened(topic string) {
	m.BindingsActive.WithLabelValues(collection(topic)).Inc()
}

func (m *Metrics) BindingClosed(topic string) {
	m.BindingsActive.WithLabelValues(collection(topic)).Dec()
}

func (m *Metrics) SnapshotDelivered(topic string, size int) {
	c := collection(topic)
	m.SnapshotsDelivered.WithLabelValues(c).Inc()
	m.SnapshotSize.WithLabelValues(c).Observe(float64(size))
}

func (m *Metrics) SnapshotFailed(topic string) {
	m.SnapshotFailures.WithLabelValues(collection(topic)).Inc()
}

func (m *Metrics) WriteFailed(op string) {
	m.WriteFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) SignIn(method string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.SignIns.WithLabelValues(method, result).Inc()
}

func (m *Metrics) WSConnectionOpened() {
	m.WSConnectionsActive.Inc()
}

func (m *Metrics) WSConnectionClosed() {
	m.WSConnectionsActive.Dec()
}

func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessagesTotal.WithLabelValues(direction, msgType).Inc()
}

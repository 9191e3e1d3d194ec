package bridge

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "genie"

// metrics holds the bridge's collectors on a registry of its own, so more
// than one bridge can live in a process.
type metrics struct {
	registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func newMetrics(display Display, hub *Hub) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
	m.registry.MustRegister(m.httpRequests, m.httpDuration, newLinkCollector(display, hub))
	return m
}

func (m *metrics) recordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	m.httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func requestMetricsMiddleware(m *metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			statusCode := recorder.statusCode
			if statusCode == 0 {
				statusCode = http.StatusOK
			}

			// route pattern keeps object and index out of the label set
			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			m.recordHTTPRequest(r.Method, path, statusCode, time.Since(start))
		})
	}
}

// linkCollector exports the session and event stream counters at scrape
// time.
type linkCollector struct {
	display Display
	hub     *Hub

	linkEvents    *prometheus.Desc
	streamDropped *prometheus.Desc
	subscribers   *prometheus.Desc
}

func newLinkCollector(display Display, hub *Hub) *linkCollector {
	return &linkCollector{
		display: display,
		hub:     hub,
		linkEvents: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "link", "events_total"),
			"Serial link events by kind.",
			[]string{"kind"}, nil,
		),
		streamDropped: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "stream", "dropped_total"),
			"Reports lost to slow event stream subscribers.",
			nil, nil,
		),
		subscribers: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "stream", "subscribers"),
			"Active event stream subscribers.",
			nil, nil,
		),
	}
}

func (c *linkCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.linkEvents
	ch <- c.streamDropped
	ch <- c.subscribers
}

func (c *linkCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.display.Stats()
	for _, e := range []struct {
		kind  string
		value uint64
	}{
		{"ack", s.Acks},
		{"nak", s.Naks},
		{"report", s.Reports},
		{"checksum_error", s.ChecksumErrors},
		{"timeout", s.Timeouts},
		{"dropped", s.Dropped},
		{"discarded", s.Discarded},
		{"late", s.Late},
	} {
		ch <- prometheus.MustNewConstMetric(c.linkEvents, prometheus.CounterValue, float64(e.value), e.kind)
	}
	ch <- prometheus.MustNewConstMetric(c.streamDropped, prometheus.CounterValue, float64(c.hub.Dropped()))
	ch <- prometheus.MustNewConstMetric(c.subscribers, prometheus.GaugeValue, float64(c.hub.Subscribers()))
}

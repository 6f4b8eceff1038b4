package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the delivery pipeline and the
// local diagnostics API.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	deliveredTotal      prometheus.Counter
	queuedTotal         *prometheus.CounterVec
	retriedTotal        *prometheus.CounterVec
	evictedTotal        prometheus.Counter
	sendDuration        prometheus.Histogram
	queueDepth          prometheus.Gauge
	eventsCapturedTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notify_agent",
				Name:      "http_requests_total",
				Help:      "Total number of diagnostics API requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "notify_agent",
				Name:      "http_request_duration_seconds",
				Help:      "Diagnostics API request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		deliveredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "notify_agent",
				Name:      "payloads_delivered_total",
				Help:      "Total number of payloads delivered on first attempt.",
			},
		),
		queuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notify_agent",
				Name:      "payloads_queued_total",
				Help:      "Total number of payloads queued for retry by reason.",
			},
			[]string{"reason"},
		),
		retriedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notify_agent",
				Name:      "retries_total",
				Help:      "Total number of sweep resend attempts by outcome.",
			},
			[]string{"outcome"},
		),
		evictedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "notify_agent",
				Name:      "payloads_evicted_total",
				Help:      "Total number of queued payloads dropped after exhausting retries.",
			},
		),
		sendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "notify_agent",
				Name:      "send_duration_seconds",
				Help:      "Outbound POST duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "notify_agent",
				Name:      "queue_depth",
				Help:      "Current number of pending deliveries.",
			},
		),
		eventsCapturedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notify_agent",
				Name:      "events_captured_total",
				Help:      "Total number of events seen by the capture filter by decision.",
			},
			[]string{"decision"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.deliveredTotal,
		m.queuedTotal,
		m.retriedTotal,
		m.evictedTotal,
		m.sendDuration,
		m.queueDepth,
		m.eventsCapturedTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncDelivered() {
	if m == nil {
		return
	}
	m.deliveredTotal.Inc()
}

func (m *Metrics) IncQueued(reason string) {
	if m == nil {
		return
	}
	m.queuedTotal.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *Metrics) IncRetried(outcome string) {
	if m == nil {
		return
	}
	m.retriedTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncEvicted() {
	if m == nil {
		return
	}
	m.evictedTotal.Inc()
}

func (m *Metrics) ObserveSendDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.sendDuration.Observe(seconds)
}

func (m *Metrics) SetQueueDepth(depth int64) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) IncEventCaptured(decision string) {
	if m == nil {
		return
	}
	m.eventsCapturedTotal.WithLabelValues(normalizeLabel(decision)).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

// Package metrics exposes gateway counters and store sizes to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook resolution results
const (
	ResultSent             = "sent"
	ResultResolved         = "resolved"
	ResultTemplateNotFound = "template_not_found"
	ResultNoRecipient      = "recipient_not_found"
	ResultMissingParams    = "missing_parameters"
	ResultDeliveryFailed   = "delivery_failed"
	ResultBadRequest       = "bad_request"
)

// Sizer is anything with a current element count
type Sizer interface {
	Len() int
}

type Stores struct {
	Templates  Sizer
	Recipients Sizer
	Sessions   Sizer
}

type Metrics struct {
	registry *prometheus.Registry

	resolutions     *prometheus.CounterVec
	toolOps         *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	resolveDuration prometheus.Histogram
}

// New builds a registry of its own so tests and multiple servers never collide
func New(stores Stores) (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "email_webhook_resolutions_total",
			Help: "Email webhook calls by outcome",
		}, []string{"result"}),
		toolOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_tool_operations_total",
			Help: "Voice platform tool calls by operation and outcome",
		}, []string{"operation", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests processed",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "email_resolve_duration_seconds",
			Help:    "Time spent resolving and rendering a template",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}

	collectors := []prometheus.Collector{
		m.resolutions,
		m.toolOps,
		m.httpRequests,
		m.httpDuration,
		m.resolveDuration,
		newStoreCollector(stores),
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The Record* helpers accept a nil receiver so callers can run without metrics.

func (m *Metrics) RecordResolution(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(result).Inc()
	if elapsed > 0 {
		m.resolveDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) RecordToolOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.toolOps.WithLabelValues(operation, result).Inc()
}

// Middleware labels requests by route pattern, not raw path
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// storeCollector reads sizes at scrape time
type storeCollector struct {
	stores Stores

	templatesDesc  *prometheus.Desc
	recipientsDesc *prometheus.Desc
	sessionsDesc   *prometheus.Desc
}

func newStoreCollector(stores Stores) *storeCollector {
	return &storeCollector{
		stores:         stores,
		templatesDesc:  prometheus.NewDesc("email_templates", "Registered email templates", nil, nil),
		recipientsDesc: prometheus.NewDesc("batch_recipients", "Batch recipients across all jobs", nil, nil),
		sessionsDesc:   prometheus.NewDesc("customer_sessions", "Live customer sessions", nil, nil),
	}
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.templatesDesc
	ch <- c.recipientsDesc
	ch <- c.sessionsDesc
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	emit := func(desc *prometheus.Desc, s Sizer) {
		if s == nil {
			return
		}
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(s.Len()))
	}
	emit(c.templatesDesc, c.stores.Templates)
	emit(c.recipientsDesc, c.stores.Recipients)
	emit(c.sessionsDesc, c.stores.Sessions)
}

package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks upstream fetches, API requests and the size of the stored
// state. Each instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry
	factory  promauto.Factory

	FetchTotal      *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	RequestTotal    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		factory:  factory,
		FetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "standards_comb_fetches_total",
			Help: "Total number of upstream document fetches by result",
		}, []string{"result"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "standards_comb_fetch_duration_seconds",
			Help:    "Duration of upstream document fetches",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "standards_comb_http_requests_total",
			Help: "Total number of API requests by route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "standards_comb_http_request_duration_seconds",
			Help:    "Duration of API requests by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Count exposes count as a gauge read on every scrape, such as the number
// of cache entries. Errors are logged and reported as zero.
func (m *Metrics) Count(name, help string, count func() (int, error)) {
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
		n, err := count()
		if err != nil {
			slog.Warn("Failed to read metric", "metric", name, "error", err)
			return 0
		}
		return float64(n)
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records the count and duration of every request by route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type Fetcher interface {
	Run(ctx context.Context, url string) ([]byte, error)
}

// InstrumentedFetcher counts and times the fetches of the Fetcher it wraps.
type InstrumentedFetcher struct {
	next    Fetcher
	metrics *Metrics
}

func (m *Metrics) Fetcher(next Fetcher) *InstrumentedFetcher {
	return &InstrumentedFetcher{next: next, metrics: m}
}

func (f *InstrumentedFetcher) Run(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	data, err := f.next.Run(ctx, url)

	result := "ok"
	if err != nil {
		result = "error"
	}
	f.metrics.FetchTotal.WithLabelValues(result).Inc()
	f.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	return data, err
}

package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Conversion metrics
	ConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "conversion",
		Name:      "total",
		Help:      "Conversions by shape and result (ok or error kind)",
	}, []string{"shape", "result"})

	ConversionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "conversion",
		Name:      "duration_seconds",
		Help:      "Time from state document to encoded GPX",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"elevation"})

	FeaturesExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "extract",
		Name:      "features_total",
		Help:      "Features found per extraction strategy and geometry",
	}, []string{"strategy", "geometry"})

	PageFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "fetch",
		Name:      "duration_seconds",
		Help:      "Duration of map page downloads",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	})

	PageFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "fetch",
		Name:      "errors_total",
		Help:      "Total map page download failures",
	})

	// Elevation metrics
	ElevationLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "elevation",
		Name:      "lookups_total",
		Help:      "Elevation point lookups by result (hit, miss, error)",
	}, []string{"result"})

	ElevationRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "elevation",
		Name:      "request_duration_seconds",
		Help:      "Duration of elevation API requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"tier"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"tier"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ymaps2gpx",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// ObserveExtraction counts features contributed by one strategy.
func ObserveExtraction(strategy string, lines, points int) {
	if lines > 0 {
		FeaturesExtracted.WithLabelValues(strategy, "line").Add(float64(lines))
	}
	if points > 0 {
		FeaturesExtracted.WithLabelValues(strategy, "point").Add(float64(points))
	}
}

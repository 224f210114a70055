package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPCollector exposes Prometheus metrics for inbound HTTP requests and
// scrape runs.
type HTTPCollector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	scrapeRuns      *prometheus.CounterVec
	scrapeRecords   *prometheus.CounterVec
	scrapeDuration  *prometheus.HistogramVec
}

// NewHTTPCollector constructs a collector with default histograms/counters.
func NewHTTPCollector() (*HTTPCollector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "confscout",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "confscout",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	scrapeRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "confscout",
		Subsystem: "scrape",
		Name:      "runs_total",
		Help:      "Total number of scrape runs by type and final status.",
	}, []string{"type", "status"})

	scrapeRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "confscout",
		Subsystem: "scrape",
		Name:      "records_total",
		Help:      "Conference records processed by scrape runs.",
	}, []string{"type", "outcome"})

	scrapeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "confscout",
		Subsystem: "scrape",
		Name:      "run_duration_seconds",
		Help:      "Duration of scrape runs by type.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"type"})

	for _, c := range []prometheus.Collector{requestDuration, requestTotal, scrapeRuns, scrapeRecords, scrapeDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &HTTPCollector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		scrapeRuns:      scrapeRuns,
		scrapeRecords:   scrapeRecords,
		scrapeDuration:  scrapeDuration,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *HTTPCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *HTTPCollector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// RecordScrapeRun records the outcome of one scrape run.
func (c *HTTPCollector) RecordScrapeRun(scrapeType, status string, duration time.Duration, added, updated, dropped int) {
	c.scrapeRuns.WithLabelValues(scrapeType, status).Inc()
	c.scrapeDuration.WithLabelValues(scrapeType).Observe(duration.Seconds())
	c.scrapeRecords.WithLabelValues(scrapeType, "added").Add(float64(added))
	c.scrapeRecords.WithLabelValues(scrapeType, "updated").Add(float64(updated))
	c.scrapeRecords.WithLabelValues(scrapeType, "dropped").Add(float64(dropped))
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

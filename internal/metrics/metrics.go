// Package metrics exposes Prometheus collectors for the portal API.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Notice fetch outcomes.
const (
	OutcomeLive     = "live"
	OutcomeFallback = "fallback"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	noticesFetchTotal          *prometheus.CounterVec
	noticesFetchDuration       prometheus.Histogram
	noticesRowsSkippedTotal    prometheus.Counter
	statusChecksCreatedTotal   *prometheus.CounterVec
	eventsPublishedTotal       *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		noticesFetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notices_fetch_total",
				Help: "Notice feed requests, labeled by upstream site and outcome (live or fallback).",
			},
			[]string{"site", "outcome"},
		)

		noticesFetchDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "notices_fetch_duration_seconds",
				Help:    "Histogram of notice sheet fetch latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
		)

		noticesRowsSkippedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "notices_rows_skipped_total",
				Help: "Sheet rows dropped because the title or date was empty.",
			},
		)

		statusChecksCreatedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "status_checks_created_total",
				Help: "Status check create attempts, labeled by result.",
			},
			[]string{"result"},
		)

		eventsPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_published_total",
				Help: "Status check events published, labeled by result.",
			},
			[]string{"result"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveNoticeFetch records the outcome and latency of one notice feed request.
func ObserveNoticeFetch(sheetURL, outcome string, duration time.Duration) {
	noticesFetchTotal.WithLabelValues(SanitizeSite(sheetURL), outcome).Inc()
	noticesFetchDuration.Observe(duration.Seconds())
}

// ObserveNoticeRowSkipped counts one dropped sheet row.
func ObserveNoticeRowSkipped() {
	noticesRowsSkippedTotal.Inc()
}

// ObserveStatusCheckCreated counts one create attempt.
func ObserveStatusCheckCreated(result string) {
	statusChecksCreatedTotal.WithLabelValues(result).Inc()
}

// ObserveEventPublished counts one publish attempt.
func ObserveEventPublished(result string) {
	eventsPublishedTotal.WithLabelValues(result).Inc()
}

package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec

	submissionsRecordedTotal    *prometheus.CounterVec
	gradingPassesTotal          *prometheus.CounterVec
	analyticsCacheLookupsTotal  *prometheus.CounterVec
	analyticsComputeSeconds     prometheus.Histogram
	notificationsPublishedTotal *prometheus.CounterVec
	sseClientsActive            prometheus.Gauge
	forumClientsActive          prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors. Safe to call from
// every accessor; registration happens once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aula_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aula_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		submissionsRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aula_submissions_recorded_total",
			Help: "Submissions accepted by the recorder, labelled by outcome.",
		}, []string{"outcome"})

		gradingPassesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aula_grading_passes_total",
			Help: "Grading passes executed, labelled by mode.",
		}, []string{"mode"})

		analyticsCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aula_analytics_cache_lookups_total",
			Help: "Analytics cache lookups, labelled by result (hit or miss).",
		}, []string{"result"})

		analyticsComputeSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aula_analytics_compute_seconds",
			Help:    "Time spent computing statistics on a cache miss.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		})

		notificationsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aula_notifications_published_total",
			Help: "Notifications published to the fan-out broker, labelled by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aula_sse_clients_active",
			Help: "Currently connected notification stream clients.",
		})

		forumClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aula_forum_clients_active",
			Help: "Currently connected forum websocket clients.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			submissionsRecordedTotal,
			gradingPassesTotal,
			analyticsCacheLookupsTotal,
			analyticsComputeSeconds,
			notificationsPublishedTotal,
			sseClientsActive,
			forumClientsActive,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// SubmissionsRecorded exposes the submission outcome counter.
func SubmissionsRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsRecordedTotal
}

// GradingPasses exposes the grading pass counter.
func GradingPasses() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingPassesTotal
}

// AnalyticsCacheLookups exposes the analytics cache counter.
func AnalyticsCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return analyticsCacheLookupsTotal
}

// AnalyticsComputeDuration exposes the statistics compute histogram.
func AnalyticsComputeDuration() prometheus.Histogram {
	RegisterMetrics()
	return analyticsComputeSeconds
}

// NotificationsPublishedTotal exposes the notification counter.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublishedTotal
}

// SSEClientsActive exposes the notification stream client gauge.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

// ForumClientsActive exposes the forum websocket client gauge.
func ForumClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return forumClientsActive
}

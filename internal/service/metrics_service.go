package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the pipeline.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	notificationsSent       prometheus.Counter
	notificationsSuppressed prometheus.Counter
	notificationsCancelled  prometheus.Counter
	notificationsFailed     prometheus.Counter
	matchesFound            prometheus.Counter
	statusSyncs             prometheus.Counter
	mirrorFailures          prometheus.Counter
}

// NewMetricsService registers the pipeline's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	notificationsSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notifications delivered through the outbound channel",
	})
	notificationsSuppressed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_suppressed_total",
		Help: "Notification intents dropped by the debounce window",
	})
	notificationsCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_cancelled_total",
		Help: "Notifications cancelled by recipient preferences",
	})
	notificationsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Notifications whose delivery failed terminally",
	})
	matchesFound := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matches_found_total",
		Help: "Ranked candidates admitted by the match finder",
	})
	statusSyncs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "status_syncs_total",
		Help: "Pipeline status changes persisted",
	})
	mirrorFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "application_mirror_failures_total",
		Help: "Best-effort application status mirrors that failed",
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		notificationsSent, notificationsSuppressed, notificationsCancelled, notificationsFailed,
		matchesFound, statusSyncs, mirrorFailures,
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,

		notificationsSent:       notificationsSent,
		notificationsSuppressed: notificationsSuppressed,
		notificationsCancelled:  notificationsCancelled,
		notificationsFailed:     notificationsFailed,
		matchesFound:            matchesFound,
		statusSyncs:             statusSyncs,
		mirrorFailures:          mirrorFailures,
	}
}

// Handler exposes the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one request observation.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// Nil-safe pipeline counters: services hold a possibly-nil *MetricsService.

func (s *MetricsService) NotificationSent() {
	if s != nil {
		s.notificationsSent.Inc()
	}
}

func (s *MetricsService) NotificationSuppressed() {
	if s != nil {
		s.notificationsSuppressed.Inc()
	}
}

func (s *MetricsService) NotificationCancelled() {
	if s != nil {
		s.notificationsCancelled.Inc()
	}
}

func (s *MetricsService) NotificationFailed() {
	if s != nil {
		s.notificationsFailed.Inc()
	}
}

func (s *MetricsService) MatchesFound(n int) {
	if s != nil && n > 0 {
		s.matchesFound.Add(float64(n))
	}
}

func (s *MetricsService) StatusSynced() {
	if s != nil {
		s.statusSyncs.Inc()
	}
}

func (s *MetricsService) MirrorFailed() {
	if s != nil {
		s.mirrorFailures.Inc()
	}
}

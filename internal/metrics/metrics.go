package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talento_console",
			Name:      "backend_requests_total",
			Help:      "Backend API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "talento_console",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	realtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talento_console",
			Name:      "realtime_events_total",
			Help:      "Realtime events received by channel and event name.",
		},
		[]string{"channel", "event"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talento_console",
			Name:      "http_requests_total",
			Help:      "Status server HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(backendRequests, backendDuration, realtimeEvents, httpRequests)
	})
}

// ObserveBackend records one backend call. Outcome is ok, http_error or transport_error.
func ObserveBackend(endpoint, outcome string, elapsed time.Duration) {
	backendRequests.WithLabelValues(endpoint, outcome).Inc()
	backendDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// IncRealtime counts a received realtime event.
func IncRealtime(channel, event string) {
	realtimeEvents.WithLabelValues(channel, event).Inc()
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

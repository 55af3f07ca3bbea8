package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot collectors.
type Metrics struct {
	MessagesProcessed    prometheus.Counter
	CallbacksProcessed   prometheus.Counter
	ViewsMounted         *prometheus.CounterVec
	ActionsTotal         *prometheus.CounterVec
	RealtimeRenders      prometheus.Counter
	ErrorsTotal          prometheus.Counter
	RateLimited          prometheus.Counter
	UpdateProcessingTime prometheus.Histogram
}

// NewMetrics registers the bot metrics on reg; nil means the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		MessagesProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_messages_processed_total",
			Help: "Messages handled by the bot",
		}),
		CallbacksProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_callbacks_processed_total",
			Help: "Inline button presses handled by the bot",
		}),
		ViewsMounted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_views_mounted_total",
			Help: "Views mounted per route",
		}, []string{"route"}),
		ActionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_actions_total",
			Help: "Row actions by kind and outcome",
		}, []string{"action", "outcome"}),
		RealtimeRenders: f.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_realtime_renders_total",
			Help: "Booking lists re-rendered after a realtime push",
		}),
		ErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Panics recovered in update handlers",
		}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_rate_limited_total",
			Help: "Updates dropped by the per-user rate limit",
		}),
		UpdateProcessingTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) incMessage() {
	if m != nil {
		m.MessagesProcessed.Inc()
	}
}

func (m *Metrics) incCallback() {
	if m != nil {
		m.CallbacksProcessed.Inc()
	}
}

func (m *Metrics) mounted(route string) {
	if m != nil {
		m.ViewsMounted.WithLabelValues(route).Inc()
	}
}

func (m *Metrics) action(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) rendered() {
	if m != nil {
		m.RealtimeRenders.Inc()
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_replies_total",
			Help: "Total bot replies by matched category",
		},
		[]string{"category"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_errors_total",
			Help: "Total internal errors by kind",
		},
		[]string{"kind"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_events_consumed_total",
			Help: "Exchange events handled by the worker",
		},
		[]string{"result"}, // "ok", "bad", "retried", "dead", "failed"
	)
)

func ObserveReply(category string) {
	RepliesTotal.WithLabelValues(category).Inc()
}

func ObserveError(kind string) {
	ErrorsTotal.WithLabelValues(kind).Inc()
}

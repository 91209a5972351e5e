package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "visiongo"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests executed, labeled by request and outcome (success, service_failure, unmarshal_failure, transport_error).",
		},
		[]string{"request", "outcome"},
	)

	RequestLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "Latency of one request execution, transport and unmarshal included (seconds).",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"request"},
	)

	ServiceStatusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_status_total",
			Help:      "Total number of top-level status codes received from the service.",
		},
		[]string{"code"},
	)

	PollAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_attempts_total",
			Help:      "Total number of poll attempts, labeled by operation and result (pending, done, failure, error).",
		},
		[]string{"operation", "result"},
	)

	RateLimitWaitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_waits_total",
			Help:      "Total number of times a call waited for the client-side rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestLatencySeconds,
		ServiceStatusTotal,
		PollAttemptsTotal,
		RateLimitWaitsTotal,
	)
}

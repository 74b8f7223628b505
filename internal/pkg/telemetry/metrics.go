package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CheckoutMetrics struct {
	Attempts *prometheus.CounterVec
	Retries  prometheus.Counter
	Duration prometheus.Histogram
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "checkout",
		Name:      "conflict_retries_total",
		Help:      "Checkout attempts retried after transient lock contention.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "marketplace",
		Subsystem: "checkout",
		Name:      "duration_seconds",
		Help:      "End-to-end checkout latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	reg.MustRegister(attempts, retries, duration)
	return &CheckoutMetrics{Attempts: attempts, Retries: retries, Duration: duration}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

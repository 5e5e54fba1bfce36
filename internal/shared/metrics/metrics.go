package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors for the activation workflow.
type Metrics struct {
	ProviderRequests   *prometheus.CounterVec
	ActivationOutcomes *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New registers the workflow collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sabhapay",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Outbound verification-provider calls by operation and outcome.",
		}, []string{"operation", "outcome"}),

		ActivationOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sabhapay",
			Subsystem: "activation",
			Name:      "outcomes_total",
			Help:      "Activation attempts by resulting KYC status.",
		}, []string{"status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sabhapay",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}

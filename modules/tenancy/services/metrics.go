package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	registrations     *prometheus.CounterVec
	compensations     *prometheus.CounterVec
	peripheryFailures *prometheus.CounterVec
	slugRetries       prometheus.Counter
	accessDecisions   *prometheus.CounterVec
	hashLatency       prometheus.Histogram
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenancy",
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"result"}),
		compensations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenancy",
			Name:      "compensations_total",
			Help:      "Compensating tenant deletions after a failed business profile write.",
		}, []string{"result"}),
		peripheryFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenancy",
			Name:      "periphery_failures_total",
			Help:      "Best-effort provisioning steps that failed and were skipped.",
		}, []string{"step"}),
		slugRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tenancy",
			Name:      "slug_retries_total",
			Help:      "Slug re-allocations caused by a storage unique violation.",
		}),
		accessDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenancy",
			Name:      "access_decisions_total",
			Help:      "Access guard decisions by path and denial reason.",
		}, []string{"path", "reason"}),
		hashLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tenancy",
			Name:      "password_hash_seconds",
			Help:      "Time spent hashing passwords, including queueing for a hash slot.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}

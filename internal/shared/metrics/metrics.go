// Package metrics exposes Prometheus counters for analysis requests.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for analysis requests.
const (
	OutcomeSuccess        = "success"
	OutcomeInvalidInput   = "invalid_input"
	OutcomeNotConfigured  = "not_configured"
	OutcomeUpstreamError  = "upstream_error"
	OutcomeTransportError = "transport_error"
)

var (
	registry = prometheus.NewRegistry()

	analysisRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "happenstance",
		Name:      "analysis_requests_total",
		Help:      "Analysis requests by outcome.",
	}, []string{"outcome"})

	upstreamDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "happenstance",
		Name:      "upstream_duration_seconds",
		Help:      "Duration of the outbound text-generation call.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})
)

func init() {
	registry.MustRegister(analysisRequests, upstreamDuration)
}

// IncAnalysis increments the request counter for an outcome.
func IncAnalysis(outcome string) {
	analysisRequests.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records the duration of one outbound call.
func ObserveUpstream(d time.Duration) {
	if d < 0 {
		d = 0
	}
	upstreamDuration.Observe(d.Seconds())
}

// Registry returns the registry holding the service metrics.
func Registry() *prometheus.Registry {
	return registry
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

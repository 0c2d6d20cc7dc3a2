package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "patent_database"

// Fallback outcomes
const (
	FallbackAlternative = "alternative"
	FallbackDateRange   = "date_range"
	FallbackExhausted   = "exhausted"
)

// Metrics holds the collectors for upstream traffic. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	RateLimitRetries prometheus.Counter
	Fallbacks        *prometheus.CounterVec
}

// New registers the collectors with reg. Passing nil uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "odp_requests_total",
				Help:      "Total number of requests sent to the ODP API",
			},
			[]string{"operation", "status"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "odp_request_duration_seconds",
				Help:      "Duration of ODP API requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RateLimitRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "odp_rate_limit_retries_total",
				Help:      "Total number of retries after a 429 from the ODP API",
			},
		),
		Fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "applicant_fallbacks_total",
				Help:      "Applicant-name fallback searches by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveUpstream records one ODP exchange. status 0 marks a transport failure.
func (m *Metrics) ObserveUpstream(operation string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamRequests.WithLabelValues(operation, label).Inc()
	m.UpstreamDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncRetry counts one 429 retry
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.RateLimitRetries.Inc()
}

// IncFallback counts one fallback run by outcome
func (m *Metrics) IncFallback(outcome string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(outcome).Inc()
}

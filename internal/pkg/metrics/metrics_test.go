package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveUpstream(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveUpstream("search", 200, 10*time.Millisecond)
	m.ObserveUpstream("search", 429, 5*time.Millisecond)
	m.ObserveUpstream("search", 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("search", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("search", "429")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("search", "error")))
}

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncRetry()
	m.IncRetry()
	m.IncFallback(FallbackDateRange)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RateLimitRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues(FallbackDateRange)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues(FallbackAlternative)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpstream("search", 200, time.Second)
		m.IncRetry()
		m.IncFallback(FallbackExhausted)
	})
}

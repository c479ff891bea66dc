package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AttributionMetrics records per-run attribution counters.
type AttributionMetrics struct {
	runDuration *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	claims      *prometheus.CounterVec
	fxFallbacks prometheus.Counter
}

// NewAttributionMetrics registers the attribution metrics on the provided registerer.
func NewAttributionMetrics(reg prometheus.Registerer) *AttributionMetrics {
	if reg == nil {
		return &AttributionMetrics{}
	}
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attribution_run_duration_seconds",
		Help:    "Duration of attribution runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_runs_total",
		Help: "Attribution runs by final status.",
	}, []string{"status"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_campaigns_total",
		Help: "Campaigns processed by attribution outcome.",
	}, []string{"outcome"})
	claims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_claimed_line_items_total",
		Help: "Line items claimed by a campaign, by window.",
	}, []string{"window"})
	fxFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attribution_fx_fallbacks_total",
		Help: "Currency rate lookups that fell back to the static rate.",
	})
	reg.MustRegister(runDuration, runs, outcomes, claims, fxFallbacks)
	return &AttributionMetrics{
		runDuration: runDuration,
		runs:        runs,
		outcomes:    outcomes,
		claims:      claims,
		fxFallbacks: fxFallbacks,
	}
}

// ObserveRun records a finished run.
func (m *AttributionMetrics) ObserveRun(status string, duration time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	label := normalizeLabel(status)
	m.runs.WithLabelValues(label).Inc()
	m.runDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncOutcome counts a finalized campaign.
func (m *AttributionMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddClaims counts line items claimed in the named window.
func (m *AttributionMetrics) AddClaims(window string, n int) {
	if m == nil || m.claims == nil || n <= 0 {
		return
	}
	m.claims.WithLabelValues(normalizeLabel(window)).Add(float64(n))
}

// IncFXFallback counts a rate lookup served by the fallback rate.
func (m *AttributionMetrics) IncFXFallback() {
	if m == nil || m.fxFallbacks == nil {
		return
	}
	m.fxFallbacks.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

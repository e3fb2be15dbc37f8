package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PollerMetrics records fetch outcomes for the dashboard pollers.
type PollerMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewPollerMetrics registers the poller metrics on the provided registerer.
func NewPollerMetrics(reg prometheus.Registerer) *PollerMetrics {
	if reg == nil {
		return &PollerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poller_fetch_duration_seconds",
		Help:    "Duration of poller fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"poller"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_fetch_success",
		Help: "Successful poller fetches.",
	}, []string{"poller"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_fetch_failure",
		Help: "Failed poller fetches.",
	}, []string{"poller"})
	reg.MustRegister(duration, success, failure)
	return &PollerMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named poller.
func (p *PollerMetrics) ObserveDuration(poller string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(poller)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named poller.
func (p *PollerMetrics) IncSuccess(poller string) {
	if p == nil || p.success == nil {
		return
	}
	p.success.WithLabelValues(normalizeLabel(poller)).Inc()
}

// IncFailure increments the failure counter for the named poller.
func (p *PollerMetrics) IncFailure(poller string) {
	if p == nil || p.failure == nil {
		return
	}
	p.failure.WithLabelValues(normalizeLabel(poller)).Inc()
}

func normalizeLabel(poller string) string {
	if poller == "" {
		return "unknown"
	}
	return poller
}

// Package telemetry exposes the prometheus metrics recorded while answering.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector used by the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	lookupAttempts *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	turns          *prometheus.CounterVec
	sourceRequests *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = "wikiask"
	}
	m := &Metrics{
		lookupAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_attempts_total",
			Help:      "Lookup attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Time spent resolving a topic across both strategies.",
			Buckets:   prometheus.DefBuckets,
		}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversational turns by intent and outcome.",
		}, []string{"intent", "outcome"}),
		sourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Requests sent to the knowledge source by operation and status.",
		}, []string{"op", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Knowledge cache lookups by operation and result.",
		}, []string{"op", "result"}),
	}
	for _, c := range []prometheus.Collector{m.lookupAttempts, m.lookupDuration, m.turns, m.sourceRequests, m.cacheLookups} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) LookupAttempt(strategy, outcome string) {
	if m == nil {
		return
	}
	m.lookupAttempts.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) LookupDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.lookupDuration.Observe(d.Seconds())
}

func (m *Metrics) Turn(intent, outcome string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(intent, outcome).Inc()
}

func (m *Metrics) SourceRequest(op, status string) {
	if m == nil {
		return
	}
	m.sourceRequests.WithLabelValues(op, status).Inc()
}

func (m *Metrics) CacheLookup(op string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(op, result).Inc()
}

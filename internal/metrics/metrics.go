// Package metrics exposes Prometheus instruments for analyses and quota
// decisions.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xaenox/tonebuddy/internal/analyzer"
)

type Metrics struct {
	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	quotaDenied      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

// NewMetrics registers the instruments on reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		analysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of tone analyses by surface and outcome.",
		}, []string{"surface", "outcome"}),

		analysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Latency of provider round trips.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"surface"}),

		quotaDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_denied_total",
			Help:      "Analyses refused because the client ran out of coins.",
		}, []string{"surface"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) QuotaDenied(surface string) {
	m.quotaDenied.WithLabelValues(surface).Inc()
}

func (m *Metrics) HTTPRequest(route, status string) {
	m.httpRequests.WithLabelValues(route, status).Inc()
}

// Instrument wraps a so every call is counted under surface.
func (m *Metrics) Instrument(a analyzer.Analyzer, surface string) analyzer.Analyzer {
	return &instrumented{next: a, metrics: m, surface: surface}
}

type instrumented struct {
	next    analyzer.Analyzer
	metrics *Metrics
	surface string
}

func (i *instrumented) Analyze(ctx context.Context, text string) (*analyzer.Analysis, error) {
	start := time.Now()
	analysis, err := i.next.Analyze(ctx, text)

	i.metrics.analysisDuration.WithLabelValues(i.surface).Observe(time.Since(start).Seconds())
	i.metrics.analysesTotal.WithLabelValues(i.surface, analyzer.Outcome(err)).Inc()

	return analysis, err
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the analysis engine. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Distribution cache metrics
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	CacheBuilds    *prometheus.CounterVec
	CacheEvictions *prometheus.CounterVec
	CacheEntries   prometheus.Gauge

	// Analysis metrics
	Analyses         *prometheus.CounterVec
	AnalysisErrors   *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	Decisions        *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. Pass prometheus.NewRegistry()
// in tests to avoid clashing with the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsmed_rankdist_cache_hits_total",
				Help: "Distribution table lookups served from cache",
			},
			[]string{"kind"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsmed_rankdist_cache_misses_total",
				Help: "Distribution table lookups that required a build",
			},
			[]string{"kind"},
		),
		CacheBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsmed_rankdist_cache_builds_total",
				Help: "Distribution tables built",
			},
			[]string{"kind"},
		),
		CacheEvictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsmed_rankdist_cache_evictions_total",
				Help: "Distribution tables evicted by the eviction policy",
			},
			[]string{"kind"},
		),
		CacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "statsmed_rankdist_cache_entries",
				Help: "Distribution tables currently cached",
			},
		),
		Analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsmed_analyses_total",
				Help: "Analyses completed by family and mode",
			},
			[]string{"family", "mode"},
		),
		AnalysisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsmed_analysis_errors_total",
				Help: "Analyses that failed by family and error code",
			},
			[]string{"family", "code"},
		),
		AnalysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statsmed_analysis_duration_seconds",
				Help:    "Analysis duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"family"},
		),
		Decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsmed_normality_decisions_total",
				Help: "Normality decisions by outcome",
			},
			[]string{"decision"},
		),
	}
}

func (m *Metrics) CacheHit(kind string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(kind).Inc()
}

func (m *Metrics) CacheMiss(kind string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(kind).Inc()
}

func (m *Metrics) CacheBuild(kind string) {
	if m == nil {
		return
	}
	m.CacheBuilds.WithLabelValues(kind).Inc()
}

func (m *Metrics) CacheEviction(kind string) {
	if m == nil {
		return
	}
	m.CacheEvictions.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.CacheEntries.Set(float64(n))
}

// RecordAnalysis records a completed analysis and its duration.
func (m *Metrics) RecordAnalysis(family, mode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(family, mode).Inc()
	m.AnalysisDuration.WithLabelValues(family).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordError(family, code string) {
	if m == nil {
		return
	}
	m.AnalysisErrors.WithLabelValues(family, code).Inc()
}

func (m *Metrics) RecordDecision(decision string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision).Inc()
}

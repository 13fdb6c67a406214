package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.CacheHit("signrank")
	m.CacheHit("signrank")
	m.CacheMiss("ranksum")
	m.RecordAnalysis("comparison", "auto", 3*time.Millisecond)
	m.RecordError("comparison", "DOMAIN_ERROR")
	m.SetCacheEntries(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("signrank")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("ranksum")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Analyses.WithLabelValues("comparison", "auto")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysisErrors.WithLabelValues("comparison", "DOMAIN_ERROR")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.CacheEntries))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheHit("signrank")
		m.CacheBuild("signrank")
		m.CacheEviction("ranksum")
		m.SetCacheEntries(1)
		m.RecordAnalysis("descriptive", "all", time.Second)
		m.RecordDecision("PARAMETRIC")
	})
}

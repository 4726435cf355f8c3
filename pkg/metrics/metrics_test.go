package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/networkqy/internal/optimistic"
)

func TestObserverCountsOutcomes(t *testing.T) {
	m := New(prometheus.NewRegistry())
	obs := m.Observer()

	obs(optimistic.KindTogglePostLike, optimistic.Confirmed, 20*time.Millisecond)
	obs(optimistic.KindTogglePostLike, optimistic.Rejected, 30*time.Millisecond)
	obs(optimistic.KindAddComment, optimistic.NetworkFailed, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("toggle_post_like", "confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("toggle_post_like", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("add_comment", "network_failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.MutationLatency))
}

func TestRegisterCacheCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	hits := int64(3)
	m.RegisterCacheCounters(func() int64 { return hits }, func() int64 { return 1 })

	families, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				got[mf.GetName()] = c.GetValue()
			}
		}
	}
	assert.Equal(t, 3.0, got["feed_cache_hits_total"])
	assert.Equal(t, 1.0, got["feed_cache_misses_total"])
}

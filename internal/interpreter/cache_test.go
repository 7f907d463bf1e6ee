package interpreter

import (
	"testing"
	"time"

	"cmdrelay/internal/literal"
	"cmdrelay/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterTotal(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestResultCacheExpiryIsNotAnEviction(t *testing.T) {
	reg := prometheus.NewRegistry()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newResultCache(1, time.Minute, observability.NewCacheMetricsWithRegisterer(reg))
	c.now = func() time.Time { return now }

	two := literal.Args{"n": literal.Int(2)}
	c.put("square", two, literal.Int(4))
	v, ok := c.get("square", two)
	require.True(t, ok)
	assert.Equal(t, literal.Int(4), v)

	now = now.Add(2 * time.Minute)
	_, ok = c.get("square", two)
	assert.False(t, ok)
	assert.Equal(t, 0, c.len())
	assert.Equal(t, 1.0, counterTotal(t, reg, "cmdrelay_cache_expired_total"))
	assert.Equal(t, 0.0, counterTotal(t, reg, "cmdrelay_cache_eviction_total"))

	c.put("square", two, literal.Int(4))
	c.put("square", literal.Args{"n": literal.Int(3)}, literal.Int(9))
	assert.Equal(t, 1, c.len())
	assert.Equal(t, 1.0, counterTotal(t, reg, "cmdrelay_cache_eviction_total"))
	assert.Equal(t, 1.0, counterTotal(t, reg, "cmdrelay_cache_hit_total"))
	assert.Equal(t, 1.0, counterTotal(t, reg, "cmdrelay_cache_miss_total"))
}

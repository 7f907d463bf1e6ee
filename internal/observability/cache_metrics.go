package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CacheMetrics tracks the command result cache.
type CacheMetrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	expired   *prometheus.CounterVec
	evictions prometheus.Counter
}

// NewCacheMetricsWithRegisterer registers the cache counters on reg, or on
// the default registerer when reg is nil.
func NewCacheMetricsWithRegisterer(reg prometheus.Registerer) *CacheMetrics {
	return newCacheMetrics(reg)
}

func newCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &CacheMetrics{
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cmdrelay",
			Subsystem: "cache",
			Name:      "hit_total",
			Help:      "Command results served from the cache",
		}, []string{"command"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cmdrelay",
			Subsystem: "cache",
			Name:      "miss_total",
			Help:      "Cacheable invocations that had to run the command",
		}, []string{"command"}),
		expired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cmdrelay",
			Subsystem: "cache",
			Name:      "expired_total",
			Help:      "Entries dropped because their TTL elapsed",
		}, []string{"command"}),
		evictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cmdrelay",
			Subsystem: "cache",
			Name:      "eviction_total",
			Help:      "Entries evicted by the LRU policy",
		}),
	}
}

// RecordHit increments the hit counter for command.
func (m *CacheMetrics) RecordHit(command string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(command).Inc()
}

// RecordMiss increments the miss counter for command.
func (m *CacheMetrics) RecordMiss(command string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(command).Inc()
}

// RecordExpired increments the expiry counter for command.
func (m *CacheMetrics) RecordExpired(command string) {
	if m == nil {
		return
	}
	m.expired.WithLabelValues(command).Inc()
}

// RecordEviction increments the eviction counter.
func (m *CacheMetrics) RecordEviction() {
	if m == nil {
		return
	}
	m.evictions.Inc()
}

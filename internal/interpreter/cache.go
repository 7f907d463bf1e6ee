package interpreter

import (
	"sort"
	"strings"
	"time"

	"cmdrelay/internal/literal"
	"cmdrelay/internal/observability"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultCacheSize = 128
	defaultCacheTTL  = time.Minute
)

type cacheEntry struct {
	value    literal.Value
	storedAt time.Time
}

// resultCache memoises successful results of cacheable commands keyed by
// command name and bound arguments.
type resultCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
	metrics *observability.CacheMetrics

	// expiring is set while an expired entry is removed so the eviction
	// callback does not count it as an LRU eviction.
	expiring bool
}

func newResultCache(size int, ttl time.Duration, metrics *observability.CacheMetrics) *resultCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c := &resultCache{ttl: ttl, now: time.Now, metrics: metrics}
	entries, err := lru.NewWithEvict[string, cacheEntry](size, func(string, cacheEntry) {
		if !c.expiring {
			c.metrics.RecordEviction()
		}
	})
	if err != nil {
		// Only non-positive sizes fail, and those are replaced above.
		return nil
	}
	c.entries = entries
	return c
}

func (c *resultCache) get(command string, args literal.Args) (literal.Value, bool) {
	key := cacheKey(command, args)
	entry, ok := c.entries.Peek(key)
	if !ok {
		c.metrics.RecordMiss(command)
		return literal.Value{}, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.expiring = true
		c.entries.Remove(key)
		c.expiring = false
		c.metrics.RecordExpired(command)
		c.metrics.RecordMiss(command)
		return literal.Value{}, false
	}
	c.entries.Get(key)
	c.metrics.RecordHit(command)
	return entry.value, true
}

func (c *resultCache) put(command string, args literal.Args, v literal.Value) {
	c.entries.Add(cacheKey(command, args), cacheEntry{value: v, storedAt: c.now()})
}

func (c *resultCache) len() int { return c.entries.Len() }

// cacheKey renders args with sorted names so equal calls share a key.
func cacheKey(command string, args literal.Args) string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(command)
	b.WriteByte('(')
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(args[name].Repr())
	}
	b.WriteByte(')')
	return b.String()
}

package rankdist

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"statsmed/internal"
	"statsmed/internal/metrics"
)

// Kind distinguishes the two table families.
type Kind string

const (
	KindSignRank Kind = "signrank"
	KindRankSum  Kind = "ranksum"
)

// Key identifies a distribution table. Signed-rank keys leave M at zero;
// rank-sum keys are normalised so that M <= N.
type Key struct {
	Kind Kind
	M    int
	N    int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%d", k.Kind, k.M, k.N)
}

// SignRankKey returns the key of the signed-rank table for n observations.
func SignRankKey(n int) Key {
	return Key{Kind: KindSignRank, N: n}
}

// RankSumKey returns the normalised key of the rank-sum table for (m, n).
func RankSumKey(m, n int) Key {
	if m > n {
		m, n = n, m
	}
	return Key{Kind: KindRankSum, M: m, N: n}
}

// Table is an immutable null distribution of an integer rank statistic on
// [0, Max()], symmetric about Max()/2.
type Table interface {
	Max() int
	Count(k int) float64
	Total() float64
	Cells() int
}

// DefaultMaxCells bounds the cells allocated while building a single table.
const DefaultMaxCells = 250_000_000

// CacheOption configures a Cache
type CacheOption func(*Cache)

// WithEvictionPolicy replaces the default NoEviction policy.
func WithEvictionPolicy(p EvictionPolicy) CacheOption {
	return func(c *Cache) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithMaxCells sets the per-table cell budget. Zero disables it.
func WithMaxCells(n int) CacheOption {
	return func(c *Cache) { c.maxCells = n }
}

func WithLogger(l *internal.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

// CacheStats is a point-in-time snapshot of cache activity.
type CacheStats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Builds    int64
	Evictions int64
	Errors    int64
}

// Cache memoizes distribution tables per key.
//
// Concurrent requests for a missing key block on a single builder
// (singleflight) and then share the published table. Tables are never
// mutated after publication.
type Cache struct {
	mu       sync.Mutex
	tables   map[Key]Table
	policy   EvictionPolicy
	flight   singleflight.Group
	maxCells int
	logger   *internal.Logger
	metrics  *metrics.Metrics

	hits      atomic.Int64
	misses    atomic.Int64
	builds    atomic.Int64
	evictions atomic.Int64
	errors    atomic.Int64
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		tables:   make(map[Key]Table),
		policy:   NoEviction{},
		maxCells: DefaultMaxCells,
		logger:   internal.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignRank returns the signed-rank table for n observations.
func (c *Cache) SignRank(n int) (*SignRankTable, error) {
	t, err := c.getOrBuild(SignRankKey(n), func() (Table, error) {
		return NewSignRankTable(n, c.maxCells)
	})
	if err != nil {
		return nil, err
	}
	return t.(*SignRankTable), nil
}

// RankSum returns the rank-sum table for sizes m and n. (m, n) and (n, m)
// share one entry.
func (c *Cache) RankSum(m, n int) (*RankSumTable, error) {
	key := RankSumKey(m, n)
	t, err := c.getOrBuild(key, func() (Table, error) {
		return NewRankSumTable(key.M, key.N, c.maxCells)
	})
	if err != nil {
		return nil, err
	}
	return t.(*RankSumTable), nil
}

func (c *Cache) getOrBuild(key Key, build func() (Table, error)) (Table, error) {
	if t, ok := c.lookup(key); ok {
		c.hits.Add(1)
		c.metrics.CacheHit(string(key.Kind))
		return t, nil
	}
	c.misses.Add(1)
	c.metrics.CacheMiss(string(key.Kind))

	result, err, _ := c.flight.Do(key.String(), func() (interface{}, error) {
		// Another flight may have published while we waited for ours.
		if t, ok := c.lookup(key); ok {
			return t, nil
		}
		t, err := build()
		if err != nil {
			c.errors.Add(1)
			return nil, err
		}
		c.builds.Add(1)
		c.metrics.CacheBuild(string(key.Kind))
		c.logger.Trace("built %s table (%d cells)", key, t.Cells())
		c.publish(key, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(Table), nil
}

func (c *Cache) lookup(key Key) (Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[key]
	if ok {
		c.policy.Touch(key)
	}
	return t, ok
}

func (c *Cache) publish(key Key, t Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tables[key] = t
	for _, k := range c.policy.Admit(key) {
		if _, ok := c.tables[k]; !ok {
			continue
		}
		delete(c.tables, k)
		c.evictions.Add(1)
		c.metrics.CacheEviction(string(k.Kind))
		c.logger.Trace("evicted %s table", k)
	}
	c.metrics.SetCacheEntries(len(c.tables))
}

// Contains reports whether key is currently cached, without touching the
// eviction policy.
func (c *Cache) Contains(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tables[key]
	return ok
}

// Stats returns current cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.tables)
	c.mu.Unlock()

	return CacheStats{
		Entries:   entries,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Builds:    c.builds.Load(),
		Evictions: c.evictions.Load(),
		Errors:    c.errors.Load(),
	}
}

// Clear drops every table.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.tables {
		c.policy.Remove(k)
		delete(c.tables, k)
	}
	c.metrics.SetCacheEntries(0)
}

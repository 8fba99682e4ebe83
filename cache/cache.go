// Package cache memoizes compiled circuit shapes. Compilation is pure and
// deterministic per (pattern, config) pair, so a shape compiled once can be
// shared read-only across every subsequent witness computation and proof
// request for the same pattern.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"

	"github.com/zkmatch-xyz/go-zkmatch/circuit"
	"github.com/zkmatch-xyz/go-zkmatch/pattern"
)

// ShapeCache caches compiled shapes keyed by a hash of (pattern, config).
type ShapeCache struct {
	mu        sync.RWMutex
	cache     map[string]*circuit.Compiled
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
}

// NewShapeCache creates a cache with the specified maximum size. When the
// cache is full an arbitrary entry is evicted. Set maxSize to 0 for an
// unlimited cache.
func NewShapeCache(maxSize int) *ShapeCache {
	return &ShapeCache{
		cache:   make(map[string]*circuit.Compiled),
		maxSize: maxSize,
	}
}

// shapeKey builds a deterministic hash over the pattern text and every
// layout-affecting config field.
func shapeKey(expr string, cfg pattern.Config) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00", expr, cfg.MaxInputLength, cfg.Threshold())
	symbols := make([]string, 0, len(cfg.QuantifierBounds))
	for sym := range cfg.QuantifierBounds {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		b := cfg.QuantifierBounds[sym]
		fmt.Fprintf(h, "%s=%d,%d\x00", sym, b.Min, b.Max)
	}
	return string(h.Sum(nil))
}

// Get retrieves a cached shape. Returns nil if not present.
func (c *ShapeCache) Get(expr string, cfg pattern.Config) *circuit.Compiled {
	key := shapeKey(expr, cfg)

	c.mu.Lock()
	defer c.mu.Unlock()

	if shape, ok := c.cache[key]; ok {
		c.hits++
		return shape
	}
	c.misses++
	return nil
}

// Put stores a compiled shape.
func (c *ShapeCache) Put(expr string, cfg pattern.Config, shape *circuit.Compiled) {
	key := shapeKey(expr, cfg)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.cache) >= c.maxSize {
		for k := range c.cache {
			delete(c.cache, k)
			c.evictions++
			break
		}
	}
	c.cache[key] = shape
}

// Compile returns the cached shape for (expr, cfg), compiling and caching
// it on a miss. Concurrent callers may compile the same shape twice; the
// result is identical either way, so the race is benign.
func (c *ShapeCache) Compile(expr string, cfg pattern.Config) (*circuit.Compiled, error) {
	if shape := c.Get(expr, cfg); shape != nil {
		return shape, nil
	}
	shape, err := circuit.Compile(expr, cfg)
	if err != nil {
		return nil, err
	}
	c.Put(expr, cfg, shape)
	return shape, nil
}

// Size returns the current number of cached shapes.
func (c *ShapeCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Clear removes all entries.
func (c *ShapeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*circuit.Compiled)
}

// Stats holds cache statistics.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

// Stats returns a snapshot of the cache statistics.
func (c *ShapeCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:      len(c.cache),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}

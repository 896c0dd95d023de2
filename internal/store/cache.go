package store

import (
	"sync"

	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/mediauri"
)

// Cache maps media addresses to values in insertion order. uuid addresses
// are translated to their ref form before lookup.
type Cache[T any] struct {
	mu            sync.RWMutex
	translator    *mediauri.Translator
	stripFragment bool
	entries       map[string]T
	order         []string
}

// AssetCache is keyed by canonical address.
type AssetCache = Cache[*domain.Asset]

// SampleCache is keyed by sample address (asset address plus sample name).
type SampleCache = Cache[*domain.Sample]

// NewAssetCache returns an empty asset cache. Lookups ignore fragments.
func NewAssetCache(t *mediauri.Translator) *AssetCache {
	return newCache[*domain.Asset](t, true)
}

// NewSampleCache returns an empty sample cache.
func NewSampleCache(t *mediauri.Translator) *SampleCache {
	return newCache[*domain.Sample](t, false)
}

func newCache[T any](t *mediauri.Translator, stripFragment bool) *Cache[T] {
	return &Cache[T]{
		translator:    t,
		stripFragment: stripFragment,
		entries:       make(map[string]T),
	}
}

func (c *Cache[T]) key(uri string) string {
	u, err := mediauri.Parse(uri)
	if err != nil {
		return uri
	}
	if c.stripFragment {
		u = u.WithoutFragment()
	}
	if c.translator != nil {
		u, _ = c.translator.Ref(u)
	}
	return u.String()
}

// Get returns the value stored under uri.
func (c *Cache[T]) Get(uri string) (T, bool) {
	k := c.key(uri)
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[k]
	return v, ok
}

// Add stores v under uri. It returns false and keeps the existing value when
// uri is already present.
func (c *Cache[T]) Add(uri string, v T) bool {
	k := c.key(uri)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[k]; ok {
		return false
	}
	c.entries[k] = v
	c.order = append(c.order, k)
	return true
}

// All returns the values in insertion order.
func (c *Cache[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.entries[k])
	}
	return out
}

// Len returns the number of entries.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Reset removes all entries.
func (c *Cache[T]) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]T)
	c.order = nil
	c.mu.Unlock()
}

// Package cache provides a thread-safe generic cache and the caches built on
// it for highlighted markup and syntax CSS.
package cache

import (
	"html/template"
	"sync"
)

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	delete(c.items, key)
	return ok
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

func (c *Cache[K, V]) SetTo(items map[K]V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Range calls fn for every entry under the read lock; fn must not call back
// into the cache.
func (c *Cache[K, V]) Range(fn func(K, V)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.items {
		fn(k, v)
	}
}

type sourceKey struct {
	contentHash, syntaxTheme string
}

var highlightedSourceCache = NewCache[sourceKey, string]()

// GetHighlightedSource returns the highlighted view of a markup version.
func GetHighlightedSource(contentHash, syntaxTheme string) (string, bool) {
	return highlightedSourceCache.Get(sourceKey{contentHash, syntaxTheme})
}

func SetHighlightedSource(contentHash, syntaxTheme, html string) {
	highlightedSourceCache.Set(sourceKey{contentHash, syntaxTheme}, html)
}

func ClearHighlightedSource() {
	highlightedSourceCache.Clear()
}

// Stylesheets for the source view, one per chroma style name. They never
// change while the process runs, so entries are not evicted.
var syntaxCSSCache = NewCache[string, template.CSS]()

func GetSyntaxCSS(style string) (template.CSS, bool) {
	return syntaxCSSCache.Get(style)
}

func SetSyntaxCSS(style string, css template.CSS) {
	syntaxCSSCache.Set(style, css)
}

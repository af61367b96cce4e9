package texmath

import (
	"container/list"
	"sync"

	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// Cache defaults.
const (
	DefaultCacheSize    = 128
	MaxCacheEntryLength = 5000
)

// parseCache is a bounded LRU keyed by (source, flags). Inputs longer
// than MaxCacheEntryLength bypass the cache entirely.
type parseCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	key  string
	expr ast.Expr
}

func newParseCache(capacity int) *parseCache {
	return &parseCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (c *parseCache) get(key string) (ast.Expr, bool) {
	if c.capacity <= 0 || len(key) > MaxCacheEntryLength {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).expr, true
}

func (c *parseCache) put(key string, expr ast.Expr) {
	if c.capacity <= 0 || len(key) > MaxCacheEntryLength {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).expr = expr
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{key: key, expr: expr})
	c.entries[key] = el
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *parseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

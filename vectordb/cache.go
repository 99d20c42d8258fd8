package vectordb

import (
	"container/list"
	"sync"

	"github.com/viant/gds/tree/cover"
)

type cacheEntry struct {
	key   string
	point *cover.Point
}

// queryCache is a bounded MRU cache of query embedding vectors.
type queryCache struct {
	maxEntries int
	elements   map[string]*list.Element
	order      *list.List
	mu         sync.Mutex
}

func newQueryCache(maxEntries int) *queryCache {
	return &queryCache{
		maxEntries: maxEntries,
		elements:   make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *queryCache) Get(key string) (*cover.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, found := c.elements[key]; found {
		c.order.MoveToFront(elem)
		return elem.Value.(*cacheEntry).point, true
	}
	return nil, false
}

func (c *queryCache) Put(key string, point *cover.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, found := c.elements[key]; found {
		elem.Value.(*cacheEntry).point = point
		c.order.MoveToFront(elem)
		return
	}
	if c.order.Len() >= c.maxEntries {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.elements, oldest.Value.(*cacheEntry).key)
		}
	}
	c.elements[key] = c.order.PushFront(&cacheEntry{key: key, point: point})
}

package dedup

import (
	"container/list"

	"go.uber.org/zap"
)

// lruEntry is the element payload stored in the recency list
type lruEntry struct {
	key    string
	record *Record
}

// LRUCache is a bounded key→record store with least-recently-used eviction.
// Get and Put refresh recency; inserting a new key at capacity evicts the
// least recently used entry first. Not safe for concurrent use; the detector
// serializes access.
type LRUCache struct {
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	logger   *zap.Logger
}

// NewLRUCache creates a bounded cache with the given capacity
func NewLRUCache(capacity int, logger *zap.Logger) *LRUCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRUCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		logger:   logger,
	}
}

// Get retrieves the record for key and marks it most recently used
func (c *LRUCache) Get(key string) (*Record, bool) {
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruEntry).record, true
}

// Put inserts or overwrites the record for key. Overwriting refreshes
// recency; inserting a new key at capacity evicts the LRU entry first.
func (c *LRUCache) Put(key string, record *Record) {
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*lruEntry).record = record
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			evicted := oldest.Value.(*lruEntry)
			c.order.Remove(oldest)
			delete(c.entries, evicted.key)
			if c.logger != nil {
				c.logger.Debug("Cache full, evicted LRU entry", zap.String("key", evicted.key))
			}
		}
	}

	c.entries[key] = c.order.PushFront(&lruEntry{key: key, record: record})
}

// Remove deletes the record for key if present
func (c *LRUCache) Remove(key string) {
	if elem, ok := c.entries[key]; ok {
		c.order.Remove(elem)
		delete(c.entries, key)
	}
}

// Keys returns a snapshot of all keys, most recently used first. The
// snapshot tolerates removals while iterating over it.
func (c *LRUCache) Keys() []string {
	keys := make([]string, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*lruEntry).key)
	}
	return keys
}

// Peek retrieves the record for key without refreshing recency
func (c *LRUCache) Peek(key string) (*Record, bool) {
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return elem.Value.(*lruEntry).record, true
}

// Len returns the number of cached records
func (c *LRUCache) Len() int {
	return c.order.Len()
}

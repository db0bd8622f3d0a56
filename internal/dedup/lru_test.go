package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRecord(id string) *Record {
	return &Record{ID: id, Sender: id + "@example.com"}
}

func TestLRUCachePutGet(t *testing.T) {
	cache := NewLRUCache(3, zap.NewNop())

	cache.Put("a", newTestRecord("a"))
	cache.Put("b", newTestRecord("b"))

	got, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)

	_, ok = cache.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, cache.Len())
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewLRUCache(2, zap.NewNop())

	cache.Put("a", newTestRecord("a"))
	cache.Put("b", newTestRecord("b"))

	// Touch "a" so "b" becomes the eviction candidate
	_, ok := cache.Get("a")
	require.True(t, ok)

	cache.Put("c", newTestRecord("c"))

	assert.Equal(t, 2, cache.Len())
	_, ok = cache.Get("b")
	assert.False(t, ok)
	_, ok = cache.Get("a")
	assert.True(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)
}

func TestLRUCacheOverwriteRefreshesRecency(t *testing.T) {
	cache := NewLRUCache(2, zap.NewNop())

	cache.Put("a", newTestRecord("a"))
	cache.Put("b", newTestRecord("b"))
	cache.Put("a", newTestRecord("a2"))

	// "b" is now least recently used and should be evicted
	cache.Put("c", newTestRecord("c"))

	_, ok := cache.Get("b")
	assert.False(t, ok)

	got, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a2", got.ID)
	assert.Equal(t, 2, cache.Len())
}

func TestLRUCacheKeysMostRecentFirst(t *testing.T) {
	cache := NewLRUCache(3, zap.NewNop())

	cache.Put("a", newTestRecord("a"))
	cache.Put("b", newTestRecord("b"))
	cache.Put("c", newTestRecord("c"))
	cache.Get("a")

	assert.Equal(t, []string{"a", "c", "b"}, cache.Keys())
}

func TestLRUCachePeekDoesNotRefresh(t *testing.T) {
	cache := NewLRUCache(2, zap.NewNop())

	cache.Put("a", newTestRecord("a"))
	cache.Put("b", newTestRecord("b"))

	_, ok := cache.Peek("a")
	require.True(t, ok)

	// "a" is still least recently used despite the peek
	cache.Put("c", newTestRecord("c"))
	_, ok = cache.Peek("a")
	assert.False(t, ok)
}

func TestLRUCacheRemove(t *testing.T) {
	cache := NewLRUCache(2, zap.NewNop())

	cache.Put("a", newTestRecord("a"))
	cache.Remove("a")
	cache.Remove("never-existed")

	assert.Equal(t, 0, cache.Len())
	_, ok := cache.Get("a")
	assert.False(t, ok)
}

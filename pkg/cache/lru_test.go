package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	lru := NewLRUCache(2)
	lru.Put("a", &Entry{Collection: "products"})
	lru.Put("b", &Entry{Collection: "categories"})

	// touching a makes b the eviction candidate
	_, ok := lru.Get("a")
	require.True(t, ok)
	lru.Put("c", &Entry{Collection: "orders"})

	_, ok = lru.Get("b")
	assert.False(t, ok)
	_, ok = lru.Get("a")
	assert.True(t, ok)
	_, ok = lru.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, lru.Len())
}

func TestLRUCache_PutReplacesAndOldestOrder(t *testing.T) {
	lru := NewLRUCache(3)
	lru.Put("a", &Entry{Collection: "a"})
	lru.Put("b", &Entry{Collection: "b"})
	lru.Put("a", &Entry{Collection: "a2"})

	oldest := lru.Oldest()
	require.Len(t, oldest, 2)
	assert.Equal(t, "b", oldest[0].Collection)
	assert.Equal(t, "a2", oldest[1].Collection)

	lru.Remove("b")
	assert.Equal(t, 1, lru.Len())
}

func TestLRUCache_AccessCount(t *testing.T) {
	lru := NewLRUCache(1)
	lru.Put("a", &Entry{})
	lru.Get("a")
	entry, _ := lru.Get("a")
	assert.Equal(t, int64(2), entry.AccessCount)
}

func TestLRUCache_Update(t *testing.T) {
	lru := NewLRUCache(2)
	lru.Put("a", &Entry{Collection: "a"})
	lru.Put("b", &Entry{Collection: "b"})

	assert.False(t, lru.Update("missing", func(e *Entry) *Entry { return &Entry{} }))
	assert.False(t, lru.Update("a", func(e *Entry) *Entry { return nil }))

	changed := lru.Update("a", func(e *Entry) *Entry {
		return &Entry{Collection: e.Collection + "2"}
	})
	assert.True(t, changed)

	// recency is untouched, a is still the eviction candidate
	oldest := lru.Oldest()
	require.Len(t, oldest, 2)
	assert.Equal(t, "a2", oldest[0].Collection)
}

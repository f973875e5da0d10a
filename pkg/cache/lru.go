package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// Entry is one cached read result.
type Entry struct {
	Collection  string
	Fingerprint string
	Documents   []domain.Document
	StoredAt    time.Time
	AccessCount int64
}

type cacheEntry struct {
	key   string
	entry *Entry
}

// LRUCache holds the most recently used read results.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	list     *list.List
	cache    map[string]*list.Element
}

func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRUCache{
		capacity: capacity,
		list:     list.New(),
		cache:    make(map[string]*list.Element),
	}
}

func (lru *LRUCache) Get(key string) (*Entry, bool) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	if element, exists := lru.cache[key]; exists {
		ce := element.Value.(*cacheEntry)
		lru.list.MoveToFront(element)
		ce.entry.AccessCount++
		return ce.entry, true
	}
	return nil, false
}

func (lru *LRUCache) Put(key string, entry *Entry) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	if element, exists := lru.cache[key]; exists {
		element.Value.(*cacheEntry).entry = entry
		lru.list.MoveToFront(element)
		return
	}

	element := lru.list.PushFront(&cacheEntry{key: key, entry: entry})
	lru.cache[key] = element

	if lru.list.Len() > lru.capacity {
		lru.evictOldest()
	}
}

func (lru *LRUCache) evictOldest() {
	element := lru.list.Back()
	if element != nil {
		ce := element.Value.(*cacheEntry)
		delete(lru.cache, ce.key)
		lru.list.Remove(element)
	}
}

// Update replaces the entry under key with fn's result while holding the lock,
// so concurrent updates of one entry cannot lose each other. A nil result
// leaves the entry as it was. Recency is not changed.
func (lru *LRUCache) Update(key string, fn func(*Entry) *Entry) bool {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	element, exists := lru.cache[key]
	if !exists {
		return false
	}
	ce := element.Value.(*cacheEntry)
	next := fn(ce.entry)
	if next == nil {
		return false
	}
	ce.entry = next
	return true
}

func (lru *LRUCache) Remove(key string) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	if element, exists := lru.cache[key]; exists {
		delete(lru.cache, key)
		lru.list.Remove(element)
	}
}

// Oldest returns entries from least to most recently used.
func (lru *LRUCache) Oldest() []*Entry {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	entries := make([]*Entry, 0, lru.list.Len())
	for element := lru.list.Back(); element != nil; element = element.Prev() {
		entries = append(entries, element.Value.(*cacheEntry).entry)
	}
	return entries
}

func (lru *LRUCache) Capacity() int {
	return lru.capacity
}

func (lru *LRUCache) Len() int {
	lru.mu.Lock()
	defer lru.mu.Unlock()
	return lru.list.Len()
}

package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// DefaultCapacity is the number of distinct read results kept.
const DefaultCapacity = 256

// Cache keeps the last successful result of each read so that a read can still
// be answered while the store is unreachable.
type Cache struct {
	lru   *LRUCache
	dirty atomic.Bool

	snapshotPath string
	saveInterval time.Duration
	backgroundWg sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
}

func New(capacity int, opts ...Option) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{
		lru:      NewLRUCache(capacity),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(collection, fingerprint string) string {
	return collection + "|" + fingerprint
}

// Observe records a successful read result.
func (c *Cache) Observe(collection string, q domain.Query, docs []domain.Document) {
	c.lru.Put(cacheKey(collection, q.Fingerprint()), &Entry{
		Collection:  collection,
		Fingerprint: q.Fingerprint(),
		Documents:   domain.CloneAll(docs),
		StoredAt:    time.Now(),
	})
	c.dirty.Store(true)
}

// Lookup returns the cached result for the query. When the exact query was
// never seen, an unfiltered result for the collection is narrowed instead.
func (c *Cache) Lookup(collection string, q domain.Query) ([]domain.Document, time.Time, bool) {
	if entry, ok := c.lru.Get(cacheKey(collection, q.Fingerprint())); ok {
		return domain.CloneAll(entry.Documents), entry.StoredAt, true
	}

	whole := domain.Query{}
	if q.Fingerprint() == whole.Fingerprint() {
		return nil, time.Time{}, false
	}
	entry, ok := c.lru.Get(cacheKey(collection, whole.Fingerprint()))
	if !ok {
		return nil, time.Time{}, false
	}
	return domain.CloneAll(domain.ApplyQuery(entry.Documents, q)), entry.StoredAt, true
}

// LookupOne finds a document by identity in any cached result of the collection.
func (c *Cache) LookupOne(collection, id string) (domain.Document, time.Time, bool) {
	for _, entry := range c.entriesFor(collection) {
		for _, doc := range entry.Documents {
			if doc.ID() == id {
				return doc.Clone(), entry.StoredAt, true
			}
		}
	}
	return nil, time.Time{}, false
}

// Patch reflects a successful write in every cached result that holds the
// document. A nil doc removes it. A document the unfiltered result of the
// collection does not hold yet is appended to it; filtered results are left
// alone since there is no telling whether the new document matches.
func (c *Cache) Patch(collection, id string, doc domain.Document) {
	whole := domain.Query{}.Fingerprint()
	for _, entry := range c.entriesFor(collection) {
		appendMissing := doc != nil && entry.Fingerprint == whole
		changed := c.lru.Update(cacheKey(entry.Collection, entry.Fingerprint), func(current *Entry) *Entry {
			return patched(current, id, doc, appendMissing)
		})
		if changed {
			c.dirty.Store(true)
		}
	}
}

// patched returns a copy of e with the document replaced, removed or
// appended, or nil when e is unaffected.
func patched(e *Entry, id string, doc domain.Document, appendMissing bool) *Entry {
	updated := make([]domain.Document, 0, len(e.Documents)+1)
	found := false
	for _, existing := range e.Documents {
		if existing.ID() != id {
			updated = append(updated, existing)
			continue
		}
		found = true
		if doc != nil {
			updated = append(updated, doc.Clone())
		}
	}
	if !found {
		if !appendMissing {
			return nil
		}
		updated = append(updated, doc.Clone())
	}
	return &Entry{
		Collection:  e.Collection,
		Fingerprint: e.Fingerprint,
		Documents:   updated,
		StoredAt:    e.StoredAt,
		AccessCount: e.AccessCount,
	}
}

// entriesFor returns the collection's entries, most recently used first.
func (c *Cache) entriesFor(collection string) []*Entry {
	all := c.lru.Oldest()
	var out []*Entry
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Collection == collection {
			out = append(out, all[i])
		}
	}
	return out
}

func (c *Cache) Len() int {
	return c.lru.Len()
}

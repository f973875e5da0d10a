package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

type memoryEntry struct {
	seq int64
	doc domain.Document
}

// MemoryStore keeps collections in process memory. It backs the "memory"
// backend and tests; Close is a no-op so data survives a reconnect.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*memoryEntry
	seq         int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]*memoryEntry)}
}

func (m *MemoryStore) Find(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify("find", err)
	}
	m.mu.RLock()
	entries := make([]*memoryEntry, 0, len(m.collections[collection]))
	for _, e := range m.collections[collection] {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	docs := make([]domain.Document, len(entries))
	for i, e := range entries {
		docs[i] = e.doc.Clone()
	}
	return domain.ApplyQuery(docs, q), nil
}

func (m *MemoryStore) FindOne(ctx context.Context, collection, id string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify("find_one", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.collections[collection][id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "find_one", "document %s not found in %s", id, collection)
	}
	return e.doc.Clone(), nil
}

func (m *MemoryStore) Insert(ctx context.Context, collection string, doc domain.Document, opts domain.WriteOptions) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify("insert", err)
	}
	id := doc.ID()
	if id == "" {
		return nil, domain.Errorf(domain.KindValidation, "insert", "document has no identity")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	stored := doc.Clone()
	stored[domain.IDField] = id
	coll := m.collection(collection)
	m.clearExclusive(coll, id, stored, opts.Exclusive)
	if existing, ok := coll[id]; ok {
		existing.doc = stored
	} else {
		m.seq++
		coll[id] = &memoryEntry{seq: m.seq, doc: stored}
	}
	return stored.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, changes domain.Document, opts domain.WriteOptions) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify("update", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.collections[collection]
	e, ok := coll[id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "update", "document %s not found in %s", id, collection)
	}
	if err := opts.Check(); err != nil {
		return nil, err
	}

	merged := e.doc.Merge(changes)
	m.clearExclusive(coll, id, merged, opts.Exclusive)
	e.doc = merged
	return merged.Clone(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string, opts domain.WriteOptions) error {
	if err := ctx.Err(); err != nil {
		return Classify("delete", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.collections[collection]
	if _, ok := coll[id]; !ok {
		return domain.Errorf(domain.KindNotFound, "delete", "document %s not found in %s", id, collection)
	}
	if err := opts.Check(); err != nil {
		return err
	}
	delete(coll, id)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return Classify("ping", ctx.Err())
}

func (m *MemoryStore) Close() error {
	return nil
}

// collection must be called with m.mu held for writing.
func (m *MemoryStore) collection(name string) map[string]*memoryEntry {
	coll, ok := m.collections[name]
	if !ok {
		coll = make(map[string]*memoryEntry)
		m.collections[name] = coll
	}
	return coll
}

// clearExclusive must be called with m.mu held for writing; the store lock is
// the invariant lock for this backend.
func (m *MemoryStore) clearExclusive(coll map[string]*memoryEntry, id string, doc domain.Document, field string) {
	if field == "" || !isTrue(doc[field]) {
		return
	}
	for otherID, e := range coll {
		if otherID == id || !isTrue(e.doc[field]) {
			continue
		}
		cleared := e.doc.Clone()
		cleared[field] = false
		e.doc = cleared
	}
}

func isTrue(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}

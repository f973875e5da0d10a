package domain

import "context"

// WriteOptions adjust how a store applies a mutation.
type WriteOptions struct {
	// Guard runs inside the write's transaction right before it commits. A non-nil
	// error aborts the write.
	Guard func() error
	// Exclusive names a boolean field that may be true on at most one document of
	// the collection. Writing the field as true clears it everywhere else in the
	// same transaction.
	Exclusive string
}

// Check runs the guard if one is set.
func (o WriteOptions) Check() error {
	if o.Guard == nil {
		return nil
	}
	return o.Guard()
}

// Store is the backing document store. Implementations return errors already
// converted to the StoreError taxonomy.
type Store interface {
	Find(ctx context.Context, collection string, q Query) ([]Document, error)
	FindOne(ctx context.Context, collection, id string) (Document, error)
	// Insert creates or replaces the document keyed by its identity, so that
	// replaying the same write is harmless.
	Insert(ctx context.Context, collection string, doc Document, opts WriteOptions) (Document, error)
	Update(ctx context.Context, collection, id string, changes Document, opts WriteOptions) (Document, error)
	Delete(ctx context.Context, collection, id string, opts WriteOptions) error
	Ping(ctx context.Context) error
	Close() error
}

// Opener establishes the shared, pooled store connection.
type Opener func(ctx context.Context) (Store, error)

// Dialer opens a supplementary single connection for direct access. The returned
// release function must be called on every exit path.
type Dialer func(ctx context.Context) (Store, func(), error)

package fallback

import (
	"context"

	"github.com/Avinash9608/Furniture-sub003/pkg/cache"
	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/Avinash9608/Furniture-sub003/pkg/mock"
	"github.com/Avinash9608/Furniture-sub003/pkg/store"
)

// Strategy kinds accepted in policy files.
const (
	KindPrimary = "primary"
	KindDirect  = "direct"
	KindCache   = "cache"
	KindMock    = "mock"
)

func generationGuard(h *store.Handle, gen uint64, op string) func() error {
	return func() error {
		if current := h.Generation(); current != gen {
			return domain.Errorf(domain.KindStaleHandle, op, "handle generation moved from %d to %d", gen, current)
		}
		return nil
	}
}

// PrimaryRun uses the shared handle. Connectivity failures mark the handle's
// current generation degraded so the monitor re-verifies it.
func PrimaryRun(h *store.Handle) RunFunc {
	return func(ctx context.Context, op domain.Operation) (interface{}, error) {
		st, gen, err := h.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		opts := domain.WriteOptions{
			Guard:     generationGuard(h, gen, op.String()),
			Exclusive: op.Exclusive(),
		}
		raw, err := Apply(ctx, st, op, opts)
		if err != nil {
			err = store.Classify(string(op.Verb()), err)
			if domain.KindOf(err).IsConnectivity() {
				h.MarkDegraded(gen, err)
			}
			return nil, err
		}
		return raw, nil
	}
}

// DirectRun opens a supplementary connection for the single operation and
// releases it on every exit path.
func DirectRun(h *store.Handle) RunFunc {
	return func(ctx context.Context, op domain.Operation) (interface{}, error) {
		gen := h.Generation()
		st, release, err := h.OpenDirect(ctx)
		if err != nil {
			return nil, err
		}
		defer release()

		opts := domain.WriteOptions{
			Guard:     generationGuard(h, gen, op.String()),
			Exclusive: op.Exclusive(),
		}
		raw, err := Apply(ctx, st, op, opts)
		if err != nil {
			return nil, store.Classify(string(op.Verb()), err)
		}
		return raw, nil
	}
}

// CacheRun answers reads from the last known good results.
func CacheRun(c *cache.Cache) RunFunc {
	return func(ctx context.Context, op domain.Operation) (interface{}, error) {
		switch op.Verb() {
		case domain.VerbRead:
			if docs, _, ok := c.Lookup(op.Collection(), op.Query()); ok {
				return docs, nil
			}
		case domain.VerbReadOne:
			if doc, _, ok := c.LookupOne(op.Collection(), op.ID()); ok {
				return doc, nil
			}
		}
		return nil, domain.Errorf(domain.KindStoreUnavailable, KindCache, "no cached result for %s", op)
	}
}

// MockRun answers reads from the built-in catalogue.
func MockRun(f *mock.Fixtures) RunFunc {
	return func(ctx context.Context, op domain.Operation) (interface{}, error) {
		switch op.Verb() {
		case domain.VerbRead:
			if docs, ok := f.Find(op.Collection(), op.Query()); ok {
				return docs, nil
			}
		case domain.VerbReadOne:
			if doc, ok := f.FindOne(op.Collection(), op.ID()); ok {
				return doc, nil
			}
		}
		return nil, domain.Errorf(domain.KindStoreUnavailable, KindMock, "no built-in data for %s", op)
	}
}

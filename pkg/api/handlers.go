package api

import (
	"context"

	"github.com/Avinash9608/Furniture-sub003/pkg/config"
	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/Avinash9608/Furniture-sub003/pkg/identity"
	"github.com/Avinash9608/Furniture-sub003/pkg/pending"
	"github.com/Avinash9608/Furniture-sub003/pkg/store"
)

// Executor runs an operation descriptor and always returns an envelope.
type Executor interface {
	Execute(ctx context.Context, op domain.Operation) domain.Envelope
}

// StatusReporter exposes the store handle state for the health endpoint.
type StatusReporter interface {
	Status() store.Status
}

// PendingLister exposes queued writes.
type PendingLister interface {
	Pending() []pending.Record
	Len() int
}

// PendingReplayer applies queued writes on demand.
type PendingReplayer interface {
	ReplayPending(ctx context.Context) (pending.ReplayResult, error)
}

// Handler provides HTTP handlers for the furniture store API
type Handler struct {
	executor    Executor
	collections map[string]config.CollectionConfig
	assigner    *identity.Assigner
	status      StatusReporter
	queue       PendingLister
	replayer    PendingReplayer
}

// NewHandler creates a new API handler. Only the given collections are
// routed; status and queue may be nil.
func NewHandler(executor Executor, collections map[string]config.CollectionConfig, status StatusReporter, queue PendingLister) *Handler {
	slugs := make(map[string]string)
	for name, cc := range collections {
		if cc.SlugFrom != "" {
			slugs[name] = cc.SlugFrom
		}
	}
	return &Handler{
		executor:    executor,
		collections: collections,
		assigner:    identity.NewAssigner(slugs),
		status:      status,
		queue:       queue,
	}
}

// SetReplayer enables POST /pending/replay.
func (h *Handler) SetReplayer(r PendingReplayer) {
	h.replayer = r
}

// collection reports whether name is routed and returns its rules.
func (h *Handler) collection(name string) (config.CollectionConfig, bool) {
	cc, ok := h.collections[name]
	return cc, ok
}

package pending

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// RecordType distinguishes queued writes from their reconciliation markers.
type RecordType string

const (
	RecordPending    RecordType = "pending"
	RecordReconciled RecordType = "reconciled"
)

// Outcome says how a queued write was reconciled.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
)

// Record is one line of the pending-write log.
type Record struct {
	LSN       int64             `json:"lsn"`
	Type      RecordType        `json:"type"`
	Key       string            `json:"key"`
	Operation *domain.Operation `json:"operation,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Attempts  []domain.Attempt  `json:"attempts,omitempty"`
	Ref       int64             `json:"ref,omitempty"` // LSN of the reconciled record
	Outcome   Outcome           `json:"outcome,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Checksum  uint32            `json:"checksum"`
}

// ApplyFunc performs a queued write against the store.
type ApplyFunc func(ctx context.Context, op domain.Operation) error

// ReplayResult summarises one replay pass.
type ReplayResult struct {
	Applied   int `json:"applied"`
	Rejected  int `json:"rejected"`
	Remaining int `json:"remaining"`
}

// Log is an append-only file of writes that could not reach the store.
type Log struct {
	mu       sync.RWMutex
	replayMu sync.Mutex

	path    string
	file    *os.File
	lock    *flock.Flock
	fsync   bool
	nextLSN int64

	// unreconciled records keyed by LSN
	pending map[int64]*Record
	// newest unreconciled LSN per document, see documentKey
	latest     map[string]int64
	reconciled int
}

// documentKey names the document a queued write targets. An insert without
// an identity has no document yet, so it stands for itself.
func documentKey(op *domain.Operation) string {
	if op.ID() == "" {
		return op.Key()
	}
	return op.Collection() + "/" + op.ID()
}

// Package store owns the connection to the backing document store: the
// lifecycle-managed Handle shared by every operation, the backends it can open,
// and the conversion of driver errors into the domain error taxonomy.
package store

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// State is the connection state of a Handle.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Degraded
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Degraded:
		return "Degraded"
	}
	return "Unknown"
}

// Status is a point-in-time view of a Handle for health reporting.
type Status struct {
	State       State
	Generation  uint64
	LastError   domain.ErrorKind
	LastChange  time.Time
	ConnectedAt time.Time
}

// Handle is the single owned connection to the backing store. It connects
// lazily, reconnects on demand, and bumps its generation on every successful
// (re)connect so writes started against an older connection can be detected.
type Handle struct {
	opener domain.Opener
	dialer domain.Dialer

	connectTimeout time.Duration
	waitBudget     time.Duration

	mu          sync.Mutex
	state       State
	store       domain.Store
	generation  uint64
	lastErr     error
	lastChange  time.Time
	connectedAt time.Time
	connecting  chan struct{} // closed when the in-flight connect finishes
	closed      bool
}

// NewHandle creates a Handle in the Disconnected state. Nothing is opened until
// the first Connect or EnsureConnected.
func NewHandle(opener domain.Opener, dialer domain.Dialer, options ...HandleOption) *Handle {
	h := &Handle{
		opener:         opener,
		dialer:         dialer,
		connectTimeout: 5 * time.Second,
		waitBudget:     2 * time.Second,
		state:          Disconnected,
		lastChange:     time.Now(),
	}
	for _, option := range options {
		option(h)
	}
	return h
}

// Connect opens a fresh connection within the connect timeout, replacing any
// existing one. Failures leave the handle Disconnected and are returned as a
// classified StoreError; they are never fatal.
func (h *Handle) Connect(ctx context.Context) error {
	return h.connect(ctx, 0, true)
}

// connect opens a new connection. Unless force is set, it returns early when
// another caller already connected after observedGen was read.
func (h *Handle) connect(ctx context.Context, observedGen uint64, force bool) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return domain.Errorf(domain.KindStoreUnavailable, "connect", "handle is closed")
	}
	if h.state == Connecting {
		wait := h.connecting
		h.mu.Unlock()
		return h.waitForConnect(ctx, wait)
	}
	if !force && h.state == Connected && h.generation != observedGen {
		h.mu.Unlock()
		return nil
	}

	done := make(chan struct{})
	h.connecting = done
	old := h.store
	h.store = nil
	h.setState(Connecting)
	h.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			log.Printf("WARN: Closing previous store connection failed: %v", err)
		}
	}

	cctx, cancel := context.WithTimeout(ctx, h.connectTimeout)
	s, err := h.opener(cctx)
	if err == nil {
		if err = s.Ping(cctx); err != nil {
			s.Close()
		}
	}
	cancel()

	h.mu.Lock()
	defer func() {
		h.connecting = nil
		close(done)
		h.mu.Unlock()
	}()

	if err != nil {
		classified := Classify("connect", err)
		h.lastErr = classified
		h.setState(Disconnected)
		log.Printf("WARN: Store connect failed (%s): %v", domain.KindOf(classified), err)
		return classified
	}
	if h.closed {
		s.Close()
		h.setState(Disconnected)
		return domain.Errorf(domain.KindStoreUnavailable, "connect", "handle closed during connect")
	}

	h.store = s
	h.generation++
	h.lastErr = nil
	h.connectedAt = time.Now()
	h.setState(Connected)
	log.Printf("INFO: Store connected (generation %d)", h.generation)
	return nil
}

// EnsureConnected returns immediately when Connected, verifies a Degraded
// connection, waits a bounded time for an in-flight connect, and otherwise
// makes one connect attempt.
func (h *Handle) EnsureConnected(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return domain.Errorf(domain.KindStoreUnavailable, "ensure", "handle is closed")
	}
	state, gen := h.state, h.generation
	switch state {
	case Connected:
		h.mu.Unlock()
		return nil
	case Connecting:
		wait := h.connecting
		h.mu.Unlock()
		return h.waitForConnect(ctx, wait)
	case Degraded:
		s := h.store
		h.mu.Unlock()
		if s != nil && h.verify(ctx, s, gen) == nil {
			return nil
		}
		return h.connect(ctx, gen, false)
	default:
		h.mu.Unlock()
		return h.connect(ctx, gen, false)
	}
}

// Acquire ensures a connection and returns the shared store together with the
// generation it belongs to.
func (h *Handle) Acquire(ctx context.Context) (domain.Store, uint64, error) {
	if err := h.EnsureConnected(ctx); err != nil {
		return nil, 0, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.store == nil {
		return nil, 0, domain.Errorf(domain.KindStoreUnavailable, "acquire", "store lost after connect")
	}
	return h.store, h.generation, nil
}

// OpenDirect opens a supplementary single connection for direct access. The
// caller must invoke release on every exit path.
func (h *Handle) OpenDirect(ctx context.Context) (domain.Store, func(), error) {
	if h.dialer == nil {
		return nil, nil, domain.Errorf(domain.KindStoreUnavailable, "direct", "no direct dialer configured")
	}
	cctx, cancel := context.WithTimeout(ctx, h.connectTimeout)
	defer cancel()
	s, release, err := h.dialer(cctx)
	if err != nil {
		return nil, nil, Classify("direct", err)
	}
	if release == nil {
		release = func() {}
	}
	return s, release, nil
}

// Generation returns the connect counter. It only ever increases.
func (h *Handle) Generation() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.generation
}

// State returns the current connection state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Status returns a snapshot for health reporting.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Status{
		State:       h.state,
		Generation:  h.generation,
		LastError:   domain.KindOf(h.lastErr),
		LastChange:  h.lastChange,
		ConnectedAt: h.connectedAt,
	}
}

// MarkDegraded records a connectivity failure observed by an operation running
// on generation gen. Reports about older generations are ignored.
func (h *Handle) MarkDegraded(gen uint64, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.generation != gen || h.state != Connected {
		return
	}
	h.lastErr = err
	h.setState(Degraded)
	log.Printf("WARN: Store marked degraded (generation %d): %v", gen, err)
}

// Ping verifies the current connection, moving between Connected and Degraded.
func (h *Handle) Ping(ctx context.Context) error {
	h.mu.Lock()
	s, gen, state := h.store, h.generation, h.state
	h.mu.Unlock()
	if s == nil || (state != Connected && state != Degraded) {
		return domain.Errorf(domain.KindStoreUnavailable, "ping", "not connected")
	}
	return h.verify(ctx, s, gen)
}

// Close releases the shared connection. The handle cannot be reused.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	s := h.store
	h.store = nil
	h.setState(Disconnected)
	h.mu.Unlock()

	if s != nil {
		if err := s.Close(); err != nil {
			return Classify("close", err)
		}
	}
	return nil
}

func (h *Handle) verify(ctx context.Context, s domain.Store, gen uint64) error {
	cctx, cancel := context.WithTimeout(ctx, h.connectTimeout)
	defer cancel()
	err := s.Ping(cctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.generation != gen {
		return nil
	}
	if err != nil {
		classified := Classify("ping", err)
		h.lastErr = classified
		if h.state == Connected {
			h.setState(Degraded)
		}
		return classified
	}
	if h.state == Degraded {
		h.lastErr = nil
		h.setState(Connected)
	}
	return nil
}

func (h *Handle) waitForConnect(ctx context.Context, wait chan struct{}) error {
	if wait != nil {
		timer := time.NewTimer(h.waitBudget)
		defer timer.Stop()
		select {
		case <-wait:
		case <-timer.C:
			return domain.Errorf(domain.KindConnectTimeout, "ensure", "connect still in progress after %v", h.waitBudget)
		case <-ctx.Done():
			return Classify("ensure", ctx.Err())
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Connected {
		return nil
	}
	if h.lastErr != nil {
		return h.lastErr
	}
	return domain.NewError(domain.KindStoreUnavailable, "ensure", errors.New("store not connected"))
}

// setState must be called with h.mu held.
func (h *Handle) setState(s State) {
	if h.state != s {
		h.state = s
		h.lastChange = time.Now()
	}
}

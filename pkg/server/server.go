package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Avinash9608/Furniture-sub003/pkg/api"
	"github.com/Avinash9608/Furniture-sub003/pkg/cache"
	"github.com/Avinash9608/Furniture-sub003/pkg/config"
	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/Avinash9608/Furniture-sub003/pkg/fallback"
	"github.com/Avinash9608/Furniture-sub003/pkg/mock"
	"github.com/Avinash9608/Furniture-sub003/pkg/pending"
	"github.com/Avinash9608/Furniture-sub003/pkg/store"
)

// replayPassTimeout bounds one replay pass so a store that hangs mid-replay
// cannot stall the monitor.
const replayPassTimeout = 30 * time.Second

// Server owns the store handle and every component built around it.
type Server struct {
	cfg      config.Config
	router   *mux.Router
	handle   *store.Handle
	cache    *cache.Cache
	journal  *pending.Log
	executor *fallback.Executor
	monitor  *store.Monitor
}

// Option configures a Server
type Option func(*options)

type options struct {
	policy   *fallback.Policy
	fixtures *mock.Fixtures
	opener   domain.Opener
	dialer   domain.Dialer
}

// WithPolicy overrides the policy file named in the config.
func WithPolicy(p fallback.Policy) Option {
	return func(o *options) {
		o.policy = &p
	}
}

// WithFixtures replaces the built-in last-resort catalogue.
func WithFixtures(f *mock.Fixtures) Option {
	return func(o *options) {
		o.fixtures = f
	}
}

// WithStore bypasses the configured backend.
func WithStore(opener domain.Opener, dialer domain.Dialer) Option {
	return func(o *options) {
		o.opener = opener
		o.dialer = dialer
	}
}

// New creates a server. It does not connect to the store; call Start.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	opener, dialer := o.opener, o.dialer
	if opener == nil {
		var err error
		opener, dialer, err = store.Open(store.Backend{
			Kind:     cfg.Store.Backend,
			DSN:      cfg.Store.DSN,
			DataDir:  cfg.Store.DataDir,
			MaxConns: cfg.Store.MaxConns,
		})
		if err != nil {
			return nil, err
		}
	}

	policy := o.policy
	if policy == nil {
		p, err := fallback.LoadPolicy(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		policy = &p
	}
	fixtures := o.fixtures
	if fixtures == nil {
		fixtures = mock.Default()
	}
	for _, name := range cfg.CollectionNames() {
		if !fixtures.Has(name) {
			log.Printf("WARN: Collection '%s' has no built-in data; reads fail while the store and cache are empty", name)
		}
	}

	journal, err := pending.Open(cfg.PendingLogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open pending log: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
		handle: store.NewHandle(opener, dialer,
			store.WithConnectTimeout(cfg.Store.ConnectTimeout),
			store.WithWaitBudget(cfg.Store.WaitBudget),
		),
		cache:   cache.New(cfg.Cache.Capacity, cache.WithSnapshot(cfg.SnapshotPath(), cfg.Cache.SnapshotInterval)),
		journal: journal,
	}

	s.executor, err = fallback.FromPolicy(*policy,
		fallback.Dependencies{Handle: s.handle, Cache: s.cache, Fixtures: fixtures},
		fallback.WithJournal(s.journal),
		fallback.WithObserver(s.cache),
	)
	if err != nil {
		journal.Close()
		return nil, err
	}
	s.monitor = store.NewMonitor(s.handle, cfg.HealthInterval,
		func(ctx context.Context) { s.replay(ctx) },
		func() bool { return s.journal.Len() > 0 },
	)

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	h := api.NewHandler(s.executor, s.cfg.Collections, s.handle, s.journal)
	h.SetReplayer(s)
	h.RegisterRoutes(s.router.PathPrefix(s.cfg.APIPrefix).Subrouter())

	// Use the logging middleware for all routes
	s.router.Use(api.RequestLogger)

	// Customize NotFoundHandler to log 404s
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("WARN: No route found for %s %s", r.Method, r.URL.Path)
		api.WriteJSONError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})
}

// Start restores the cache, makes the first connect attempt and starts the
// background workers. A store that is down at startup is not an error.
func (s *Server) Start(ctx context.Context) {
	s.cache.StartBackgroundWorkers()

	if err := s.handle.Connect(ctx); err != nil {
		log.Printf("WARN: Starting without a store connection: %v", err)
	} else {
		s.replay(ctx)
	}
	s.monitor.Start()
}

// Router exposes the HTTP handler. Path normalization runs before routing.
func (s *Server) Router() http.Handler {
	return api.PathNormalizer(s.cfg.APIPrefix, api.CORS(s.router, s.cfg.AllowedOrigins))
}

// Executor exposes the operation executor.
func (s *Server) Executor() *fallback.Executor {
	return s.executor
}

// Status returns the store handle state.
func (s *Server) Status() store.Status {
	return s.handle.Status()
}

// Pending returns the queued writes.
func (s *Server) Pending() []pending.Record {
	return s.journal.Pending()
}

// ReplayPending applies queued writes through the shared connection and
// compacts the log. Each pass is bounded by replayPassTimeout.
func (s *Server) ReplayPending(ctx context.Context) (pending.ReplayResult, error) {
	ctx, cancel := context.WithTimeout(ctx, replayPassTimeout)
	defer cancel()

	primary := fallback.PrimaryRun(s.handle)
	result, err := s.journal.Replay(ctx, func(ctx context.Context, op domain.Operation) error {
		raw, err := primary(ctx, op)
		if err != nil {
			return err
		}
		switch op.Verb() {
		case domain.VerbDelete:
			s.cache.Patch(op.Collection(), op.ID(), nil)
		default:
			if doc, ok := raw.(domain.Document); ok {
				s.cache.Patch(op.Collection(), op.ID(), doc)
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	if err := s.journal.Compact(); err != nil {
		log.Printf("WARN: Compacting pending log failed: %v", err)
	}
	return result, nil
}

func (s *Server) replay(ctx context.Context) {
	if s.journal.Len() == 0 {
		return
	}
	if _, err := s.ReplayPending(ctx); err != nil {
		log.Printf("WARN: Pending replay incomplete: %v", err)
	}
}

// Shutdown stops background workers, flushes the cache snapshot and closes
// the pending log and the store.
func (s *Server) Shutdown() {
	s.monitor.Stop()
	s.cache.StopBackgroundWorkers()
	if err := s.journal.Close(); err != nil {
		log.Printf("ERROR: Closing pending log failed: %v", err)
	}
	if err := s.handle.Close(); err != nil {
		log.Printf("ERROR: Closing store failed: %v", err)
	}
	log.Printf("INFO: Server components stopped")
}

package fallback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/Avinash9608/Furniture-sub003/pkg/normalize"
)

// Journal records writes that could not reach the store.
type Journal interface {
	Append(op domain.Operation, attempts []domain.Attempt) (bool, error)
}

// Observer is told about every successful store result so stale data can be
// served later.
type Observer interface {
	Observe(collection string, q domain.Query, docs []domain.Document)
	Patch(collection, id string, doc domain.Document)
}

// Default total budgets per operation category.
const (
	DefaultReadBudget  = 8 * time.Second
	DefaultWriteBudget = 10 * time.Second
)

// Executor runs operations through the configured strategies. Strategy lists
// are fixed at construction.
type Executor struct {
	reads       []Strategy
	writes      []Strategy
	readBudget  time.Duration
	writeBudget time.Duration
	journal     Journal
	observer    Observer
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithJournal sets where exhausted writes are queued.
func WithJournal(j Journal) ExecutorOption {
	return func(e *Executor) {
		e.journal = j
	}
}

// WithObserver sets the sink for successful store results.
func WithObserver(o Observer) ExecutorOption {
	return func(e *Executor) {
		e.observer = o
	}
}

// WithBudgets sets the total time allowed per read and per write.
func WithBudgets(read, write time.Duration) ExecutorOption {
	return func(e *Executor) {
		if read > 0 {
			e.readBudget = read
		}
		if write > 0 {
			e.writeBudget = write
		}
	}
}

func NewExecutor(reads, writes []Strategy, opts ...ExecutorOption) *Executor {
	e := &Executor{
		reads:       append([]Strategy(nil), reads...),
		writes:      append([]Strategy(nil), writes...),
		readBudget:  DefaultReadBudget,
		writeBudget: DefaultWriteBudget,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromPolicy builds an executor from a policy file's strategies and budgets.
func FromPolicy(p Policy, deps Dependencies, opts ...ExecutorOption) (*Executor, error) {
	reads, writes, err := p.Build(deps)
	if err != nil {
		return nil, err
	}
	opts = append([]ExecutorOption{WithBudgets(p.ReadBudget, p.WriteBudget)}, opts...)
	return NewExecutor(reads, writes, opts...), nil
}

// StrategyNames lists the configured strategies for a category, in order.
func (e *Executor) StrategyNames(c domain.Category) []string {
	list := e.reads
	if c == domain.CategoryWrite {
		list = e.writes
	}
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name
	}
	return names
}

// Execute runs op through the strategies for its category and returns the
// first successful result. Reads fall back to stale or built-in data. Writes
// that exhaust every strategy are queued in the journal and reported as
// failed.
func (e *Executor) Execute(ctx context.Context, op domain.Operation) domain.Envelope {
	if err := op.Validate(); err != nil {
		return failure(err, nil)
	}

	strategies, total := e.reads, e.readBudget
	if op.Category() == domain.CategoryWrite {
		strategies, total = e.writes, e.writeBudget
	}
	deadline := time.Now().Add(total)

	var attempts []domain.Attempt
	for _, s := range strategies {
		if ctx.Err() != nil {
			break
		}
		if !s.Applicable(op, attempts) {
			continue
		}

		budget := s.Budget
		if remaining := time.Until(deadline); remaining < budget || budget <= 0 {
			if remaining <= 0 && !s.LastResort {
				attempts = append(attempts, domain.Attempt{
					Strategy: s.Name,
					Kind:     domain.KindConnectTimeout,
					Message:  "operation budget exhausted",
				})
				continue
			}
			if remaining > 0 {
				budget = remaining
			}
		}

		start := time.Now()
		raw, err := e.run(ctx, s, op, budget)
		if err == nil {
			env, nerr := normalize.Envelope(op.Verb(), raw, s.Name)
			if nerr == nil {
				env.Attempts = append(attempts, domain.Attempt{Strategy: s.Name, Duration: time.Since(start)})
				return e.succeed(op, s, env)
			}
			err = nerr
		}

		kind := domain.KindOf(err)
		attempts = append(attempts, domain.Attempt{
			Strategy: s.Name,
			Kind:     kind,
			Message:  err.Error(),
			Duration: time.Since(start),
		})
		log.Printf("WARN: %s via %s failed after %v: %v", op, s.Name, time.Since(start).Round(time.Millisecond), err)

		switch kind {
		case domain.KindValidation, domain.KindCancelled:
			return failure(err, attempts)
		case domain.KindNotFound:
			// only Update and Delete get here; ReadOne reports a missing
			// document as an empty result
			return failure(err, attempts)
		}
	}

	if err := ctx.Err(); err != nil {
		return failure(domain.NewError(domain.KindCancelled, op.String(), err), attempts)
	}
	return e.exhausted(op, attempts)
}

func (e *Executor) succeed(op domain.Operation, s Strategy, env domain.Envelope) domain.Envelope {
	if s.LastResort {
		env.Degraded = true
		env.Message = fmt.Sprintf("store unavailable; served from %s", s.Name)
		log.Printf("WARN: %s served degraded from %s", op, s.Name)
		return env
	}

	if e.observer != nil {
		switch op.Verb() {
		case domain.VerbRead:
			e.observer.Observe(op.Collection(), op.Query(), env.Documents())
		case domain.VerbWrite, domain.VerbUpdate:
			if doc, ok := env.Data.(domain.Document); ok {
				e.observer.Patch(op.Collection(), op.ID(), doc)
			}
		case domain.VerbDelete:
			e.observer.Patch(op.Collection(), op.ID(), nil)
		}
	}
	return env
}

func (e *Executor) exhausted(op domain.Operation, attempts []domain.Attempt) domain.Envelope {
	if op.Category() == domain.CategoryRead {
		log.Printf("ERROR: %s failed on every strategy", op)
		env := domain.Failure(domain.KindStoreUnavailable, "")
		env.Attempts = attempts
		return env
	}

	if e.journal == nil {
		env := domain.Failure(domain.KindStoreUnavailable, "store unavailable; write was not saved")
		env.Attempts = attempts
		return env
	}

	appended, err := e.journal.Append(op, attempts)
	if err != nil {
		log.Printf("ERROR: failed to queue %s: %v", op, err)
		env := domain.Failure(domain.KindStoreUnavailable, "store unavailable; write was not saved")
		env.Attempts = attempts
		return env
	}
	if !appended {
		log.Printf("INFO: %s is already queued", op)
	}

	env := domain.Failure(domain.KindStoreUnavailable, "store unavailable; write queued for synchronisation")
	env.Queued = true
	env.Attempts = attempts
	return env
}

type runResult struct {
	raw interface{}
	err error
}

// run races the strategy against its budget. The executor never waits past
// the deadline even if the strategy ignores its context.
func (e *Executor) run(ctx context.Context, s Strategy, op domain.Operation, budget time.Duration) (interface{}, error) {
	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done := make(chan runResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- runResult{err: domain.Errorf(domain.KindUnexpectedResult, s.Name, "strategy panicked: %v", r)}
			}
		}()
		raw, err := s.Run(runCtx, op)
		done <- runResult{raw: raw, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, e.classify(ctx, s, r.err)
		}
		return r.raw, nil
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return nil, domain.NewError(domain.KindCancelled, s.Name, ctx.Err())
		}
		return nil, domain.Errorf(domain.KindConnectTimeout, s.Name, "no result within %v", budget)
	}
}

func (e *Executor) classify(ctx context.Context, s Strategy, err error) error {
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	switch {
	case ctx.Err() != nil:
		return domain.NewError(domain.KindCancelled, s.Name, err)
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewError(domain.KindConnectTimeout, s.Name, err)
	}
	return domain.NewError(domain.KindStoreUnavailable, s.Name, err)
}

func failure(err error, attempts []domain.Attempt) domain.Envelope {
	kind := domain.KindOf(err)
	msg := kind.Describe()
	var se *domain.StoreError
	if kind == domain.KindValidation && errors.As(err, &se) {
		// validation messages describe the caller's payload, not the store
		msg = se.ClientMessage()
	}
	env := domain.Failure(kind, msg)
	env.Attempts = attempts
	return env
}

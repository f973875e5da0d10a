// Package fallback runs data operations through an ordered list of strategies,
// falling back from the shared store connection to a direct connection and
// finally to cached or built-in data.
package fallback

import (
	"context"
	"fmt"
	"time"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// RunFunc executes op and returns a raw result in any shape the normalizer
// accepts. Errors must already be classified into the domain taxonomy.
type RunFunc func(ctx context.Context, op domain.Operation) (interface{}, error)

// Predicate decides whether a strategy should run given the attempts so far.
type Predicate func(op domain.Operation, prior []domain.Attempt) bool

// Strategy is one named way of satisfying an operation.
type Strategy struct {
	Name       string
	Budget     time.Duration
	Applicable Predicate
	Run        RunFunc
	// LastResort strategies serve stale or built-in data. Their results are
	// marked degraded and they still run after the total budget is spent.
	LastResort bool
}

// Predicate names accepted in policy files.
const (
	WhenAlways            = "always"
	WhenAfterTimeout      = "after-timeout"
	WhenAfterConnectivity = "after-connectivity"
	WhenAllFailed         = "all-failed"
)

// PredicateFor returns the predicate registered under name.
func PredicateFor(name string) (Predicate, error) {
	switch name {
	case "", WhenAlways:
		return Always, nil
	case WhenAfterTimeout:
		return AfterTimeout, nil
	case WhenAfterConnectivity:
		return AfterConnectivity, nil
	case WhenAllFailed:
		return AllFailed, nil
	}
	return nil, fmt.Errorf("unknown predicate %q", name)
}

// Always runs the strategy unconditionally.
func Always(domain.Operation, []domain.Attempt) bool { return true }

// AfterTimeout runs only when something was tried and every failure so far
// was a timeout.
func AfterTimeout(_ domain.Operation, prior []domain.Attempt) bool {
	return allFailedWith(prior, func(k domain.ErrorKind) bool { return k == domain.KindConnectTimeout })
}

// AfterConnectivity runs only when every failure so far was a connectivity
// problem.
func AfterConnectivity(_ domain.Operation, prior []domain.Attempt) bool {
	return allFailedWith(prior, domain.ErrorKind.IsConnectivity)
}

// AllFailed runs only when at least one strategy ran and none succeeded.
func AllFailed(_ domain.Operation, prior []domain.Attempt) bool {
	return allFailedWith(prior, func(domain.ErrorKind) bool { return true })
}

func allFailedWith(prior []domain.Attempt, accept func(domain.ErrorKind) bool) bool {
	if len(prior) == 0 {
		return false
	}
	for _, a := range prior {
		if !a.Failed() || !accept(a.Kind) {
			return false
		}
	}
	return true
}

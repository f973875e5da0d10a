package fallback

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/Avinash9608/Furniture-sub003/pkg/cache"
	"github.com/Avinash9608/Furniture-sub003/pkg/mock"
	"github.com/Avinash9608/Furniture-sub003/pkg/store"
	"gopkg.in/yaml.v3"
)

//go:embed default_policy.yaml
var defaultPolicy []byte

// StrategySpec configures one strategy in a policy file.
type StrategySpec struct {
	Name   string        `yaml:"name"`
	Kind   string        `yaml:"kind"`
	Budget time.Duration `yaml:"budget"`
	When   string        `yaml:"when"`
}

// Policy is the ordered strategy configuration for reads and writes. It is
// read once at startup.
type Policy struct {
	ReadBudget  time.Duration  `yaml:"read_budget"`
	WriteBudget time.Duration  `yaml:"write_budget"`
	Read        []StrategySpec `yaml:"read"`
	Write       []StrategySpec `yaml:"write"`
}

// DefaultPolicy returns the embedded policy.
func DefaultPolicy() Policy {
	p, err := ParsePolicy(defaultPolicy)
	if err != nil {
		panic(fmt.Sprintf("fallback: embedded policy is invalid: %v", err))
	}
	return p
}

// LoadPolicy reads a policy file. An empty path returns the default policy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy: %w", err)
	}
	return ParsePolicy(raw)
}

// ParsePolicy decodes and validates a YAML policy.
func ParsePolicy(raw []byte) (Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks strategy kinds, predicates and budgets.
func (p Policy) Validate() error {
	if p.ReadBudget <= 0 || p.WriteBudget <= 0 {
		return fmt.Errorf("policy budgets must be positive")
	}
	if len(p.Read) == 0 || len(p.Write) == 0 {
		return fmt.Errorf("policy needs at least one read and one write strategy")
	}
	check := func(list string, specs []StrategySpec, allowLastResort bool) error {
		seen := make(map[string]bool, len(specs))
		for i, s := range specs {
			if s.Name == "" {
				return fmt.Errorf("%s strategy %d has no name", list, i)
			}
			if seen[s.Name] {
				return fmt.Errorf("%s strategy %q is listed twice", list, s.Name)
			}
			seen[s.Name] = true
			if s.Budget <= 0 {
				return fmt.Errorf("%s strategy %q needs a positive budget", list, s.Name)
			}
			if _, err := PredicateFor(s.When); err != nil {
				return fmt.Errorf("%s strategy %q: %w", list, s.Name, err)
			}
			switch s.Kind {
			case KindPrimary, KindDirect:
			case KindCache, KindMock:
				if !allowLastResort {
					return fmt.Errorf("%s strategy %q: kind %s cannot serve writes", list, s.Name, s.Kind)
				}
			default:
				return fmt.Errorf("%s strategy %q: unknown kind %q", list, s.Name, s.Kind)
			}
		}
		return nil
	}
	if err := check("read", p.Read, true); err != nil {
		return err
	}
	return check("write", p.Write, false)
}

// Dependencies are the resources policy strategies run against. Cache and
// Fixtures may be nil, in which case strategies of that kind are skipped.
type Dependencies struct {
	Handle   *store.Handle
	Cache    *cache.Cache
	Fixtures *mock.Fixtures
}

// Build turns the policy into read and write strategy lists.
func (p Policy) Build(deps Dependencies) (reads, writes []Strategy, err error) {
	build := func(specs []StrategySpec) ([]Strategy, error) {
		out := make([]Strategy, 0, len(specs))
		for _, s := range specs {
			pred, err := PredicateFor(s.When)
			if err != nil {
				return nil, err
			}
			strategy := Strategy{Name: s.Name, Budget: s.Budget, Applicable: pred}
			switch s.Kind {
			case KindPrimary:
				strategy.Run = PrimaryRun(deps.Handle)
			case KindDirect:
				strategy.Run = DirectRun(deps.Handle)
			case KindCache:
				if deps.Cache == nil {
					continue
				}
				strategy.Run = CacheRun(deps.Cache)
				strategy.LastResort = true
			case KindMock:
				if deps.Fixtures == nil {
					continue
				}
				strategy.Run = MockRun(deps.Fixtures)
				strategy.LastResort = true
			}
			out = append(out, strategy)
		}
		return out, nil
	}

	if deps.Handle == nil {
		return nil, nil, fmt.Errorf("policy needs a store handle")
	}
	if reads, err = build(p.Read); err != nil {
		return nil, nil, err
	}
	if writes, err = build(p.Write); err != nil {
		return nil, nil, err
	}
	return reads, writes, nil
}

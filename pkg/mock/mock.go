// Package mock serves the built-in furniture catalogue used as last-resort read
// data.
package mock

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures holds read-only documents per collection.
type Fixtures struct {
	collections map[string][]domain.Document
}

// Default returns the embedded catalogue.
func Default() *Fixtures {
	f, err := Parse(defaultFixtures)
	if err != nil {
		panic(fmt.Sprintf("mock: embedded fixtures are invalid: %v", err))
	}
	return f
}

// Parse reads fixtures from YAML keyed by collection name.
func Parse(raw []byte) (*Fixtures, error) {
	var parsed map[string][]map[string]interface{}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	f := &Fixtures{collections: make(map[string][]domain.Document, len(parsed))}
	for name, docs := range parsed {
		out := make([]domain.Document, 0, len(docs))
		for i, doc := range docs {
			d := domain.Document(normalizeNumbers(doc).(map[string]interface{}))
			if d.ID() == "" {
				return nil, fmt.Errorf("fixture %s[%d] has no identity", name, i)
			}
			out = append(out, d)
		}
		f.collections[name] = out
	}
	return f, nil
}

// normalizeNumbers converts YAML integers to float64 so fixtures compare and
// encode the same way documents decoded from JSON do.
func normalizeNumbers(v interface{}) interface{} {
	switch val := v.(type) {
	case int:
		return float64(val)
	case map[string]interface{}:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	default:
		return v
	}
}

// Has reports whether the collection has fixtures.
func (f *Fixtures) Has(collection string) bool {
	_, ok := f.collections[collection]
	return ok
}

// Collections lists collection names in sorted order.
func (f *Fixtures) Collections() []string {
	names := make([]string, 0, len(f.collections))
	for name := range f.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Find applies q to the collection's fixtures.
func (f *Fixtures) Find(collection string, q domain.Query) ([]domain.Document, bool) {
	docs, ok := f.collections[collection]
	if !ok {
		return nil, false
	}
	return domain.CloneAll(domain.ApplyQuery(docs, q)), true
}

// FindOne returns a copy of the fixture with the given identity.
func (f *Fixtures) FindOne(collection, id string) (domain.Document, bool) {
	for _, doc := range f.collections[collection] {
		if doc.ID() == id {
			return doc.Clone(), true
		}
	}
	return nil, false
}

package domain

import (
	"fmt"
	"sort"
	"strings"
)

// SortKey orders results by a single field.
type SortKey struct {
	Field      string `json:"field" yaml:"field"`
	Descending bool   `json:"descending,omitempty" yaml:"descending,omitempty"`
}

// Query holds the read-side parts of an operation: filter, ordering and limit.
type Query struct {
	Filter map[string]interface{} `json:"filter,omitempty"`
	Sort   []SortKey              `json:"sort,omitempty"`
	Limit  int                    `json:"limit,omitempty"` // 0 means no limit
}

// ParseSort parses a sort expression such as "-price,name" into sort keys.
// A leading "-" means descending.
func ParseSort(expr string) []SortKey {
	var keys []SortKey
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" || part == "+" {
			continue
		}
		key := SortKey{Field: part}
		if strings.HasPrefix(part, "-") {
			key = SortKey{Field: part[1:], Descending: true}
		} else if strings.HasPrefix(part, "+") {
			key.Field = part[1:]
		}
		keys = append(keys, key)
	}
	return keys
}

// Fingerprint returns a stable string for the query, used as a cache key.
func (q Query) Fingerprint() string {
	var b strings.Builder
	fields := make([]string, 0, len(q.Filter))
	for k := range q.Filter {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		fmt.Fprintf(&b, "%s=%v;", k, q.Filter[k])
	}
	b.WriteString("|")
	for _, s := range q.Sort {
		if s.Descending {
			b.WriteString("-")
		}
		b.WriteString(s.Field)
		b.WriteString(",")
	}
	fmt.Fprintf(&b, "|%d", q.Limit)
	return b.String()
}

// ApplyQuery filters, sorts and limits docs. The input slice is not modified.
func ApplyQuery(docs []Document, q Query) []Document {
	results := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if MatchesFilter(doc, q.Filter) {
			results = append(results, doc)
		}
	}

	if len(q.Sort) > 0 {
		sort.SliceStable(results, func(i, j int) bool {
			for _, key := range q.Sort {
				c := compareValues(results[i][key.Field], results[j][key.Field])
				if c == 0 {
					continue
				}
				if key.Descending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results
}

// MatchesFilter checks if a document matches the given filter criteria
func MatchesFilter(doc Document, filter map[string]interface{}) bool {
	for field, expectedValue := range filter {
		actualValue, exists := doc[field]
		if !exists {
			return false
		}
		if !ValuesMatch(actualValue, expectedValue) {
			return false
		}
	}
	return true
}

// ValuesMatch compares two values for equality, handling different types.
// String comparison is case-insensitive; query parameters always arrive as
// strings, so "true" matches a boolean true and "12" matches a number 12.
func ValuesMatch(actual, expected interface{}) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	if actualStr, ok := actual.(string); ok {
		if expectedStr, ok := expected.(string); ok {
			return strings.EqualFold(actualStr, expectedStr)
		}
	}

	if actualNum, ok := ToFloat64(actual); ok {
		if expectedNum, ok := ToFloat64(expected); ok {
			return actualNum == expectedNum
		}
	}

	if actualBool, ok := actual.(bool); ok {
		if expectedStr, ok := expected.(string); ok {
			return strings.EqualFold(expectedStr, fmt.Sprintf("%t", actualBool))
		}
	}

	return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected)
}

// ToFloat64 converts various numeric types to float64 for comparison
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// compareValues orders two field values. Missing values sort first.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if an, ok := ToFloat64(a); ok {
		if bn, ok := ToFloat64(b); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			}
			return 0
		}
	}

	as, bs := strings.ToLower(fmt.Sprintf("%v", a)), strings.ToLower(fmt.Sprintf("%v", b))
	return strings.Compare(as, bs)
}

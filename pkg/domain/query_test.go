package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected []SortKey
	}{
		{name: "empty", expr: "", expected: nil},
		{name: "single ascending", expr: "name", expected: []SortKey{{Field: "name"}}},
		{name: "descending and ascending", expr: "-price, name", expected: []SortKey{{Field: "price", Descending: true}, {Field: "name"}}},
		{name: "explicit plus", expr: "+createdAt", expected: []SortKey{{Field: "createdAt"}}},
		{name: "stray separators", expr: ",-,name,", expected: []SortKey{{Field: "name"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSort(tt.expr))
		})
	}
}

func TestApplyQuery(t *testing.T) {
	docs := []Document{
		{"_id": "1", "name": "Chair", "price": 120.0, "category": "seating"},
		{"_id": "2", "name": "Table", "price": 450.0, "category": "tables"},
		{"_id": "3", "name": "Stool", "price": 60.0, "category": "Seating"},
		{"_id": "4", "name": "Sofa", "price": 900.0, "category": "seating"},
	}

	t.Run("filter is case insensitive", func(t *testing.T) {
		got := ApplyQuery(docs, Query{Filter: map[string]interface{}{"category": "seating"}})
		assert.Len(t, got, 3)
	})

	t.Run("numeric filter from query string", func(t *testing.T) {
		got := ApplyQuery(docs, Query{Filter: map[string]interface{}{"price": "450"}})
		assert.Len(t, got, 1)
		assert.Equal(t, "Table", got[0]["name"])
	})

	t.Run("sort descending with limit", func(t *testing.T) {
		got := ApplyQuery(docs, Query{Sort: ParseSort("-price"), Limit: 2})
		assert.Len(t, got, 2)
		assert.Equal(t, "Sofa", got[0]["name"])
		assert.Equal(t, "Table", got[1]["name"])
	})

	t.Run("input is untouched", func(t *testing.T) {
		_ = ApplyQuery(docs, Query{Sort: ParseSort("name")})
		assert.Equal(t, "Chair", docs[0]["name"])
	})

	t.Run("missing field never matches", func(t *testing.T) {
		got := ApplyQuery(docs, Query{Filter: map[string]interface{}{"color": "red"}})
		assert.Empty(t, got)
	})
}

func TestValuesMatch(t *testing.T) {
	assert.True(t, ValuesMatch(true, "true"))
	assert.True(t, ValuesMatch(int64(3), 3.0))
	assert.True(t, ValuesMatch("Oak", "oak"))
	assert.False(t, ValuesMatch(nil, "x"))
	assert.True(t, ValuesMatch(nil, nil))
}

func TestQueryFingerprintStable(t *testing.T) {
	a := Query{Filter: map[string]interface{}{"b": 1, "a": "x"}, Sort: ParseSort("-price"), Limit: 5}
	b := Query{Filter: map[string]interface{}{"a": "x", "b": 1}, Sort: ParseSort("-price"), Limit: 5}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), Query{}.Fingerprint())
}

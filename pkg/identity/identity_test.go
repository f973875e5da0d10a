package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Oak Dining Table":      "oak-dining-table",
		"Fauteuil Crème Brûlée": "fauteuil-creme-brulee",
		"  --Sofa & Chairs--  ": "sofa-chairs",
		"":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestNewID_IsVersion7(t *testing.T) {
	parsed, err := uuid.Parse(NewID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestAssigner_Assign(t *testing.T) {
	a := NewAssigner(map[string]string{"products": "name"})

	t.Run("generates identity and slug", func(t *testing.T) {
		id, doc := a.Assign("products", domain.Document{"name": "Teak Bench"})
		assert.NotEmpty(t, id)
		assert.Equal(t, id, doc[domain.IDField])
		assert.Equal(t, "teak-bench", doc["slug"])
	})

	t.Run("keeps client identity", func(t *testing.T) {
		id, doc := a.Assign("contacts", domain.Document{"id": "c-42", "email": "x@y.z"})
		assert.Equal(t, "c-42", id)
		assert.Equal(t, "c-42", doc[domain.IDField])
		assert.NotContains(t, doc, "slug")
	})

	t.Run("normalises a supplied slug", func(t *testing.T) {
		_, doc := a.Assign("products", domain.Document{"name": "Bench", "slug": "My Bench"})
		assert.Equal(t, "my-bench", doc["slug"])
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		in := domain.Document{"name": "Lamp"}
		_, _ = a.Assign("products", in)
		assert.NotContains(t, in, domain.IDField)
	})
}

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// runStoreTests runs a common test suite against any Store implementation.
func runStoreTests(t *testing.T, s domain.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("Find empty", func(t *testing.T) {
		docs, err := s.Find(ctx, "categories", domain.Query{})
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	t.Run("Insert and FindOne", func(t *testing.T) {
		doc := domain.Document{"_id": "p1", "name": "Chair", "price": float64(120)}
		stored, err := s.Insert(ctx, "products", doc, domain.WriteOptions{})
		require.NoError(t, err)
		assert.Equal(t, "p1", stored["_id"])

		got, err := s.FindOne(ctx, "products", "p1")
		require.NoError(t, err)
		assert.Equal(t, "Chair", got["name"])
		assert.Equal(t, float64(120), got["price"])
	})

	t.Run("Insert is an upsert", func(t *testing.T) {
		_, err := s.Insert(ctx, "products", domain.Document{"_id": "p1", "name": "Armchair", "price": float64(150)}, domain.WriteOptions{})
		require.NoError(t, err)
		docs, err := s.Find(ctx, "products", domain.Query{})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Armchair", docs[0]["name"])
	})

	t.Run("FindOne missing", func(t *testing.T) {
		_, err := s.FindOne(ctx, "products", "missing")
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("Find applies query in insertion order", func(t *testing.T) {
		_, err := s.Insert(ctx, "products", domain.Document{"_id": "p2", "name": "Table", "price": float64(450)}, domain.WriteOptions{})
		require.NoError(t, err)
		_, err = s.Insert(ctx, "products", domain.Document{"_id": "p3", "name": "Stool", "price": float64(60)}, domain.WriteOptions{})
		require.NoError(t, err)

		all, err := s.Find(ctx, "products", domain.Query{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "p1", all[0]["_id"])
		assert.Equal(t, "p3", all[2]["_id"])

		cheap, err := s.Find(ctx, "products", domain.Query{Sort: domain.ParseSort("price"), Limit: 2})
		require.NoError(t, err)
		require.Len(t, cheap, 2)
		assert.Equal(t, "Stool", cheap[0]["name"])

		// query string values match numbers the same way the cache and fixtures do
		priced, err := s.Find(ctx, "products", domain.Query{Filter: map[string]interface{}{"price": "450"}})
		require.NoError(t, err)
		require.Len(t, priced, 1)
		assert.Equal(t, "p2", priced[0]["_id"])
	})

	t.Run("Update merges", func(t *testing.T) {
		updated, err := s.Update(ctx, "products", "p2", domain.Document{"price": float64(400), "_id": "hijack"}, domain.WriteOptions{})
		require.NoError(t, err)
		assert.Equal(t, "p2", updated["_id"])
		assert.Equal(t, "Table", updated["name"])
		assert.Equal(t, float64(400), updated["price"])
	})

	t.Run("Update missing", func(t *testing.T) {
		_, err := s.Update(ctx, "products", "missing", domain.Document{"price": 1}, domain.WriteOptions{})
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("Guard aborts the write", func(t *testing.T) {
		guard := domain.WriteOptions{Guard: func() error {
			return domain.Errorf(domain.KindStaleHandle, "commit", "generation moved")
		}}
		_, err := s.Insert(ctx, "products", domain.Document{"_id": "p9", "name": "Ghost"}, guard)
		assert.Equal(t, domain.KindStaleHandle, domain.KindOf(err))

		_, err = s.FindOne(ctx, "products", "p9")
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err), "aborted write must not be visible")
	})

	t.Run("Exclusive field", func(t *testing.T) {
		opts := domain.WriteOptions{Exclusive: "isActive"}
		_, err := s.Insert(ctx, "paymentsettings", domain.Document{"_id": "ps1", "isActive": true}, opts)
		require.NoError(t, err)
		_, err = s.Insert(ctx, "paymentsettings", domain.Document{"_id": "ps2", "isActive": true}, opts)
		require.NoError(t, err)

		first, err := s.FindOne(ctx, "paymentsettings", "ps1")
		require.NoError(t, err)
		assert.Equal(t, false, first["isActive"])

		_, err = s.Update(ctx, "paymentsettings", "ps1", domain.Document{"isActive": true}, opts)
		require.NoError(t, err)

		active, err := s.Find(ctx, "paymentsettings", domain.Query{Filter: map[string]interface{}{"isActive": true}})
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "ps1", active[0]["_id"])
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "products", "p3", domain.WriteOptions{}))
		err := s.Delete(ctx, "products", "p3", domain.WriteOptions{})
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("Insert without identity", func(t *testing.T) {
		_, err := s.Insert(ctx, "products", domain.Document{"name": "Anonymous"}, domain.WriteOptions{})
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, NewMemoryStore())
}

func TestSqliteStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSqliteStore(context.Background(), filepath.Join(dir, "test.db"), 1)
	require.NoError(t, err)
	defer s.Close()
	runStoreTests(t, s)
}

func TestSqliteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := NewSqliteStore(ctx, path, 1)
	require.NoError(t, err)
	_, err = s.Insert(ctx, "contacts", domain.Document{"_id": "c1", "email": "a@b.c"}, domain.WriteOptions{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewSqliteStore(ctx, path, 1)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.FindOne(ctx, "contacts", "c1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", got["email"])
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().Find(ctx, "products", domain.Query{})
	assert.Equal(t, domain.KindCancelled, domain.KindOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestOpen(t *testing.T) {
	t.Run("memory shares one store", func(t *testing.T) {
		opener, dialer, err := Open(Backend{Kind: "memory"})
		require.NoError(t, err)
		primary, err := opener(context.Background())
		require.NoError(t, err)
		_, err = primary.Insert(context.Background(), "orders", domain.Document{"_id": "o1"}, domain.WriteOptions{})
		require.NoError(t, err)

		direct, release, err := dialer(context.Background())
		require.NoError(t, err)
		defer release()
		_, err = direct.FindOne(context.Background(), "orders", "o1")
		assert.NoError(t, err)
	})

	t.Run("sqlite", func(t *testing.T) {
		opener, dialer, err := Open(Backend{Kind: "sqlite", DataDir: t.TempDir()})
		require.NoError(t, err)
		primary, err := opener(context.Background())
		require.NoError(t, err)
		defer primary.Close()

		direct, release, err := dialer(context.Background())
		require.NoError(t, err)
		release()
		_ = direct
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		_, _, err := Open(Backend{Kind: "postgres"})
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := Open(Backend{Kind: "mongo"})
		assert.Error(t, err)
	})
}

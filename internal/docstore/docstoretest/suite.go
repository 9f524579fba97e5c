// Package docstoretest holds behaviour tests shared by every docstore backend.
package docstoretest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/docstore"
)

// Run exercises the docstore.Store contract against the store built by newStore.
// newStore is called once per subtest and must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Helper()

	t.Run("get missing document", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(context.Background(), "clients", "missing")
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("add then get", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Add(ctx, "clients", map[string]any{"last_name": "ACME", "version": float64(1)})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := store.Get(ctx, "clients", id)
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID)
		assert.Equal(t, "ACME", doc.Fields["last_name"])
		assert.InDelta(t, 1, doc.Fields["version"], 0)
		assert.False(t, doc.CreateTime.IsZero())
		assert.False(t, doc.UpdateTime.Before(doc.CreateTime))
	})

	t.Run("set merges top level fields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Add(ctx, "clients", map[string]any{"last_name": "ACME", "email": "a@acme.test"})
		require.NoError(t, err)

		require.NoError(t, store.Set(ctx, "clients", id, map[string]any{"email": "b@acme.test", "notes": "vip"}))

		doc, err := store.Get(ctx, "clients", id)
		require.NoError(t, err)
		assert.Equal(t, "ACME", doc.Fields["last_name"])
		assert.Equal(t, "b@acme.test", doc.Fields["email"])
		assert.Equal(t, "vip", doc.Fields["notes"])
	})

	t.Run("set creates missing document", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "missions", "m-1", map[string]any{"title": "DPE"}))

		doc, err := store.Get(ctx, "missions", "m-1")
		require.NoError(t, err)
		assert.Equal(t, "m-1", doc.ID)
		assert.Equal(t, "DPE", doc.Fields["title"])
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Add(ctx, "clients", map[string]any{"last_name": "ACME"})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, "clients", id))
		require.NoError(t, store.Delete(ctx, "clients", id))
		require.NoError(t, store.Delete(ctx, "clients", "never-existed"))

		_, err = store.Get(ctx, "clients", id)
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("list is scoped to collection", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for i := range 3 {
			_, err := store.Add(ctx, "clients", map[string]any{"n": float64(i)})
			require.NoError(t, err)
		}
		_, err := store.Add(ctx, "missions", map[string]any{"n": float64(10)})
		require.NoError(t, err)

		clients, err := store.List(ctx, "clients")
		require.NoError(t, err)
		assert.Len(t, clients, 3)

		empty, err := store.List(ctx, "unknown")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("nested values survive", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Add(ctx, "missions", map[string]any{
			"tags":  []any{"dpe", "amiante"},
			"owner": map[string]any{"name": "ACME"},
			"empty": nil,
		})
		require.NoError(t, err)

		doc, err := store.Get(ctx, "missions", id)
		require.NoError(t, err)
		assert.Equal(t, []any{"dpe", "amiante"}, doc.Fields["tags"])
		assert.Equal(t, map[string]any{"name": "ACME"}, doc.Fields["owner"])
		assert.Contains(t, doc.Fields, "empty")
		assert.Nil(t, doc.Fields["empty"])
	})

	t.Run("invalid collection", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Add(context.Background(), "a/b", map[string]any{})
		assert.ErrorIs(t, err, docstore.ErrInvalidCollection)
	})

	t.Run("concurrent sets on distinct ids", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, store.Set(ctx, "clients", fmt.Sprintf("c-%d", i), map[string]any{"n": float64(i)}))
			}(i)
		}
		wg.Wait()

		docs, err := store.List(ctx, "clients")
		require.NoError(t, err)
		assert.Len(t, docs, 8)
	})
}

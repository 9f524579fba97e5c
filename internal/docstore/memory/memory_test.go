package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/docstore"
	"github.com/iudanet/gophsync/internal/docstore/docstoretest"
)

func TestStore_Contract(t *testing.T) {
	docstoretest.Run(t, func(t *testing.T) docstore.Store {
		return New()
	})
}

func TestStore_NoAliasing(t *testing.T) {
	store := New()
	ctx := context.Background()

	fields := map[string]any{"tags": []any{"a"}}
	id, err := store.Add(ctx, "missions", fields)
	require.NoError(t, err)

	fields["tags"].([]any)[0] = "mutated-input"

	doc, err := store.Get(ctx, "missions", id)
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, doc.Fields["tags"])

	doc.Fields["tags"].([]any)[0] = "mutated-output"

	again, err := store.Get(ctx, "missions", id)
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, again.Fields["tags"])
}

func TestStore_Timestamps(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	now := created
	store := New().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "clients", "c1", map[string]any{"a": "1"}))
	now = created.Add(time.Hour)
	require.NoError(t, store.Set(ctx, "clients", "c1", map[string]any{"b": "2"}))

	doc, err := store.Get(ctx, "clients", "c1")
	require.NoError(t, err)
	assert.True(t, doc.CreateTime.Equal(created))
	assert.True(t, doc.UpdateTime.Equal(now))
	assert.Equal(t, 1, store.Len("clients"))
}

func TestStore_CanceledContext(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "clients", "c1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Set(ctx, "clients", "c1", nil), context.Canceled)
}

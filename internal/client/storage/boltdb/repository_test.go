package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/models"
)

var testNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func createTestClientRepository(t *testing.T) *Repository[*models.Client] {
	t.Helper()

	repo, err := NewRepository(createTestStorage(t), models.ClientSchema)
	require.NoError(t, err)
	return repo
}

func newTestClient(id, lastName string) *models.Client {
	return &models.Client{
		Type:         models.ClientTypeProfessional,
		LastName:     lastName,
		Email:        lastName + "@example.com",
		SyncMetadata: models.NewSyncMetadata(id, testNow),
	}
}

func TestRepository_AddGet(t *testing.T) {
	ctx := context.Background()
	repo := createTestClientRepository(t)

	first := "Jean"
	client := newTestClient("c1", "Dupont")
	client.Type = models.ClientTypeIndividual
	client.FirstName = &first
	client.MarkSynced(testNow)
	require.NoError(t, client.AssignRemoteID("r1"))

	require.NoError(t, repo.Add(ctx, client))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Dupont", got.LastName)
	require.NotNil(t, got.FirstName)
	assert.Equal(t, "Jean", *got.FirstName)
	assert.Equal(t, "r1", got.RemoteID)
	assert.Equal(t, int64(1), got.Version)
	require.NotNil(t, got.LastSyncAt)
	assert.True(t, testNow.Equal(*got.LastSyncAt))
	assert.True(t, testNow.Equal(got.UpdatedAt))
}

func TestRepository_AddDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := createTestClientRepository(t)

	require.NoError(t, repo.Add(ctx, newTestClient("c1", "Dupont")))
	err := repo.Add(ctx, newTestClient("c1", "Martin"))
	assert.ErrorIs(t, err, storage.ErrReplicaExists)
}

func TestRepository_GetMissing(t *testing.T) {
	repo := createTestClientRepository(t)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrReplicaNotFound)
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := createTestClientRepository(t)

	err := repo.Update(ctx, newTestClient("c1", "Dupont"))
	require.ErrorIs(t, err, storage.ErrReplicaNotFound)

	client := newTestClient("c1", "Dupont")
	require.NoError(t, repo.Add(ctx, client))

	client.LastName = "Durand"
	client.MarkAsDeleted(testNow.Add(time.Minute))
	require.NoError(t, repo.Update(ctx, client))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Durand", got.LastName)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, int64(2), got.Version)
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := createTestClientRepository(t)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, id := range []string{"c3", "c1", "c2"} {
		require.NoError(t, repo.Add(ctx, newTestClient(id, "Name-"+id)))
	}

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c1", list[0].ID)
	assert.Equal(t, "c2", list[1].ID)
	assert.Equal(t, "c3", list[2].ID)
}

func TestRepository_SaveBatch(t *testing.T) {
	ctx := context.Background()
	repo := createTestClientRepository(t)

	require.NoError(t, repo.Add(ctx, newTestClient("c1", "Dupont")))

	updated := newTestClient("c1", "Durand")
	created := newTestClient("c2", "Martin")
	require.NoError(t, repo.SaveBatch(ctx, []*models.Client{updated, created}))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Durand", got.LastName)

	got, err = repo.Get(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "Martin", got.LastName)

	assert.NoError(t, repo.SaveBatch(ctx, nil))
}

func TestRepository_SaveBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := createTestClientRepository(t)

	err := repo.SaveBatch(ctx, []*models.Client{newTestClient("c1", "Dupont"), newTestClient("", "Broken")})
	require.Error(t, err)

	_, err = repo.Get(ctx, "c1")
	assert.ErrorIs(t, err, storage.ErrReplicaNotFound)
}

func TestRepository_SeparateBuckets(t *testing.T) {
	ctx := context.Background()
	s := createTestStorage(t)

	clients, err := NewRepository(s, models.ClientSchema)
	require.NoError(t, err)
	missions, err := NewRepository(s, models.MissionSchema)
	require.NoError(t, err)

	require.NoError(t, clients.Add(ctx, newTestClient("same-id", "Dupont")))

	_, err = missions.Get(ctx, "same-id")
	assert.ErrorIs(t, err, storage.ErrReplicaNotFound)
}

func TestRepository_CancelledContext(t *testing.T) {
	repo := createTestClientRepository(t)
	require.NoError(t, repo.Add(context.Background(), newTestClient("c1", "Dupont")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		call func() error
	}{
		{name: "get", call: func() error { _, err := repo.Get(ctx, "c1"); return err }},
		{name: "list", call: func() error { _, err := repo.List(ctx); return err }},
		{name: "add", call: func() error { return repo.Add(ctx, newTestClient("c2", "Martin")) }},
		{name: "update", call: func() error { return repo.Update(ctx, newTestClient("c1", "Durand")) }},
		{name: "save batch", call: func() error {
			return repo.SaveBatch(ctx, []*models.Client{newTestClient("c3", "Petit")})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), context.Canceled)
		})
	}

	// ничего не записано
	clients, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Dupont", clients[0].LastName)
}

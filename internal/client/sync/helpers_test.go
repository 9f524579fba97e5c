package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/client/storage/boltdb"
	"github.com/iudanet/gophsync/internal/conflict"
	"github.com/iudanet/gophsync/internal/docstore"
	"github.com/iudanet/gophsync/internal/models"
)

const testCollection = models.CollectionClients

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// device одно устройство: локальное bbolt хранилище и свой engine
type device struct {
	engine  *Engine[*models.Client]
	repo    *boltdb.Repository[*models.Client]
	storage *boltdb.Storage
}

func newDevice(t *testing.T, remote docstore.Store, clock *testClock, strategy conflict.Strategy) *device {
	t.Helper()

	s, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})

	repo, err := boltdb.NewRepository(s, models.ClientSchema)
	require.NoError(t, err)

	engine := NewEngine(repo, remote, conflict.New(strategy, conflict.WithClock(clock.Now)), models.ClientSchema, Options{
		Enabled:    true,
		Clock:      clock.Now,
		Watermarks: s,
	})

	return &device{engine: engine, repo: repo, storage: s}
}

func createTestClient(t *testing.T, d *device, id, lastName string, updatedAt time.Time) *models.Client {
	t.Helper()

	client := &models.Client{
		Type:         models.ClientTypeProfessional,
		LastName:     lastName,
		Email:        "contact@" + id + ".test",
		SyncMetadata: models.NewSyncMetadata(id, updatedAt),
	}
	require.NoError(t, d.repo.Add(context.Background(), client))
	return client
}

func mustGet(t *testing.T, d *device, id string) *models.Client {
	t.Helper()

	client, err := d.repo.Get(context.Background(), id)
	require.NoError(t, err)
	return client
}

// spyStore оборачивает store в StoreMock, чтобы считать вызовы
func spyStore(inner docstore.Store) *docstore.StoreMock {
	return &docstore.StoreMock{
		GetFunc:    inner.Get,
		ListFunc:   inner.List,
		AddFunc:    inner.Add,
		SetFunc:    inner.Set,
		DeleteFunc: inner.Delete,
	}
}

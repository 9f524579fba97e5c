package storage

import (
	"context"

	"github.com/iudanet/gophsync/internal/models"
)

//go:generate moq -out localstore_mock.go . LocalStore

// LocalStore is the on-device source of truth for one entity type.
// It persists the full entity including its sync metadata.
type LocalStore[T models.Replica] interface {
	// Get returns the replica or ErrReplicaNotFound.
	Get(ctx context.Context, id string) (T, error)

	// List returns all replicas, soft-deleted ones included.
	List(ctx context.Context) ([]T, error)

	// Add stores a new replica. Returns ErrReplicaExists for a known id.
	Add(ctx context.Context, entity T) error

	// Update overwrites an existing replica. Returns ErrReplicaNotFound for an unknown id.
	Update(ctx context.Context, entity T) error
}

// BatchWriter is implemented by local stores able to persist several
// replicas atomically. Existing replicas are overwritten, new ones added.
type BatchWriter[T models.Replica] interface {
	SaveBatch(ctx context.Context, entities []T) error
}

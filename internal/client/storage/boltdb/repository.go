package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/models"
)

// Repository хранит сущности одного типа в отдельном bucket, значения в JSON
type Repository[T models.Replica] struct {
	db     *bbolt.DB
	newT   func() T
	bucket []byte
}

var (
	_ storage.LocalStore[*models.Client]  = (*Repository[*models.Client])(nil)
	_ storage.BatchWriter[*models.Client] = (*Repository[*models.Client])(nil)
)

// NewRepository creates the bucket named after schema.Kind and returns a store for it.
func NewRepository[T models.Replica](s *Storage, schema models.Schema[T]) (*Repository[T], error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	bucket := []byte(schema.Kind)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s bucket: %w", schema.Kind, err)
	}

	return &Repository[T]{
		db:     s.db,
		newT:   schema.New,
		bucket: bucket,
	}, nil
}

// Get retrieves a replica by local id
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	var entity T
	if err := ctx.Err(); err != nil {
		return entity, err
	}

	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(r.bucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%s: %w", id, storage.ErrReplicaNotFound)
		}

		decoded, err := r.decode(data)
		if err != nil {
			return err
		}
		entity = decoded
		return nil
	})

	return entity, err
}

// List returns all replicas ordered by id, soft-deleted included
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entities := make([]T, 0)

	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(r.bucket).ForEach(func(k, v []byte) error {
			entity, err := r.decode(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			entities = append(entities, entity)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return entities, nil
}

// Add stores a new replica
func (r *Repository[T]) Add(ctx context.Context, entity T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(r.bucket)
		id := []byte(entity.Meta().ID)
		if bucket.Get(id) != nil {
			return fmt.Errorf("%s: %w", id, storage.ErrReplicaExists)
		}
		return r.put(bucket, entity)
	})
}

// Update overwrites an existing replica
func (r *Repository[T]) Update(ctx context.Context, entity T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(r.bucket)
		id := []byte(entity.Meta().ID)
		if bucket.Get(id) == nil {
			return fmt.Errorf("%s: %w", id, storage.ErrReplicaNotFound)
		}
		return r.put(bucket, entity)
	})
}

// SaveBatch upserts all replicas in a single transaction
func (r *Repository[T]) SaveBatch(ctx context.Context, entities []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entities) == 0 {
		return nil
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(r.bucket)
		for _, entity := range entities {
			if err := r.put(bucket, entity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository[T]) put(bucket *bbolt.Bucket, entity T) error {
	id := entity.Meta().ID
	if id == "" {
		return errors.New("replica without id")
	}

	return putJSON(bucket, []byte(id), entity)
}

func (r *Repository[T]) decode(data []byte) (T, error) {
	entity := r.newT()
	if err := json.Unmarshal(data, entity); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal replica: %w", err)
	}
	return entity, nil
}

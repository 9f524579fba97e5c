// Package data implements local business CRUD on top of a replica store.
// Every mutation keeps the sync metadata of the replica correct.
package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/models"
)

// ErrDeleted is returned when mutating a soft-deleted replica
var ErrDeleted = errors.New("replica is deleted")

// Service manages replicas of one entity type in the local store
type Service[T models.Replica] struct {
	store  storage.LocalStore[T]
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new data service
func NewService[T models.Replica](store storage.LocalStore[T], logger *slog.Logger) *Service[T] {
	return &Service[T]{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the clock used to stamp mutations.
func (s *Service[T]) WithClock(now func() time.Time) *Service[T] {
	s.now = now
	return s
}

// Create stores a new replica. Sync metadata is initialized here:
// any metadata set by the caller is discarded.
func (s *Service[T]) Create(ctx context.Context, entity T) error {
	meta := entity.Meta()

	// Генерируем ID если не задан
	id := meta.ID
	if id == "" {
		id = uuid.New().String()
	}
	*meta = models.NewSyncMetadata(id, s.now())

	if err := s.store.Add(ctx, entity); err != nil {
		return fmt.Errorf("failed to add replica: %w", err)
	}

	s.logger.Debug("Replica created", "id", id)
	return nil
}

// Get returns a replica by id, deleted ones included
func (s *Service[T]) Get(ctx context.Context, id string) (T, error) {
	entity, err := s.store.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to get replica: %w", err)
	}
	return entity, nil
}

// List returns replicas; soft-deleted ones only when includeDeleted is set
func (s *Service[T]) List(ctx context.Context, includeDeleted bool) ([]T, error) {
	entities, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list replicas: %w", err)
	}

	if includeDeleted {
		return entities, nil
	}

	live := make([]T, 0, len(entities))
	for _, entity := range entities {
		if !entity.Meta().IsDeleted {
			live = append(live, entity)
		}
	}
	return live, nil
}

// Update applies mutate to the stored replica and persists it.
// The version is bumped exactly once regardless of what mutate changes.
func (s *Service[T]) Update(ctx context.Context, id string, mutate func(T) error) (T, error) {
	var zero T

	entity, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("failed to get replica: %w", err)
	}
	if entity.Meta().IsDeleted {
		return zero, fmt.Errorf("%s: %w", id, ErrDeleted)
	}

	// Метаданные принадлежат sync engine: мутация не может их менять
	saved := models.CloneMetadata(*entity.Meta())
	if err := mutate(entity); err != nil {
		return zero, err
	}
	*entity.Meta() = saved
	entity.Meta().MarkAsModified(s.now())

	if err := s.store.Update(ctx, entity); err != nil {
		return zero, fmt.Errorf("failed to update replica: %w", err)
	}

	s.logger.Debug("Replica updated", "id", id, "version", entity.Meta().Version)
	return entity, nil
}

// Delete soft-deletes a replica. The tombstone is kept so that the deletion
// can be propagated; deleting twice is a no-op.
func (s *Service[T]) Delete(ctx context.Context, id string) (T, error) {
	return s.setDeleted(ctx, id, true)
}

// Restore clears the tombstone of a soft-deleted replica
func (s *Service[T]) Restore(ctx context.Context, id string) (T, error) {
	return s.setDeleted(ctx, id, false)
}

func (s *Service[T]) setDeleted(ctx context.Context, id string, deleted bool) (T, error) {
	var zero T

	entity, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("failed to get replica: %w", err)
	}

	meta := entity.Meta()
	if meta.IsDeleted == deleted {
		return entity, nil
	}

	if deleted {
		meta.MarkAsDeleted(s.now())
	} else {
		meta.Restore(s.now())
	}

	if err := s.store.Update(ctx, entity); err != nil {
		return zero, fmt.Errorf("failed to update replica: %w", err)
	}

	s.logger.Debug("Replica tombstone changed", "id", id, "deleted", deleted)
	return entity, nil
}

// Package sync reconciles local replicas with the remote document store.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/conflict"
	"github.com/iudanet/gophsync/internal/docstore"
	"github.com/iudanet/gophsync/internal/models"
)

// Options configures an Engine
type Options struct {
	Logger *slog.Logger
	Clock  func() time.Time
	// Watermarks хранит время последнего успешного FullSync по коллекциям; nil = не сохранять
	Watermarks storage.MetadataStorage
	Enabled    bool
	// PushDeleted отправляет tombstones во время FullSync
	PushDeleted bool
}

// Engine synchronizes replicas of one entity type between a local store and
// a remote document store. Operations touching the same local id are
// serialized; everything else runs concurrently.
type Engine[T models.Replica] struct {
	local       storage.LocalStore[T]
	remote      docstore.Store
	resolver    *conflict.Resolver
	watermarks  storage.MetadataStorage
	logger      *slog.Logger
	now         func() time.Time
	locks       *keyedMutex
	codec       codec[T]
	enabled     atomic.Bool
	pushDeleted bool
}

// NewEngine creates a sync engine for one entity type
func NewEngine[T models.Replica](
	local storage.LocalStore[T],
	remote docstore.Store,
	resolver *conflict.Resolver,
	schema models.Schema[T],
	opts Options,
) *Engine[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	e := &Engine[T]{
		local:       local,
		remote:      remote,
		resolver:    resolver,
		watermarks:  opts.Watermarks,
		logger:      logger,
		now:         now,
		locks:       newKeyedMutex(),
		codec:       codec[T]{schema: schema},
		pushDeleted: opts.PushDeleted,
	}
	e.enabled.Store(opts.Enabled)

	return e
}

// Enabled reports whether synchronization is turned on
func (e *Engine[T]) Enabled() bool {
	return e.enabled.Load()
}

// SetEnabled turns synchronization on or off, e.g. on connectivity changes
func (e *Engine[T]) SetEnabled(enabled bool) {
	e.enabled.Store(enabled)
}

// SyncToCloud pushes one local replica to the remote collection.
// On success entity gets its remote id and watermark and is persisted locally.
func (e *Engine[T]) SyncToCloud(ctx context.Context, entity T, collection string) Result {
	if !e.Enabled() {
		return Disabled()
	}
	if res, ok := e.validate(entity, collection); !ok {
		return res
	}

	unlock := e.locks.Lock(entity.Meta().ID)
	defer unlock()

	res, err := e.push(ctx, entity, collection)
	if err != nil {
		e.logger.Error("Failed to sync replica to remote",
			"id", entity.Meta().ID,
			"collection", collection,
			"error", err)
		return Error(fmt.Sprintf("sync to cloud: %v", err))
	}

	return res
}

func (e *Engine[T]) push(ctx context.Context, entity T, collection string) (Result, error) {
	meta := entity.Meta()

	if meta.HasRemote() {
		doc, err := e.remote.Get(ctx, collection, meta.RemoteID)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			// Документ удален на remote: создаем заново под тем же id
			e.logger.Warn("Remote document is gone, recreating",
				"id", meta.ID,
				"remote_id", meta.RemoteID)
			return e.write(ctx, entity, collection)
		case err != nil:
			return Result{}, fmt.Errorf("failed to get remote document: %w", err)
		}

		remote, err := e.codec.decode(doc)
		if err != nil {
			return Result{}, err
		}

		switch e.resolver.Resolve(entity, remote) {
		case conflict.NoConflict:
			return Success(fmt.Sprintf("replica %s is already in sync", meta.ID)), nil
		case conflict.UseLocal:
			return e.write(ctx, entity, collection)
		case conflict.UseRemote:
			return ConflictResult(fmt.Sprintf("replica %s: remote version is newer", meta.ID)), nil
		default:
			return ConflictResult(fmt.Sprintf("replica %s: conflict detected", meta.ID)), nil
		}
	}

	syncedAt := e.now().UTC()
	fields, err := e.codec.encode(entity, syncedAt)
	if err != nil {
		return Result{}, err
	}

	remoteID, err := e.remote.Add(ctx, collection, fields)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create remote document: %w", err)
	}

	if err := meta.AssignRemoteID(remoteID); err != nil {
		return Result{}, err
	}
	meta.MarkSynced(syncedAt)

	if err := e.save(ctx, entity); err != nil {
		return Result{}, err
	}

	e.logger.Info("Replica created on remote",
		"id", meta.ID,
		"remote_id", remoteID,
		"collection", collection)

	res := Success(fmt.Sprintf("replica %s created on remote with id %s", meta.ID, remoteID))
	res.Pushed = 1
	return res, nil
}

// write перезаписывает документ по remote id локальной версией
func (e *Engine[T]) write(ctx context.Context, entity T, collection string) (Result, error) {
	meta := entity.Meta()
	syncedAt := e.now().UTC()

	if err := e.writeBack(ctx, entity, collection, syncedAt); err != nil {
		return Result{}, err
	}

	meta.MarkSynced(syncedAt)
	if err := e.save(ctx, entity); err != nil {
		return Result{}, err
	}

	e.logger.Info("Replica pushed to remote",
		"id", meta.ID,
		"remote_id", meta.RemoteID,
		"version", meta.Version)

	res := Success(fmt.Sprintf("replica %s synchronized to remote", meta.ID))
	res.Pushed = 1
	return res, nil
}

// save обновляет реплику в локальном хранилище, добавляя ее при отсутствии
func (e *Engine[T]) save(ctx context.Context, entity T) error {
	err := e.local.Update(ctx, entity)
	if errors.Is(err, storage.ErrReplicaNotFound) {
		err = e.local.Add(ctx, entity)
	}
	if err != nil {
		return fmt.Errorf("remote is updated but local save failed: %w", err)
	}
	return nil
}

// SyncFromCloud pulls every document of the collection into the local store.
// New replicas are inserted, replicas the resolver hands to the remote side
// are overwritten, conflicts are counted and left untouched.
func (e *Engine[T]) SyncFromCloud(ctx context.Context, collection string) Result {
	if !e.Enabled() {
		return Disabled()
	}
	if collection == "" {
		return Error("collection is empty")
	}

	res, err := e.pull(ctx, collection)
	if err != nil {
		e.logger.Error("Failed to sync from remote",
			"collection", collection,
			"error", err)
		return Error(fmt.Sprintf("sync from cloud: %v", err))
	}

	return res
}

func (e *Engine[T]) pull(ctx context.Context, collection string) (Result, error) {
	docs, err := e.remote.List(ctx, collection)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list remote documents: %w", err)
	}

	// Несколько документов с одним локальным id появляются при повторной отправке
	// после потерянного ответа Add; выбор между ними делается после чтения локальной реплики
	candidates := make(map[string][]T, len(docs))
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		remote, err := e.codec.decode(doc)
		if err != nil {
			e.logger.Warn("Skipping malformed remote document",
				"remote_id", doc.ID,
				"error", err)
			continue
		}

		id := remote.Meta().ID
		if _, ok := candidates[id]; !ok {
			ids = append(ids, id)
		}
		candidates[id] = append(candidates[id], remote)
	}

	unlock := e.locks.LockAll(ids)
	defer unlock()

	now := e.now().UTC()
	added := make([]T, 0)
	changed := make([]T, 0)
	conflicts := 0

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		local, err := e.local.Get(ctx, id)
		exists := true
		switch {
		case errors.Is(err, storage.ErrReplicaNotFound):
			exists = false
		case err != nil:
			return Result{}, fmt.Errorf("failed to get local replica %s: %w", id, err)
		}

		remote, ok := e.pick(id, candidates[id], local, exists)
		if !ok {
			continue
		}

		if !exists {
			remote.Meta().MarkSynced(now)
			added = append(added, remote)
			continue
		}

		switch e.resolver.Resolve(local, remote) {
		case conflict.UseRemote:
			rewrite, err := e.overwrite(local, remote, now)
			if err != nil {
				e.logger.Warn("Remote document is bound to another replica",
					"id", id,
					"remote_id", remote.Meta().RemoteID,
					"error", err)
				conflicts++
				continue
			}
			if rewrite {
				if err := e.writeBack(ctx, local, collection, now); err != nil {
					return Result{}, err
				}
			}
			changed = append(changed, local)
		case conflict.Conflict:
			conflicts++
		}
	}

	if err := e.persist(ctx, added, changed); err != nil {
		return Result{}, err
	}

	synced := len(added) + len(changed)
	e.logger.Info("Pulled from remote",
		"collection", collection,
		"remote", len(docs),
		"added", len(added),
		"updated", len(changed),
		"conflicts", conflicts)

	message := fmt.Sprintf("%d replica(s) synchronized from remote", synced)
	if conflicts > 0 {
		message += fmt.Sprintf(", %d conflict(s) detected", conflicts)
	}

	res := Success(message)
	res.Synced = synced
	res.Conflicts = conflicts
	return res, nil
}

// pick выбирает удаленный документ для локального id.
// Из дубликатов берется тот, к которому привязана локальная реплика.
func (e *Engine[T]) pick(id string, remotes []T, local T, exists bool) (T, bool) {
	if len(remotes) == 1 {
		return remotes[0], true
	}

	if exists && local.Meta().HasRemote() {
		for _, remote := range remotes {
			if remote.Meta().RemoteID == local.Meta().RemoteID {
				return remote, true
			}
		}
	}

	e.logger.Warn("Skipping remote documents with duplicate id",
		"id", id,
		"documents", len(remotes))
	var zero T
	return zero, false
}

// overwrite переносит удаленное состояние в локальную реплику.
// ID и CreatedAt остаются локальными, версия не уменьшается.
// Возвращает true, если локальная версия была выше и remote нужно догнать.
func (e *Engine[T]) overwrite(local, remote T, now time.Time) (bool, error) {
	lm, rm := local.Meta(), remote.Meta()
	if err := lm.AssignRemoteID(rm.RemoteID); err != nil {
		return false, err
	}

	e.codec.schema.CopyFields(local, remote)

	cloned := models.CloneMetadata(*rm)
	lm.UpdatedAt = cloned.UpdatedAt
	lm.Version = max(lm.Version, cloned.Version)
	lm.IsDeleted = cloned.IsDeleted
	lm.DeletedAt = cloned.DeletedAt
	lm.MarkSynced(now)

	return lm.Version != cloned.Version, nil
}

// writeBack записывает согласованное состояние реплики в ее удаленный документ
func (e *Engine[T]) writeBack(ctx context.Context, entity T, collection string, syncedAt time.Time) error {
	fields, err := e.codec.encode(entity, syncedAt)
	if err != nil {
		return err
	}
	if err := e.remote.Set(ctx, collection, entity.Meta().RemoteID, fields); err != nil {
		return fmt.Errorf("failed to update remote document: %w", err)
	}
	return nil
}

// persist сохраняет результаты pull одним проходом, по возможности в одной транзакции
func (e *Engine[T]) persist(ctx context.Context, added, changed []T) error {
	if len(added) == 0 && len(changed) == 0 {
		return nil
	}

	if batch, ok := e.local.(storage.BatchWriter[T]); ok {
		all := make([]T, 0, len(added)+len(changed))
		all = append(all, added...)
		all = append(all, changed...)
		if err := batch.SaveBatch(ctx, all); err != nil {
			return fmt.Errorf("failed to save pulled replicas: %w", err)
		}
		return nil
	}

	for _, entity := range added {
		if err := e.local.Add(ctx, entity); err != nil {
			return fmt.Errorf("failed to add replica %s: %w", entity.Meta().ID, err)
		}
	}
	for _, entity := range changed {
		if err := e.local.Update(ctx, entity); err != nil {
			return fmt.Errorf("failed to update replica %s: %w", entity.Meta().ID, err)
		}
	}

	return nil
}

// FullSync pushes every live local replica, then pulls the collection once.
// Replicas changed remotely while the push phase runs are reconciled on the
// next pass only.
func (e *Engine[T]) FullSync(ctx context.Context, collection string) Result {
	if !e.Enabled() {
		return Disabled()
	}
	if collection == "" {
		return Error("collection is empty")
	}

	startedAt := e.now().UTC()

	locals, err := e.local.List(ctx)
	if err != nil {
		e.logger.Error("Failed to list local replicas", "error", err)
		return Error(fmt.Sprintf("full sync: failed to list local replicas: %v", err))
	}

	var pushed, conflicts, failed int
	for _, entity := range locals {
		if err := ctx.Err(); err != nil {
			return Error(fmt.Sprintf("full sync: %v", err))
		}
		if entity.Meta().IsDeleted && !e.pushDeleted {
			continue
		}

		res := e.SyncToCloud(ctx, entity, collection)
		switch res.Status {
		case models.SyncStatusSynced:
			pushed += res.Pushed
		case models.SyncStatusConflict:
			conflicts++
		default:
			failed++
		}
	}

	pulled := e.SyncFromCloud(ctx, collection)
	if !pulled.IsSuccess {
		return pulled
	}

	if e.watermarks != nil {
		// Ошибка сохранения watermark не прерывает синхронизацию
		if err := e.watermarks.SaveLastSync(ctx, collection, startedAt); err != nil {
			e.logger.Warn("Failed to save last sync time", "collection", collection, "error", err)
		}
	}

	message := fmt.Sprintf("full sync: %d pushed", pushed)
	if failed > 0 {
		message += fmt.Sprintf(", %d failed", failed)
	}
	if conflicts > 0 {
		message += fmt.Sprintf(", %d push conflict(s)", conflicts)
	}
	message += ", " + pulled.Message

	res := Success(message)
	res.Pushed = pushed
	res.Synced = pulled.Synced
	res.Conflicts = conflicts + pulled.Conflicts
	res.Failed = failed
	return res
}

// DeleteFromCloud removes a remote document. The local replica is never
// touched: callers soft-delete it separately.
func (e *Engine[T]) DeleteFromCloud(ctx context.Context, collection, remoteID string) Result {
	if !e.Enabled() {
		return Disabled()
	}
	if collection == "" {
		return Error("collection is empty")
	}
	if remoteID == "" {
		return Error("remote id is empty")
	}

	if err := e.remote.Delete(ctx, collection, remoteID); err != nil {
		e.logger.Error("Failed to delete remote document",
			"collection", collection,
			"remote_id", remoteID,
			"error", err)
		return Error(fmt.Sprintf("delete from cloud: %v", err))
	}

	e.logger.Info("Remote document deleted", "collection", collection, "remote_id", remoteID)
	return Success(fmt.Sprintf("document %s deleted from remote", remoteID))
}

// PullEntity reconciles one replica with its remote document, applying the
// remote state when the resolver picks it.
func (e *Engine[T]) PullEntity(ctx context.Context, entity T, collection string) Result {
	if !e.Enabled() {
		return Disabled()
	}
	if res, ok := e.validate(entity, collection); !ok {
		return res
	}

	meta := entity.Meta()
	if !meta.HasRemote() {
		return Success(fmt.Sprintf("replica %s was never pushed", meta.ID))
	}

	unlock := e.locks.Lock(meta.ID)
	defer unlock()

	remote, err := e.fetch(ctx, entity, collection)
	if err != nil {
		return Error(fmt.Sprintf("pull entity: %v", err))
	}

	switch e.resolver.Resolve(entity, remote) {
	case conflict.NoConflict:
		return Success(fmt.Sprintf("replica %s is already in sync", meta.ID))
	case conflict.UseLocal:
		return Success(fmt.Sprintf("replica %s: local version is newer", meta.ID))
	case conflict.Conflict:
		return ConflictResult(fmt.Sprintf("replica %s: conflict detected", meta.ID))
	}

	now := e.now().UTC()
	rewrite, err := e.overwrite(entity, remote, now)
	if err != nil {
		return Error(fmt.Sprintf("pull entity: %v", err))
	}
	if rewrite {
		if err := e.writeBack(ctx, entity, collection, now); err != nil {
			return Error(fmt.Sprintf("pull entity: %v", err))
		}
	}
	if err := e.local.Update(ctx, entity); err != nil {
		return Error(fmt.Sprintf("pull entity: failed to save replica: %v", err))
	}

	res := Success(fmt.Sprintf("replica %s updated from remote", meta.ID))
	res.Synced = 1
	return res
}

// MergeWithRemote merges entity with its remote document field by field,
// pushes the result and stores it locally. entity is updated in place.
func (e *Engine[T]) MergeWithRemote(ctx context.Context, entity T, collection string, fieldResolver conflict.FieldResolver) Result {
	if !e.Enabled() {
		return Disabled()
	}
	if res, ok := e.validate(entity, collection); !ok {
		return res
	}

	meta := entity.Meta()
	if !meta.HasRemote() {
		return Error(fmt.Sprintf("replica %s was never pushed", meta.ID))
	}

	unlock := e.locks.Lock(meta.ID)
	defer unlock()

	remote, err := e.fetch(ctx, entity, collection)
	if err != nil {
		return Error(fmt.Sprintf("merge: %v", err))
	}

	merged := conflict.Merge(e.resolver, e.codec.schema, entity, remote, fieldResolver)
	mergedMeta := merged.Meta()

	fields, err := e.codec.encode(merged, *mergedMeta.LastSyncAt)
	if err != nil {
		return Error(fmt.Sprintf("merge: %v", err))
	}
	if err := e.remote.Set(ctx, collection, mergedMeta.RemoteID, fields); err != nil {
		e.logger.Error("Failed to push merged replica", "id", meta.ID, "error", err)
		return Error(fmt.Sprintf("merge: failed to update remote document: %v", err))
	}

	e.codec.schema.CopyFields(entity, merged)
	*meta = models.CloneMetadata(*mergedMeta)

	if err := e.save(ctx, entity); err != nil {
		return Error(fmt.Sprintf("merge: %v", err))
	}

	e.logger.Info("Replica merged with remote", "id", meta.ID, "version", meta.Version)

	res := Success(fmt.Sprintf("replica %s merged with remote", meta.ID))
	res.Pushed = 1
	return res
}

// Report compares entity with its remote document field by field
func (e *Engine[T]) Report(ctx context.Context, entity T, collection string) (conflict.ConflictReport, error) {
	if res, ok := e.validate(entity, collection); !ok {
		return conflict.ConflictReport{}, errors.New(res.Message)
	}
	if !entity.Meta().HasRemote() {
		return conflict.ConflictReport{}, fmt.Errorf("replica %s was never pushed", entity.Meta().ID)
	}

	remote, err := e.fetch(ctx, entity, collection)
	if err != nil {
		return conflict.ConflictReport{}, err
	}

	return conflict.GetConflictReport(e.codec.schema, entity, remote), nil
}

// Pending returns the number of local replicas changed since their last sync.
// Tombstones count only when FullSync pushes them.
func (e *Engine[T]) Pending(ctx context.Context) (int, error) {
	locals, err := e.local.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list local replicas: %w", err)
	}

	pending := 0
	for _, entity := range locals {
		meta := entity.Meta()
		if meta.IsDeleted && !e.pushDeleted {
			continue
		}
		if meta.HasChangedSinceLastSync() {
			pending++
		}
	}
	return pending, nil
}

// fetch загружает удаленную копию реплики
func (e *Engine[T]) fetch(ctx context.Context, entity T, collection string) (T, error) {
	var zero T

	doc, err := e.remote.Get(ctx, collection, entity.Meta().RemoteID)
	if err != nil {
		return zero, fmt.Errorf("failed to get remote document: %w", err)
	}

	remote, err := e.codec.decode(doc)
	if err != nil {
		return zero, err
	}
	return remote, nil
}

func (e *Engine[T]) validate(entity T, collection string) (Result, bool) {
	if models.IsNil(entity) {
		return Error("replica is nil"), false
	}
	if collection == "" {
		return Error("collection is empty"), false
	}
	if entity.Meta().ID == "" {
		return Error("replica has no id"), false
	}
	return Result{}, true
}

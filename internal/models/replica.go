package models

import (
	"errors"
	"reflect"
	"time"
)

// ErrRemoteIDImmutable возвращается при попытке перепривязать реплику к другому документу.
var ErrRemoteIDImmutable = errors.New("remote id is already assigned")

// SyncMetadata содержит поля версионирования, общие для всех синхронизируемых сущностей.
// Встраивается в сущность (композиция), читается и пишется только
// sync engine и локальным хранилищем.
type SyncMetadata struct {
	CreatedAt  time.Time  `json:"created_at"`            // CreatedAt время создания записи
	UpdatedAt  time.Time  `json:"updated_at"`            // UpdatedAt время последней мутации (любая сторона)
	LastSyncAt *time.Time `json:"last_sync_at"`          // LastSyncAt watermark последней успешной синхронизации; nil = никогда
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`  // DeletedAt время soft delete
	ID         string     `json:"id"`                    // ID стабильный локальный идентификатор (UUID)
	RemoteID   string     `json:"remote_id,omitempty"`   // RemoteID идентификатор документа в удаленном хранилище; "" = никогда не отправлялась
	Version    int64      `json:"version"`               // Version монотонно растущая версия, начинается с 1
	IsDeleted  bool       `json:"is_deleted"`            // IsDeleted флаг soft delete (tombstone)
}

// Replica is any entity eligible for synchronization.
// Entities satisfy it by embedding SyncMetadata.
type Replica interface {
	Meta() *SyncMetadata
}

// IsNil reports whether replica is absent, including typed nil pointers
// stored in the interface.
func IsNil(replica Replica) bool {
	if replica == nil {
		return true
	}
	v := reflect.ValueOf(replica)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// NewSyncMetadata creates metadata for a freshly created replica.
func NewSyncMetadata(id string, now time.Time) SyncMetadata {
	now = now.UTC()
	return SyncMetadata{
		ID:        id,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Meta returns the metadata block itself.
func (m *SyncMetadata) Meta() *SyncMetadata {
	return m
}

// HasRemote reports whether the replica was ever pushed.
func (m *SyncMetadata) HasRemote() bool {
	return m.RemoteID != ""
}

// MarkAsModified registers a local mutation: version+1 and a new updatedAt.
func (m *SyncMetadata) MarkAsModified(now time.Time) {
	m.UpdatedAt = now.UTC()
	m.Version++
}

// MarkAsDeleted soft-deletes the replica. Repeated calls are no-ops.
func (m *SyncMetadata) MarkAsDeleted(now time.Time) {
	if m.IsDeleted {
		return
	}
	deletedAt := now.UTC()
	m.IsDeleted = true
	m.DeletedAt = &deletedAt
	m.MarkAsModified(now)
}

// Restore clears the tombstone. Restoring a live replica is a no-op.
func (m *SyncMetadata) Restore(now time.Time) {
	if !m.IsDeleted {
		return
	}
	m.IsDeleted = false
	m.DeletedAt = nil
	m.MarkAsModified(now)
}

// MarkSynced moves the watermark to now.
func (m *SyncMetadata) MarkSynced(now time.Time) {
	syncedAt := now.UTC()
	m.LastSyncAt = &syncedAt
}

// AssignRemoteID binds the replica to a remote document.
// Once assigned the binding can't be changed.
func (m *SyncMetadata) AssignRemoteID(remoteID string) error {
	if m.RemoteID != "" && m.RemoteID != remoteID {
		return ErrRemoteIDImmutable
	}
	m.RemoteID = remoteID
	return nil
}

// HasChangedSinceLastSync reports whether the replica is dirty:
// never synchronized, or updated after the watermark.
func (m *SyncMetadata) HasChangedSinceLastSync() bool {
	if m.LastSyncAt == nil {
		return true
	}
	return m.UpdatedAt.After(*m.LastSyncAt)
}

// SameState reports whether two metadata blocks describe the same replica state.
func (m *SyncMetadata) SameState(other *SyncMetadata) bool {
	return m.Version == other.Version && m.UpdatedAt.Equal(other.UpdatedAt)
}

// CloneMetadata returns a deep copy of the metadata.
func CloneMetadata(m SyncMetadata) SyncMetadata {
	out := m
	if m.LastSyncAt != nil {
		t := *m.LastSyncAt
		out.LastSyncAt = &t
	}
	if m.DeletedAt != nil {
		t := *m.DeletedAt
		out.DeletedAt = &t
	}
	return out
}

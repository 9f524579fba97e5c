package sync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/gophsync/internal/docstore"
	"github.com/iudanet/gophsync/internal/models"
)

const (
	fieldRemoteID  = "remote_id"
	fieldDeletedAt = "deleted_at"
)

var errEmptyDocument = errors.New("remote document has no fields")

// codec переводит реплику в поля удаленного документа и обратно.
// Документ хранит всю сущность вместе с метаданными, кроме remote_id:
// идентификатором служит ключ документа.
type codec[T models.Replica] struct {
	schema models.Schema[T]
}

// encode returns the fields of the remote snapshot of entity as it will look
// once synchronized at syncedAt. The entity itself is not modified.
func (c codec[T]) encode(entity T, syncedAt time.Time) (map[string]any, error) {
	snapshot := c.schema.New()
	c.schema.CopyFields(snapshot, entity)

	meta := models.CloneMetadata(*entity.Meta())
	meta.RemoteID = ""
	meta.MarkSynced(syncedAt)
	*snapshot.Meta() = meta

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal replica: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to convert replica: %w", err)
	}
	delete(fields, fieldRemoteID)

	// Set делает shallow merge: пустые значения передаем явно, иначе remote сохранит старые
	for _, field := range c.schema.Fields {
		if _, ok := fields[field.Name]; !ok {
			fields[field.Name] = nil
		}
	}
	if _, ok := fields[fieldDeletedAt]; !ok {
		fields[fieldDeletedAt] = nil
	}

	return fields, nil
}

// decode builds a replica from a remote document. Documents written by other
// producers may lack metadata: the document key then doubles as local id.
func (c codec[T]) decode(doc docstore.Document) (T, error) {
	var zero T
	if len(doc.Fields) == 0 {
		return zero, fmt.Errorf("%s: %w", doc.ID, errEmptyDocument)
	}

	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal document %s: %w", doc.ID, err)
	}

	entity := c.schema.New()
	if err := json.Unmarshal(data, entity); err != nil {
		return zero, fmt.Errorf("failed to unmarshal document %s: %w", doc.ID, err)
	}

	meta := entity.Meta()
	meta.RemoteID = doc.ID
	if meta.ID == "" {
		meta.ID = doc.ID
	}
	if meta.Version == 0 {
		meta.Version = 1
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = doc.UpdateTime.UTC()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = doc.CreateTime.UTC()
	}

	return entity, nil
}

// Package docstore defines the remote document store the sync engine pushes
// replicas to, together with helpers shared by its backends.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by Get when the document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidCollection is returned for empty or malformed collection names.
	ErrInvalidCollection = errors.New("invalid collection name")
	// ErrInvalidID is returned for empty or malformed document ids.
	ErrInvalidID = errors.New("invalid document id")
)

// Document снимок удаленного документа
type Document struct {
	CreateTime time.Time      `json:"create_time"` // CreateTime время создания документа на сервере
	UpdateTime time.Time      `json:"update_time"` // UpdateTime время последней записи на сервере
	Fields     map[string]any `json:"fields"`      // Fields JSON-совместимые поля документа
	ID         string         `json:"id"`          // ID идентификатор, выданный хранилищем
}

//go:generate moq -out store_mock.go . Store

// Store is a remote keyed document store organised in collections.
type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// List returns every document of the collection.
	List(ctx context.Context, collection string) ([]Document, error)
	// Add creates a document under a store-generated id.
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Set shallow-merges fields into the document, creating it when absent.
	Set(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
}

// ValidateCollection checks a collection name.
func ValidateCollection(collection string) error {
	if strings.TrimSpace(collection) == "" || strings.ContainsAny(collection, "/\\") {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	return nil
}

// ValidateID checks a document id.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Validate checks both collection and document id.
func Validate(collection, id string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	return ValidateID(id)
}

// NewID generates a document id.
func NewID() string {
	return uuid.NewString()
}

// ShallowMerge returns base with the top-level keys of patch replaced.
// Neither argument is modified.
func ShallowMerge(base, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(patch))
	maps.Copy(merged, CloneFields(base))
	maps.Copy(merged, CloneFields(patch))
	return merged
}

// CloneFields deep-copies a JSON-like value tree.
func CloneFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneFields(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	d.Fields = CloneFields(d.Fields)
	return d
}

// Package memory is an in-process docstore backend.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/gophsync/internal/docstore"
)

// Store keeps documents in a map guarded by a mutex.
// Documents are deep-copied on the way in and out.
type Store struct {
	now         func() time.Time
	collections map[string]map[string]docstore.Document
	mu          sync.RWMutex
}

var _ docstore.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		now:         time.Now,
		collections: make(map[string]map[string]docstore.Document),
	}
}

// WithClock replaces the clock stamping create/update times.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Get returns a copy of the document.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	if err := docstore.Validate(collection, id); err != nil {
		return docstore.Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return docstore.Document{}, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return doc.Clone(), nil
}

// List returns copies of all documents ordered by id.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := docstore.ValidateCollection(collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]docstore.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		docs = append(docs, doc.Clone())
	}
	slices.SortFunc(docs, func(a, b docstore.Document) int {
		return strings.Compare(a.ID, b.ID)
	})
	return docs, nil
}

// Add stores a new document under a generated id.
func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := docstore.ValidateCollection(collection); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := docstore.NewID()
	now := s.now().UTC()
	s.collection(collection)[id] = docstore.Document{
		ID:         id,
		Fields:     docstore.CloneFields(fields),
		CreateTime: now,
		UpdateTime: now,
	}
	return id, nil
}

// Set shallow-merges fields into the document.
func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := docstore.Validate(collection, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	docs := s.collection(collection)
	doc, ok := docs[id]
	if !ok {
		doc = docstore.Document{ID: id, CreateTime: now}
	}
	doc.Fields = docstore.ShallowMerge(doc.Fields, fields)
	doc.UpdateTime = now
	docs[id] = doc
	return nil
}

// Delete removes the document if present.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := docstore.Validate(collection, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

// Len returns the number of documents in a collection.
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// collection returns the collection map, creating it. Caller holds the write lock.
func (s *Store) collection(name string) map[string]docstore.Document {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string]docstore.Document)
		s.collections[name] = docs
	}
	return docs
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/gophsync/internal/docstore"
)

// Get returns the document or docstore.ErrNotFound.
func (s *Storage) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := docstore.Validate(collection, id); err != nil {
		return docstore.Document{}, err
	}

	query := `
		SELECT id, body, created_at, updated_at
		FROM documents
		WHERE collection = ? AND id = ?
	`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.Document{}, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
		}
		return docstore.Document{}, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// List returns every document of the collection ordered by id.
// Returns an empty slice for unknown collections.
func (s *Storage) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return nil, err
	}

	query := `
		SELECT id, body, created_at, updated_at
		FROM documents
		WHERE collection = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]docstore.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

// Add inserts a document under a generated id.
func (s *Storage) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return "", err
	}

	body, err := encodeFields(fields)
	if err != nil {
		return "", err
	}

	id := docstore.NewID()
	now := s.now().UTC().UnixMicro()

	query := `
		INSERT INTO documents (collection, id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, collection, id, body, now, now); err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	return id, nil
}

// Set shallow-merges fields into the stored body inside one transaction.
func (s *Storage) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := docstore.Validate(collection, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var (
		raw     string
		current map[string]any
	)
	err = tx.QueryRowContext(ctx, `SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to read document: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &current); err != nil {
			return fmt.Errorf("failed to decode document body: %w", err)
		}
	}

	body, err := encodeFields(docstore.ShallowMerge(current, fields))
	if err != nil {
		return err
	}

	now := s.now().UTC().UnixMicro()
	query := `
		INSERT INTO documents (collection, id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id)
		DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query, collection, id, body, now, now); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete removes the document; deleting a missing document is not an error.
func (s *Storage) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.Validate(collection, id); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (docstore.Document, error) {
	var (
		doc                  docstore.Document
		body                 string
		createdAt, updatedAt int64
	)

	if err := row.Scan(&doc.ID, &body, &createdAt, &updatedAt); err != nil {
		return docstore.Document{}, err
	}

	if err := json.Unmarshal([]byte(body), &doc.Fields); err != nil {
		return docstore.Document{}, fmt.Errorf("failed to decode document body: %w", err)
	}

	doc.CreateTime = time.UnixMicro(createdAt).UTC()
	doc.UpdateTime = time.UnixMicro(updatedAt).UTC()

	return doc, nil
}

func encodeFields(fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(body), nil
}

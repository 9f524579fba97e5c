// Package postgres is a docstore backend keeping documents as JSONB rows.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/iudanet/gophsync/internal/docstore"
)

const (
	defaultTableName = "gophsync_documents"
	operationTimeout = 5 * time.Second
)

// ErrEmptyDSN is returned by New for a blank connection string.
var ErrEmptyDSN = errors.New("postgres dsn is empty")

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// Store implements docstore.Store on top of PostgreSQL.
// The connection and schema are initialised lazily on first use.
type Store struct {
	initErr   error
	db        *sql.DB
	openDB    sqlOpenFunc
	dsn       string
	tableName string
	initOnce  sync.Once
}

var _ docstore.Store = (*Store)(nil)

// New creates a store for the given DSN without connecting.
func New(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrEmptyDSN
	}
	return &Store{
		dsn:       dsn,
		tableName: defaultTableName,
		openDB:    sql.Open,
	}, nil
}

// WithTable overrides the table name; used to isolate tests.
func (s *Store) WithTable(name string) *Store {
	s.tableName = name
	return s
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the document or docstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := docstore.Validate(collection, id); err != nil {
		return docstore.Document{}, err
	}
	if err := s.ensureReady(ctx); err != nil {
		return docstore.Document{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT id, body, created_at, updated_at FROM %s WHERE collection = $1 AND id = $2`, s.table())
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// List returns every document of the collection ordered by id.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return nil, err
	}
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT id, body, created_at, updated_at FROM %s WHERE collection = $1 ORDER BY id`, s.table())
	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
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
func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return "", err
	}
	id := docstore.NewID()
	if err := s.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

// Set upserts the document; on conflict the JSONB bodies are concatenated,
// which is a shallow merge of top-level keys.
func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := docstore.Validate(collection, id); err != nil {
		return err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %[1]s (collection, id, body, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW(), NOW())
		ON CONFLICT (collection, id)
		DO UPDATE SET body = %[1]s.body || EXCLUDED.body, updated_at = NOW()`, s.table())
	if _, err := s.db.ExecContext(ctx, query, collection, id, string(payload)); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Delete removes the document; missing documents are ignored.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.Validate(collection, id); err != nil {
		return err
	}
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE collection = $1 AND id = $2`, s.table())
	if _, err := s.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *Store) ensureReady(ctx context.Context) error {
	s.initOnce.Do(func() {
		db, err := s.openDB("postgres", s.dsn)
		if err != nil {
			s.initErr = fmt.Errorf("failed to open database: %w", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), operationTimeout)
		defer cancel()

		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				collection TEXT NOT NULL,
				id TEXT NOT NULL,
				body JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (collection, id)
			)`, s.table())
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			s.initErr = fmt.Errorf("failed to create table: %w", err)
			return
		}
		s.db = db
	})
	return s.initErr
}

func (s *Store) table() string {
	return quoteIdentifier(s.tableName)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (docstore.Document, error) {
	var (
		doc  docstore.Document
		body []byte
	)
	if err := row.Scan(&doc.ID, &body, &doc.CreateTime, &doc.UpdateTime); err != nil {
		return docstore.Document{}, err
	}
	if err := json.Unmarshal(body, &doc.Fields); err != nil {
		return docstore.Document{}, fmt.Errorf("failed to decode document body: %w", err)
	}
	doc.CreateTime = doc.CreateTime.UTC()
	doc.UpdateTime = doc.UpdateTime.UTC()
	return doc, nil
}

func quoteIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return `""`
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

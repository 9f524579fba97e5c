// Package objectstore is a docstore backend on S3-compatible object storage.
// Each document is one JSON object at <prefix>/<collection>/<id>.json.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/iudanet/gophsync/internal/docstore"
)

const objectSuffix = ".json"

// Config параметры подключения к объектному хранилищу
type Config struct {
	Endpoint  string // Endpoint host:port S3 API
	AccessKey string // AccessKey ключ доступа
	SecretKey string // SecretKey секретный ключ
	Bucket    string // Bucket имя бакета, создается при отсутствии
	Prefix    string // Prefix префикс ключей, опционально
	Region    string // Region регион бакета
	Secure    bool   // Secure использовать HTTPS
}

// Store implements docstore.Store with minio-go.
// Shallow merges are read-modify-write; writes are serialised per process.
type Store struct {
	client *minio.Client
	now    func() time.Time
	bucket string
	prefix string
	mu     sync.Mutex
}

var _ docstore.Store = (*Store)(nil)

// New connects to the endpoint and makes sure the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("objectstore: endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		now:    time.Now,
	}, nil
}

// Get downloads and decodes the document.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := docstore.Validate(collection, id); err != nil {
		return docstore.Document{}, err
	}
	doc, err := s.read(ctx, s.key(collection, id))
	if err != nil {
		if isNotFound(err) {
			return docstore.Document{}, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
		}
		return docstore.Document{}, err
	}
	return doc, nil
}

// List downloads every document under the collection prefix.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return nil, err
	}

	keys := make([]string, 0)
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.collectionPrefix(collection),
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, objectSuffix) {
			keys = append(keys, object.Key)
		}
	}
	slices.Sort(keys)

	docs := make([]docstore.Document, 0, len(keys))
	for _, key := range keys {
		doc, err := s.read(ctx, key)
		if err != nil {
			// объект мог быть удален между листингом и чтением
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Add uploads a new document under a generated id.
func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return "", err
	}
	id := docstore.NewID()
	now := s.now().UTC()
	doc := docstore.Document{ID: id, Fields: docstore.CloneFields(fields), CreateTime: now, UpdateTime: now}
	if doc.Fields == nil {
		doc.Fields = map[string]any{}
	}
	if err := s.write(ctx, s.key(collection, id), doc); err != nil {
		return "", err
	}
	return id, nil
}

// Set reads the current object, merges fields into it and writes it back.
func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := docstore.Validate(collection, id); err != nil {
		return err
	}
	key := s.key(collection, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	doc, err := s.read(ctx, key)
	switch {
	case isNotFound(err):
		doc = docstore.Document{ID: id, CreateTime: now}
	case err != nil:
		return err
	}
	doc.Fields = docstore.ShallowMerge(doc.Fields, fields)
	doc.UpdateTime = now
	return s.write(ctx, key, doc)
}

// Delete removes the object. S3 treats removal of a missing key as success.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.Validate(collection, id); err != nil {
		return err
	}
	err := s.client.RemoveObject(ctx, s.bucket, s.key(collection, id), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, key string) (docstore.Document, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return docstore.Document{}, err
	}
	defer func() {
		_ = obj.Close()
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		return docstore.Document{}, err
	}

	var doc docstore.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return docstore.Document{}, fmt.Errorf("failed to decode object %s: %w", key, err)
	}
	return doc, nil
}

func (s *Store) write(ctx context.Context, key string, doc docstore.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

func (s *Store) collectionPrefix(collection string) string {
	return path.Join(s.prefix, collection) + "/"
}

func (s *Store) key(collection, id string) string {
	return s.collectionPrefix(collection) + id + objectSuffix
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

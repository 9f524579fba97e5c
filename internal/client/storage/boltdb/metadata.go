package boltdb

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const keyLastSyncPrefix = "last_sync/"

// SaveLastSync saves the time of the last successful full sync of a collection
func (s *Storage) SaveLastSync(ctx context.Context, collection string, at time.Time) error {
	data, err := at.UTC().MarshalText()
	if err != nil {
		return fmt.Errorf("failed to encode last sync time: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		if err := bucket.Put([]byte(keyLastSyncPrefix+collection), data); err != nil {
			return fmt.Errorf("failed to save last sync time: %w", err)
		}

		return nil
	})
}

// GetLastSync retrieves the time of the last successful full sync of a collection.
// Returns the zero time if no sync has been performed yet
func (s *Storage) GetLastSync(ctx context.Context, collection string) (time.Time, error) {
	var at time.Time

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		data := bucket.Get([]byte(keyLastSyncPrefix + collection))
		if data == nil {
			return nil
		}

		return at.UnmarshalText(data)
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last sync time: %w", err)
	}

	return at, nil
}

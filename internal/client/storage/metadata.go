package storage

import (
	"context"
	"time"
)

// MetadataStorage defines interface for storing client sync metadata
type MetadataStorage interface {
	// SaveLastSync saves the time of the last successful full sync of a collection
	SaveLastSync(ctx context.Context, collection string, at time.Time) error

	// GetLastSync retrieves the time of the last successful full sync of a collection.
	// Returns the zero time if the collection was never synchronized.
	GetLastSync(ctx context.Context, collection string) (time.Time, error)
}

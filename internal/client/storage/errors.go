package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrReplicaNotFound indicates that the replica is not in the local store
	ErrReplicaNotFound = errors.New("replica not found")

	// ErrReplicaExists indicates an Add for an id that is already stored
	ErrReplicaExists = errors.New("replica already exists")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)

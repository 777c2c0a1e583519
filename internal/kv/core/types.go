// Package core defines the durable key-value contract the survey engine
// persists through, independent of any concrete backend.
package core

import (
	"context"
	"errors"
)

// Driver identifies a concrete key-value backend implementation.
type Driver string

const (
	// DriverMemory keeps values in process memory (tests, ephemeral runs).
	DriverMemory Driver = "memory"
	// DriverFilesystem stores one file per key below a root directory.
	DriverFilesystem Driver = "fs"
	// DriverSQLite stores keys in an embedded SQLite file (default).
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores keys in a PostgreSQL table.
	DriverPostgres Driver = "postgres"
	// DriverS3 stores one object per key in an S3 / MinIO bucket.
	DriverS3 Driver = "s3"
)

// Store is the durable storage contract: whole string values addressed by key.
// Implementations overwrite on Set and ignore absent keys on MultiRemove.
type Store interface {
	// Get returns the value stored at key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// MultiRemove deletes every listed key. Missing keys are not an error.
	MultiRemove(ctx context.Context, keys []string) error
	// Driver returns the configured backend driver.
	Driver() Driver
}

// Closer is implemented by backends holding connections or handles.
type Closer interface {
	Close() error
}

// ErrUnsupported is returned when a driver is not available in this build or configuration.
var ErrUnsupported = errors.New("kv: unsupported driver")

// ErrInvalidKey is returned for keys a backend cannot address.
var ErrInvalidKey = errors.New("kv: invalid key")
